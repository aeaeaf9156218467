package report

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type MemoryRepository struct {
	mu    sync.RWMutex
	items []StudentResult
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (m *MemoryRepository) Record(ctx context.Context, r StudentResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, r)
	return nil
}

func (m *MemoryRepository) List(ctx context.Context) ([]StudentResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := append([]StudentResult(nil), m.items...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *MemoryRepository) ByCandidate(ctx context.Context, email string) ([]StudentResult, error) {
	items, _ := m.List(ctx)
	out := make([]StudentResult, 0)
	for _, it := range items {
		if strings.EqualFold(it.Email, email) {
			out = append(out, it)
		}
	}
	return out, nil
}
