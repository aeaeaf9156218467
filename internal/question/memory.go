package question

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository keeps the bank in process. Used when no database is configured and in tests.
type MemoryRepository struct {
	mu        sync.RWMutex
	questions map[int64]Question
	sections  map[string]Section
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		questions: make(map[int64]Question),
		sections:  make(map[string]Section),
	}
}

func (m *MemoryRepository) ListQuestions(ctx context.Context) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Question, 0, len(m.questions))
	for _, q := range m.questions {
		out = append(out, cloneQuestion(q))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryRepository) GetQuestion(ctx context.Context, id int64) (*Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q, ok := m.questions[id]
	if !ok {
		return nil, ErrQuestionNotFound
	}
	out := cloneQuestion(q)
	return &out, nil
}

func (m *MemoryRepository) UpsertQuestion(ctx context.Context, q Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	q.Section = ""
	m.questions[q.ID] = cloneQuestion(q)
	return nil
}

func (m *MemoryRepository) DeleteQuestion(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.questions[id]; !ok {
		return ErrQuestionNotFound
	}
	delete(m.questions, id)
	return nil
}

func (m *MemoryRepository) ListSections(ctx context.Context) ([]Section, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Section, 0, len(m.sections))
	for _, s := range m.sections {
		out = append(out, s)
	}
	sortSections(out)
	return out, nil
}

func (m *MemoryRepository) UpsertSection(ctx context.Context, s Section) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sections[s.ID] = s
	return nil
}

func cloneQuestion(q Question) Question {
	q.Options = append([]string(nil), q.Options...)
	return q
}
