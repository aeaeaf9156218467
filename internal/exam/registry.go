package exam

import (
	"sync"
	"time"

	"mocktest/internal/question"

	"github.com/google/uuid"
)

// Registry holds live sessions in process, keyed by a random UUID.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

func (r *Registry) Create(bank []question.Question, now time.Time) (*Session, error) {
	s, err := NewSession(uuid.NewString(), bank, now)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s, nil
}

func (r *Registry) Get(id string) (*Session, error) {
	if err := checkSessionID(id); err != nil {
		return nil, err
	}
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Prune drops sessions whose last activity is before cutoff and returns how many were removed.
func (r *Registry) Prune(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, s := range r.sessions {
		if s.LastActive().Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// checkSessionID rejects anything that is not a UUID so it can be used as a store key.
func checkSessionID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrSessionNotFound
	}
	return nil
}
