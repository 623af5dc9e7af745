package match

import (
	"context"
	"sync"

	"matchgate/pkg/platform/sentinel"
)

// InMemoryStore keeps matches in a mutex-guarded map.
type InMemoryStore struct {
	mu      sync.RWMutex
	matches map[string]Match
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{matches: make(map[string]Match)}
}

func (s *InMemoryStore) Create(_ context.Context, m Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.matches[m.ID]; exists {
		return sentinel.ErrConflict
	}
	s.matches[m.ID] = m
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, matchID string) (Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[matchID]
	if !ok {
		return Match{}, sentinel.ErrNotFound
	}
	return m, nil
}

func (s *InMemoryStore) ListByStatus(_ context.Context, status Status) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Match
	for _, m := range s.matches {
		if m.Status == status {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, matchID string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[matchID]
	if !ok {
		return sentinel.ErrNotFound
	}
	m.Status = status
	s.matches[matchID] = m
	return nil
}
