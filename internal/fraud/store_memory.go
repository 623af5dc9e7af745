package fraud

import (
	"context"
	"sort"
	"sync"
	"time"

	"matchgate/pkg/platform/sentinel"
)

// InMemoryStore keeps flags in process memory.
type InMemoryStore struct {
	mu    sync.RWMutex
	flags map[string]Flag
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{flags: make(map[string]Flag)}
}

func (s *InMemoryStore) Create(_ context.Context, f Flag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.flags {
		if existing.MatchID == f.MatchID && existing.PlayerID == f.PlayerID && existing.Status == StatusOpen {
			return sentinel.ErrConflict
		}
	}
	s.flags[f.ID] = f
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (Flag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.flags[id]
	if !ok {
		return Flag{}, sentinel.ErrNotFound
	}
	return f, nil
}

func (s *InMemoryStore) FindOpen(_ context.Context, matchID, playerID string) (Flag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.flags {
		if f.MatchID == matchID && f.PlayerID == playerID && f.Status == StatusOpen {
			return f, nil
		}
	}
	return Flag{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListByMatch(_ context.Context, matchID string) ([]Flag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Flag
	for _, f := range s.flags {
		if f.MatchID == matchID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.Before(out[j].OpenedAt) })
	return out, nil
}

func (s *InMemoryStore) Resolve(_ context.Context, flagID string, to FlagStatus, resolvedBy, justification string, at time.Time) (Flag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flags[flagID]
	if !ok {
		return Flag{}, sentinel.ErrNotFound
	}
	if f.Status != StatusOpen {
		return Flag{}, sentinel.ErrAlreadyDecided
	}
	f.Status = to
	f.ResolvedBy = resolvedBy
	f.Justification = justification
	resolvedAt := at
	f.ResolvedAt = &resolvedAt
	s.flags[flagID] = f
	return f, nil
}
