package notify

import (
	"context"
	"sync"

	"matchgate/internal/window"
)

// InMemoryFlagStore tracks fired events in process memory.
type InMemoryFlagStore struct {
	mu    sync.Mutex
	fired map[string]map[window.Event]bool
}

func NewInMemoryFlagStore() *InMemoryFlagStore {
	return &InMemoryFlagStore{fired: make(map[string]map[window.Event]bool)}
}

func (s *InMemoryFlagStore) MarkFired(_ context.Context, matchID string, event window.Event) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events, ok := s.fired[matchID]
	if !ok {
		events = make(map[window.Event]bool)
		s.fired[matchID] = events
	}
	if events[event] {
		return false, nil
	}
	events[event] = true
	return true, nil
}

func (s *InMemoryFlagStore) Fired(_ context.Context, matchID string, event window.Event) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fired[matchID][event], nil
}
