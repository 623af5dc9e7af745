package jersey

import (
	"context"
	"sort"
	"sync"

	"matchgate/pkg/platform/sentinel"
)

// InMemoryStore keeps assignments in mutex-guarded maps, one number table per
// (match, team) scope.
type InMemoryStore struct {
	mu    sync.RWMutex
	teams map[teamKey]*teamTable
}

type teamKey struct {
	matchID string
	teamID  string
}

type teamTable struct {
	byNumber map[int]Assignment
	byPlayer map[string]Assignment
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{teams: make(map[teamKey]*teamTable)}
}

func (s *InMemoryStore) table(matchID, teamID string) *teamTable {
	key := teamKey{matchID, teamID}
	t, ok := s.teams[key]
	if !ok {
		t = &teamTable{byNumber: make(map[int]Assignment), byPlayer: make(map[string]Assignment)}
		s.teams[key] = t
	}
	return t
}

func (s *InMemoryStore) Put(_ context.Context, a Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(a.MatchID, a.TeamID)
	if holder, taken := t.byNumber[a.Number]; taken && holder.PlayerID != a.PlayerID {
		return sentinel.ErrConflict
	}
	if prev, had := t.byPlayer[a.PlayerID]; had {
		delete(t.byNumber, prev.Number)
	}
	t.byNumber[a.Number] = a
	t.byPlayer[a.PlayerID] = a
	return nil
}

func (s *InMemoryStore) Holder(_ context.Context, matchID, teamID string, number int) (Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teams[teamKey{matchID, teamID}]
	if !ok {
		return Assignment{}, sentinel.ErrNotFound
	}
	a, ok := t.byNumber[number]
	if !ok {
		return Assignment{}, sentinel.ErrNotFound
	}
	return a, nil
}

func (s *InMemoryStore) ByPlayer(_ context.Context, matchID, teamID, playerID string) (Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teams[teamKey{matchID, teamID}]
	if !ok {
		return Assignment{}, sentinel.ErrNotFound
	}
	a, ok := t.byPlayer[playerID]
	if !ok {
		return Assignment{}, sentinel.ErrNotFound
	}
	return a, nil
}

func (s *InMemoryStore) ListByTeam(_ context.Context, matchID, teamID string) ([]Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teams[teamKey{matchID, teamID}]
	if !ok {
		return nil, nil
	}
	out := make([]Assignment, 0, len(t.byNumber))
	for _, a := range t.byNumber {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *InMemoryStore) SwapNumbers(_ context.Context, matchID, teamID, playerA, playerB string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams[teamKey{matchID, teamID}]
	if !ok {
		return sentinel.ErrNotFound
	}
	a, okA := t.byPlayer[playerA]
	b, okB := t.byPlayer[playerB]
	if !okA || !okB {
		return sentinel.ErrNotFound
	}
	a.Number, b.Number = b.Number, a.Number
	t.byPlayer[playerA] = a
	t.byPlayer[playerB] = b
	t.byNumber[a.Number] = a
	t.byNumber[b.Number] = b
	return nil
}

func (s *InMemoryStore) Remove(_ context.Context, matchID, teamID, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams[teamKey{matchID, teamID}]
	if !ok {
		return sentinel.ErrNotFound
	}
	a, ok := t.byPlayer[playerID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(t.byPlayer, playerID)
	delete(t.byNumber, a.Number)
	return nil
}
