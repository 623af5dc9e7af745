package checkin

import (
	"context"
	"sort"
	"sync"
	"time"

	"matchgate/pkg/platform/sentinel"
)

// InMemoryStore keeps records in process memory. Used by tests and by
// single-node deployments without Postgres.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]Record)}
}

func (s *InMemoryStore) Create(_ context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.Decision.Admits() {
		for _, existing := range s.records {
			if existing.MatchID == r.MatchID && existing.PlayerID == r.PlayerID && existing.Decision.Admits() {
				return sentinel.ErrConflict
			}
		}
	}
	s.records[r.ID] = r
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	return r, nil
}

func (s *InMemoryStore) FindAdmitting(_ context.Context, matchID, playerID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.MatchID == matchID && r.PlayerID == playerID && r.Decision.Admits() {
			return r, nil
		}
	}
	return Record{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListByPlayer(_ context.Context, matchID, playerID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, r := range s.records {
		if r.MatchID == matchID && r.PlayerID == playerID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) ListPending(_ context.Context, scope Scope) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, r := range s.records {
		if r.Decision != DecisionBorderlinePending {
			continue
		}
		if scope.MatchID != "" && r.MatchID != scope.MatchID {
			continue
		}
		if scope.TournamentID != "" && r.TournamentID != scope.TournamentID {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) SetJerseyNumber(_ context.Context, recordID string, number int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[recordID]
	if !ok {
		return sentinel.ErrNotFound
	}
	r.JerseyNumber = &number
	s.records[recordID] = r
	return nil
}

func (s *InMemoryStore) Adjudicate(_ context.Context, recordID string, to Decision, reviewerID string, at time.Time) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[recordID]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	if r.Decision != DecisionBorderlinePending {
		return Record{}, sentinel.ErrAlreadyDecided
	}
	r.Decision = to
	r.ReviewedBy = reviewerID
	reviewedAt := at
	r.ReviewedAt = &reviewedAt
	s.records[recordID] = r
	return r, nil
}
