// Package match owns the per-match state service. All check-in, jersey, and
// fraud state hangs off a scheduled match, and every mutation of that state
// is serialized through this service's keyed locks rather than any ambient
// shared variable.
package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	dErrors "matchgate/pkg/domain-errors"
	"matchgate/pkg/platform/sentinel"
	"matchgate/pkg/requestcontext"
)

type Service struct {
	store  Store
	locks  *KeyedMutex
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("match store is required")
	}
	svc := &Service{
		store:  store,
		locks:  NewKeyedMutex(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Schedule registers a match and brings its check-in state into existence.
func (s *Service) Schedule(ctx context.Context, m Match) (Match, error) {
	if m.ID == "" || m.HomeTeamID == "" || m.AwayTeamID == "" {
		return Match{}, dErrors.New(dErrors.CodeBadRequest, "match id and both team ids are required")
	}
	if m.KickoffAt.IsZero() {
		return Match{}, dErrors.New(dErrors.CodeBadRequest, "kickoff time is required")
	}
	m.Status = StatusScheduled
	m.CreatedAt = requestcontext.Now(ctx)
	if err := s.store.Create(ctx, m); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return Match{}, dErrors.New(dErrors.CodeInvalidState, "match already scheduled")
		}
		return Match{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to schedule match")
	}
	s.logger.InfoContext(ctx, "match scheduled",
		"match_id", m.ID,
		"kickoff_at", m.KickoffAt.Format(time.RFC3339),
	)
	return m, nil
}

// Get resolves a match by ID.
func (s *Service) Get(ctx context.Context, matchID string) (Match, error) {
	m, err := s.store.FindByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Match{}, dErrors.New(dErrors.CodeNotFound, "match not found")
		}
		return Match{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load match")
	}
	return m, nil
}

// Active returns the match if it still accepts check-in mutations, i.e. it is
// scheduled. Finalized and archived matches reject mutating operations.
func (s *Service) Active(ctx context.Context, matchID string) (Match, error) {
	m, err := s.Get(ctx, matchID)
	if err != nil {
		return Match{}, err
	}
	if m.Status != StatusScheduled {
		return Match{}, dErrors.New(dErrors.CodeInvalidState, "match no longer accepts check-in operations")
	}
	return m, nil
}

// ListScheduled lists matches still accepting check-ins, for the notify poller.
func (s *Service) ListScheduled(ctx context.Context) ([]Match, error) {
	matches, err := s.store.ListByStatus(ctx, StatusScheduled)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list scheduled matches")
	}
	return matches, nil
}

// Finalize marks results as final; check-in state becomes read-only.
func (s *Service) Finalize(ctx context.Context, matchID string) error {
	return s.transition(ctx, matchID, StatusScheduled, StatusFinal)
}

// Archive tears down a finalized match's working state. Per-team locks are
// dropped; the durable records remain for audit.
func (s *Service) Archive(ctx context.Context, matchID string) error {
	if err := s.transition(ctx, matchID, StatusFinal, StatusArchived); err != nil {
		return err
	}
	m, err := s.Get(ctx, matchID)
	if err == nil {
		s.locks.Forget(matchID, m.HomeTeamID)
		s.locks.Forget(matchID, m.AwayTeamID)
	}
	return nil
}

func (s *Service) transition(ctx context.Context, matchID string, from, to Status) error {
	m, err := s.Get(ctx, matchID)
	if err != nil {
		return err
	}
	if m.Status != from {
		return dErrors.New(dErrors.CodeInvalidState,
			fmt.Sprintf("match is %s, expected %s", m.Status, from))
	}
	if err := s.store.UpdateStatus(ctx, matchID, to); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update match status")
	}
	s.logger.InfoContext(ctx, "match status changed", "match_id", matchID, "status", to)
	return nil
}

// LockTeam serializes a mutation on one (match, team) scope. The returned
// unlock must be deferred by the caller.
func (s *Service) LockTeam(matchID, teamID string) func() {
	return s.locks.Lock(matchID, teamID)
}
