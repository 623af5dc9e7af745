// Package jersey is the authoritative allocator for in-match jersey numbers.
// Within one (match, team) scope every number maps to at most one player, and
// swapping is the only way to hand an already-used number to someone else.
package jersey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"matchgate/internal/audit"
	"matchgate/internal/match"
	"matchgate/internal/roster"
	dErrors "matchgate/pkg/domain-errors"
	"matchgate/pkg/platform/sentinel"
	"matchgate/pkg/requestcontext"
)

type Service struct {
	store   Store
	matches *match.Service
	rosters roster.Provider
	auditor *audit.Publisher
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditor(auditor *audit.Publisher) Option {
	return func(s *Service) { s.auditor = auditor }
}

func NewService(store Store, matches *match.Service, rosters roster.Provider, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("jersey store is required")
	}
	if matches == nil {
		return nil, fmt.Errorf("match service is required")
	}
	if rosters == nil {
		return nil, fmt.Errorf("roster provider is required")
	}
	svc := &Service{
		store:   store,
		matches: matches,
		rosters: rosters,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Assign gives a player the requested number. A number already held by
// another player surfaces as a JerseyConflict carrying that player's ID so
// the caller can offer a swap.
func (s *Service) Assign(ctx context.Context, matchID, teamID, playerID string, number int) (Assignment, error) {
	if number <= 0 {
		return Assignment{}, dErrors.New(dErrors.CodeBadRequest, "jersey number must be a positive integer")
	}
	if _, err := s.matches.Active(ctx, matchID); err != nil {
		return Assignment{}, err
	}
	if _, err := s.rosters.Player(ctx, matchID, teamID, playerID); err != nil {
		return Assignment{}, dErrors.New(dErrors.CodeNotFound, "player is not on the roster for this match")
	}

	unlock := s.matches.LockTeam(matchID, teamID)
	defer unlock()

	return s.assignLocked(ctx, matchID, teamID, playerID, number)
}

// assignLocked performs the store write; the caller holds the team lock.
func (s *Service) assignLocked(ctx context.Context, matchID, teamID, playerID string, number int) (Assignment, error) {
	a := Assignment{
		MatchID:    matchID,
		TeamID:     teamID,
		PlayerID:   playerID,
		Number:     number,
		AssignedAt: requestcontext.Now(ctx),
	}
	if err := s.store.Put(ctx, a); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			holder, herr := s.store.Holder(ctx, matchID, teamID, number)
			if herr != nil {
				return Assignment{}, dErrors.Wrap(herr, dErrors.CodeInternal, "failed to resolve conflicting holder")
			}
			return Assignment{}, dErrors.New(dErrors.CodeJerseyConflict,
				fmt.Sprintf("number %d is already held", number)).
				WithMeta("holder_player_id", holder.PlayerID).
				WithMeta("number", strconv.Itoa(number))
		}
		return Assignment{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to assign jersey")
	}

	s.emit(ctx, audit.ActionJerseyAssigned, matchID, teamID, playerID, map[string]string{
		"number": strconv.Itoa(number),
	})
	return a, nil
}

// Swap atomically exchanges the numbers of two players. Both players must
// currently hold a number; otherwise neither leg commits.
func (s *Service) Swap(ctx context.Context, matchID, teamID, playerA, playerB string) error {
	if playerA == playerB {
		return dErrors.New(dErrors.CodeBadRequest, "cannot swap a player with themselves")
	}
	if _, err := s.matches.Active(ctx, matchID); err != nil {
		return err
	}

	unlock := s.matches.LockTeam(matchID, teamID)
	defer unlock()

	if err := s.store.SwapNumbers(ctx, matchID, teamID, playerA, playerB); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeInvalidState, "both players must hold a number to swap")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to swap jerseys")
	}

	s.emit(ctx, audit.ActionJerseySwapped, matchID, teamID, playerA, map[string]string{
		"other_player_id": playerB,
	})
	return nil
}

// AssignNextFree gives one player the smallest positive number not currently
// held on the team. Used by the check-in approval path when no number was
// requested.
func (s *Service) AssignNextFree(ctx context.Context, matchID, teamID, playerID string) (Assignment, error) {
	if _, err := s.matches.Active(ctx, matchID); err != nil {
		return Assignment{}, err
	}
	if _, err := s.rosters.Player(ctx, matchID, teamID, playerID); err != nil {
		return Assignment{}, dErrors.New(dErrors.CodeNotFound, "player is not on the roster for this match")
	}

	unlock := s.matches.LockTeam(matchID, teamID)
	defer unlock()

	existing, err := s.store.ListByTeam(ctx, matchID, teamID)
	if err != nil {
		return Assignment{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list assignments")
	}
	used := make(map[int]bool, len(existing))
	for _, a := range existing {
		if a.PlayerID == playerID {
			return a, nil
		}
		used[a.Number] = true
	}
	next := 1
	for used[next] {
		next++
	}
	return s.assignLocked(ctx, matchID, teamID, playerID, next)
}

// AutoAssign walks the roster and gives every unassigned player the smallest
// unused positive number, filling gaps left by released numbers. Numbers held
// by still-present players are never touched.
func (s *Service) AutoAssign(ctx context.Context, matchID, teamID string) ([]Assignment, error) {
	if _, err := s.matches.Active(ctx, matchID); err != nil {
		return nil, err
	}
	players, err := s.rosters.EligiblePlayers(ctx, matchID, teamID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load roster")
	}

	unlock := s.matches.LockTeam(matchID, teamID)
	defer unlock()

	existing, err := s.store.ListByTeam(ctx, matchID, teamID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list assignments")
	}
	used := make(map[int]bool, len(existing))
	assigned := make(map[string]bool, len(existing))
	for _, a := range existing {
		used[a.Number] = true
		assigned[a.PlayerID] = true
	}

	next := 1
	var created []Assignment
	for _, p := range players {
		if assigned[p.ID] {
			continue
		}
		for used[next] {
			next++
		}
		a, err := s.assignLocked(ctx, matchID, teamID, p.ID, next)
		if err != nil {
			return created, err
		}
		used[next] = true
		created = append(created, a)
	}
	return created, nil
}

// Release frees a player's number, e.g. on check-in cancellation. The number
// becomes eligible for reuse by a later AutoAssign in the same match only.
func (s *Service) Release(ctx context.Context, matchID, teamID, playerID string) error {
	if _, err := s.matches.Active(ctx, matchID); err != nil {
		return err
	}

	unlock := s.matches.LockTeam(matchID, teamID)
	defer unlock()

	if err := s.store.Remove(ctx, matchID, teamID, playerID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "player holds no jersey number")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to release jersey")
	}

	s.emit(ctx, audit.ActionJerseyReleased, matchID, teamID, playerID, nil)
	return nil
}

// NumberOf reports a player's current number; NotFound if unassigned.
func (s *Service) NumberOf(ctx context.Context, matchID, teamID, playerID string) (int, error) {
	a, err := s.store.ByPlayer(ctx, matchID, teamID, playerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, dErrors.New(dErrors.CodeNotFound, "player holds no jersey number")
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up jersey")
	}
	return a.Number, nil
}

// ListByTeam returns all current assignments for a scope.
func (s *Service) ListByTeam(ctx context.Context, matchID, teamID string) ([]Assignment, error) {
	assignments, err := s.store.ListByTeam(ctx, matchID, teamID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list assignments")
	}
	return assignments, nil
}

func (s *Service) emit(ctx context.Context, action audit.Action, matchID, teamID, playerID string, detail map[string]string) {
	if s.auditor == nil {
		return
	}
	event := audit.Event{
		MatchID:  matchID,
		TeamID:   teamID,
		PlayerID: playerID,
		ActorID:  requestcontext.ActorID(ctx),
		Action:   action,
		Detail:   detail,
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "jersey audit emit failed", "action", action, "error", err)
	}
}
