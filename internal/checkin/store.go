package checkin

import (
	"context"
	"time"
)

// Scope filters pending-review listings. Exactly one field should be set.
type Scope struct {
	MatchID      string
	TournamentID string
}

// Store persists check-in records.
//
// Implementations translate persistence failures into sentinel errors:
// sentinel.ErrNotFound when a record does not exist, sentinel.ErrConflict
// when creating an admitting record for a (player, match) that already has
// one, and sentinel.ErrAlreadyDecided when adjudicating a record that left
// BORDERLINE_PENDING.
type Store interface {
	Create(ctx context.Context, r Record) error
	FindByID(ctx context.Context, id string) (Record, error)
	// FindAdmitting returns the single admitting record for the player in
	// the match, if one exists.
	FindAdmitting(ctx context.Context, matchID, playerID string) (Record, error)
	ListByPlayer(ctx context.Context, matchID, playerID string) ([]Record, error)
	// ListPending returns BORDERLINE_PENDING records in scope, oldest first.
	ListPending(ctx context.Context, scope Scope) ([]Record, error)
	SetJerseyNumber(ctx context.Context, recordID string, number int) error
	// Adjudicate moves a record from BORDERLINE_PENDING to the given terminal
	// decision. The transition is compare-and-swap: a record in any other
	// state fails with sentinel.ErrAlreadyDecided.
	Adjudicate(ctx context.Context, recordID string, to Decision, reviewerID string, at time.Time) (Record, error)
}
