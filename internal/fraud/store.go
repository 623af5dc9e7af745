package fraud

import (
	"context"
	"time"
)

// Store persists fraud flags.
//
// Implementations translate persistence failures into sentinel errors:
// sentinel.ErrNotFound for a missing flag, sentinel.ErrConflict when a
// player already has an OPEN flag for the match, and
// sentinel.ErrAlreadyDecided when resolving a flag that is no longer OPEN.
type Store interface {
	Create(ctx context.Context, f Flag) error
	FindByID(ctx context.Context, id string) (Flag, error)
	// FindOpen returns the player's OPEN flag for the match, if any.
	FindOpen(ctx context.Context, matchID, playerID string) (Flag, error)
	ListByMatch(ctx context.Context, matchID string) ([]Flag, error)
	// Resolve moves an OPEN flag to a terminal status. Compare-and-swap: a
	// flag in any other status fails with sentinel.ErrAlreadyDecided.
	Resolve(ctx context.Context, flagID string, to FlagStatus, resolvedBy, justification string, at time.Time) (Flag, error)
}
