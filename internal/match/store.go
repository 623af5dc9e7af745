package match

import "context"

// Store persists matches. Implementations return sentinel.ErrNotFound for
// unknown IDs and sentinel.ErrConflict for duplicate creation.
type Store interface {
	Create(ctx context.Context, m Match) error
	FindByID(ctx context.Context, matchID string) (Match, error)
	ListByStatus(ctx context.Context, status Status) ([]Match, error)
	UpdateStatus(ctx context.Context, matchID string, status Status) error
}
