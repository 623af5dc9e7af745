package jersey

import "context"

// Store persists jersey assignments. Pure I/O; uniqueness inside one
// (matchID, teamID) scope is the one invariant stores enforce themselves,
// returning sentinel.ErrConflict when a number is already held.
type Store interface {
	// Put inserts an assignment. sentinel.ErrConflict if the number is held
	// by another player; replaces the player's own previous number if any.
	Put(ctx context.Context, a Assignment) error
	// Holder returns the assignment for a number; sentinel.ErrNotFound if free.
	Holder(ctx context.Context, matchID, teamID string, number int) (Assignment, error)
	// ByPlayer returns a player's assignment; sentinel.ErrNotFound if none.
	ByPlayer(ctx context.Context, matchID, teamID, playerID string) (Assignment, error)
	// ListByTeam returns all assignments for a scope, ordered by number.
	ListByTeam(ctx context.Context, matchID, teamID string) ([]Assignment, error)
	// SwapNumbers atomically exchanges the numbers of two players that both
	// hold one. Neither side commits on any failure.
	SwapNumbers(ctx context.Context, matchID, teamID, playerA, playerB string) error
	// Remove frees a player's number. sentinel.ErrNotFound if unassigned.
	Remove(ctx context.Context, matchID, teamID, playerID string) error
}
