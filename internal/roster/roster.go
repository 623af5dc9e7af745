// Package roster defines the ports to the roster/eligibility collaborators.
// The check-in engine consumes roster membership and team block status as
// read-only inputs; it never mutates them. Production implementations live in
// the host application, the in-memory ones here serve tests and dev seeding.
package roster

import "context"

// Player is one eligible roster member for a (match, team).
type Player struct {
	ID                string
	FullName          string
	ReferencePhotoRef string
}

// Provider supplies the eligible players and their on-file reference photos.
type Provider interface {
	EligiblePlayers(ctx context.Context, matchID, teamID string) ([]Player, error)
	// Player resolves one roster member; sentinel.ErrNotFound when the player
	// is not on the roster for that match/team.
	Player(ctx context.Context, matchID, teamID, playerID string) (Player, error)
}

// TeamEligibility answers whether a team is currently blocked (unpaid fines,
// suspension). Blocked teams fail check-in fast, before any photo capture.
type TeamEligibility interface {
	IsBlocked(ctx context.Context, teamID string) (bool, error)
}
