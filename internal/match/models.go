package match

import "time"

// Status is the lifecycle of a match's shared check-in state. The state
// service is created when a match is scheduled and archived after results
// are final; archived matches reject every mutating operation.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusFinal     Status = "FINAL"
	StatusArchived  Status = "ARCHIVED"
)

// Match anchors all check-in state for one fixture.
type Match struct {
	ID           string
	TournamentID string
	HomeTeamID   string
	AwayTeamID   string
	KickoffAt    time.Time
	Status       Status
	CreatedAt    time.Time
}

// HasTeam reports whether teamID plays in this match.
func (m Match) HasTeam(teamID string) bool {
	return teamID == m.HomeTeamID || teamID == m.AwayTeamID
}
