package jersey

import "time"

// Assignment maps one jersey number to one player within a (match, team)
// scope. Numbers carry no meaning across matches.
type Assignment struct {
	MatchID    string
	TeamID     string
	PlayerID   string
	Number     int
	AssignedAt time.Time
}
