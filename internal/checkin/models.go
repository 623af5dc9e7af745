package checkin

import "time"

// Decision is the persisted admission outcome on a CheckInRecord. The two
// borderline terminal values exist so "who decided this and when" has a
// single durable source of truth.
type Decision string

const (
	DecisionApproved           Decision = "APPROVED"
	DecisionDenied             Decision = "DENIED"
	DecisionBorderlinePending  Decision = "BORDERLINE_PENDING"
	DecisionBorderlineApproved Decision = "BORDERLINE_APPROVED"
	DecisionBorderlineRejected Decision = "BORDERLINE_REJECTED"
)

// Admits reports whether the decision admits the player to play.
func (d Decision) Admits() bool {
	return d == DecisionApproved || d == DecisionBorderlineApproved
}

// Record is one admission event for a (player, match). Repeated attempts
// after a denial create new records; history is never overwritten. A player
// has at most one admitting record per match.
type Record struct {
	ID               string
	MatchID          string
	TournamentID     string
	TeamID           string
	PlayerID         string
	CapturedPhotoRef string
	FaceMatchScore   float64
	LivenessScore    float64
	Decision         Decision
	JerseyNumber     *int
	CreatedAt        time.Time
	ReviewedBy       string
	ReviewedAt       *time.Time
}

// State is the position of an in-flight check-in session.
type State string

const (
	StateAwaitingPlayer State = "AWAITING_PLAYER_SELECTION"
	StateCapturing      State = "CAPTURING"
	StateScoring        State = "SCORING"
	StateDecided        State = "DECIDED"
	StateJerseyPending  State = "JERSEY_PENDING"
	StateComplete       State = "COMPLETE"
	StateCancelled      State = "CANCELLED"
)

// Terminal reports whether the session can no longer move.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateCancelled
}

// Session is the in-flight orchestration of one check-in attempt. It is
// ephemeral by design: the durable artifact is the Record, and a crashed
// device simply starts a new session.
type Session struct {
	ID       string
	MatchID  string
	TeamID   string
	PlayerID string
	// RequestedNumber, when non-zero, is tried before auto-assignment.
	RequestedNumber int
	State           State
	// Outcome of the last completed scoring pass, if any.
	Outcome  Decision
	RecordID string
	// JerseyNumber is set once the approval path assigned one.
	JerseyNumber *int
	CreatedAt    time.Time

	// cancelRequested marks a cancel that arrived mid-scoring. The eventual
	// score is still recorded for the audit trail but no jersey is assigned.
	cancelRequested bool
}
