package fraud

import "time"

// FlagStatus tracks the lifecycle of a fraud flag.
type FlagStatus string

const (
	StatusOpen      FlagStatus = "OPEN"
	StatusConfirmed FlagStatus = "CONFIRMED_FRAUD"
	StatusCleared   FlagStatus = "ADMIN_OVERRIDE_CLEARED"
)

// Flag records one failed or borderline field spot-check. The comparison
// basis is the stored check-in photo, so a flag asserts "the person on the
// field does not look like who checked in".
type Flag struct {
	ID      string
	MatchID string
	TeamID  string
	// RecordID points at the admitting CheckInRecord the check ran against.
	RecordID string
	PlayerID string
	// JerseyNumber is the number the player wore when the flag opened. Later
	// swaps do not rewrite it; nil when the player held no number.
	JerseyNumber   *int
	FreshPhotoRef  string
	FaceMatchScore float64
	LivenessScore  float64
	Status         FlagStatus
	OpenedBy       string
	OpenedAt       time.Time
	ResolvedBy     string
	ResolvedAt     *time.Time
	// Justification is required for an admin override clear. It is an audit
	// record, never a score recomputation.
	Justification string
}
