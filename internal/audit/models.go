package audit

import "time"

// Action names one auditable engine event.
type Action string

const (
	ActionCheckInApproved    Action = "checkin_approved"
	ActionCheckInDenied      Action = "checkin_denied"
	ActionCheckInBorderline  Action = "checkin_borderline"
	ActionCheckInCancelled   Action = "checkin_cancelled"
	ActionJerseyAssigned     Action = "jersey_assigned"
	ActionJerseySwapped      Action = "jersey_swapped"
	ActionJerseyReleased     Action = "jersey_released"
	ActionFraudFlagOpened    Action = "fraud_flag_opened"
	ActionFraudFlagConfirmed Action = "fraud_flag_confirmed"
	ActionFraudFlagCleared   Action = "fraud_flag_cleared"
	ActionAdjudicated        Action = "review_adjudicated"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string
	Timestamp time.Time
	MatchID   string
	TeamID    string
	PlayerID  string
	ActorID   string
	Action    Action
	Detail    map[string]string
}
