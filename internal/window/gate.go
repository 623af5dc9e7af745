// Package window decides whether check-in admission is currently open for a
// match. Everything here is a pure function of (kickoff, now): nothing is
// persisted, so the answer is always consistent across devices and restarts.
package window

import "time"

// Phase is the admission window state for one instant.
type Phase string

const (
	PhaseNotOpen     Phase = "NOT_OPEN"
	PhaseOpen        Phase = "OPEN"
	PhaseClosingSoon Phase = "CLOSING_SOON"
	PhaseClosed      Phase = "CLOSED"
)

// Admits reports whether a check-in capture may start in this phase.
func (p Phase) Admits() bool {
	return p == PhaseOpen || p == PhaseClosingSoon
}

// Event is a calendar notification the gate can declare due. Each fires at
// most once per match; the caller supplies the fired-set.
type Event string

// Event names reflect the default window shape; with custom bounds the
// notifications still fire at window-open, halfway, and kickoff.
const (
	EventT30 Event = "T_MINUS_30" // window opens
	EventT15 Event = "T_MINUS_15" // halfway reminder
	EventT0  Event = "KICKOFF"    // kickoff, window now closing soon
)

// Gate holds the window shape around kickoff. The zero value is not valid;
// use Default or build one from config.
type Gate struct {
	OpensBefore time.Duration
	ClosesAfter time.Duration
}

// Default is the tournament-standard window: opens 30 minutes before
// kickoff, closes 15 minutes after.
func Default() Gate {
	return Gate{OpensBefore: 30 * time.Minute, ClosesAfter: 15 * time.Minute}
}

// Phase computes the admission phase at the given instant.
// OPEN holds for [kickoff−OpensBefore, kickoff); CLOSING_SOON for
// [kickoff, kickoff+ClosesAfter); NOT_OPEN before the window and CLOSED after.
func (g Gate) Phase(kickoffAt, now time.Time) Phase {
	opensAt := kickoffAt.Add(-g.OpensBefore)
	closesAt := kickoffAt.Add(g.ClosesAfter)
	switch {
	case now.Before(opensAt):
		return PhaseNotOpen
	case now.Before(kickoffAt):
		return PhaseOpen
	case now.Before(closesAt):
		return PhaseClosingSoon
	default:
		return PhaseClosed
	}
}

// TimeUntilOpen returns how long until the window opens, zero if it already
// has.
func (g Gate) TimeUntilOpen(kickoffAt, now time.Time) time.Duration {
	opensAt := kickoffAt.Add(-g.OpensBefore)
	if !now.Before(opensAt) {
		return 0
	}
	return opensAt.Sub(now)
}

// TimeUntilClose returns how long until the window closes, zero if it already
// has.
func (g Gate) TimeUntilClose(kickoffAt, now time.Time) time.Duration {
	closesAt := kickoffAt.Add(g.ClosesAfter)
	if !now.Before(closesAt) {
		return 0
	}
	return closesAt.Sub(now)
}

// FiredSet answers whether a given event was already fired for a match. The
// gate never records firing itself; persistence of the once-flag belongs to
// the caller so a poller crash cannot double-fire.
type FiredSet interface {
	Fired(event Event) bool
}

// DueEvents returns the events that should fire now, in calendar order,
// skipping any the fired-set already contains. A poller invoking this every
// few seconds therefore fires each event at most once, and late pollers catch
// up on missed events as long as the window has not closed.
//
// The schedule follows the gate bounds: window-open, halfway to kickoff,
// kickoff. Under the default gate that is T-30, T-15 and T-0.
func (g Gate) DueEvents(kickoffAt, now time.Time, fired FiredSet) []Event {
	if g.Phase(kickoffAt, now) == PhaseClosed {
		return nil
	}
	schedule := []struct {
		event Event
		at    time.Time
	}{
		{EventT30, kickoffAt.Add(-g.OpensBefore)},
		{EventT15, kickoffAt.Add(-g.OpensBefore / 2)},
		{EventT0, kickoffAt},
	}
	var due []Event
	for _, s := range schedule {
		if now.Before(s.at) {
			break
		}
		if fired != nil && fired.Fired(s.event) {
			continue
		}
		due = append(due, s.event)
	}
	return due
}
