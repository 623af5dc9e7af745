package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kickoff = time.Date(2026, time.June, 6, 15, 0, 0, 0, time.UTC)

func TestGate_Phase(t *testing.T) {
	g := Default()

	tests := []struct {
		name string
		now  time.Time
		want Phase
	}{
		{"well before window", kickoff.Add(-2 * time.Hour), PhaseNotOpen},
		{"31 minutes before kickoff", kickoff.Add(-31 * time.Minute), PhaseNotOpen},
		{"exactly at open boundary", kickoff.Add(-30 * time.Minute), PhaseOpen},
		{"29 minutes before kickoff", kickoff.Add(-29 * time.Minute), PhaseOpen},
		{"one second before kickoff", kickoff.Add(-time.Second), PhaseOpen},
		{"exactly at kickoff", kickoff, PhaseClosingSoon},
		{"10 minutes after kickoff", kickoff.Add(10 * time.Minute), PhaseClosingSoon},
		{"one second before close", kickoff.Add(15*time.Minute - time.Second), PhaseClosingSoon},
		{"exactly at close boundary", kickoff.Add(15 * time.Minute), PhaseClosed},
		{"16 minutes after kickoff", kickoff.Add(16 * time.Minute), PhaseClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Phase(kickoff, tt.now))
		})
	}
}

func TestPhase_Admits(t *testing.T) {
	assert.False(t, PhaseNotOpen.Admits())
	assert.True(t, PhaseOpen.Admits())
	assert.True(t, PhaseClosingSoon.Admits())
	assert.False(t, PhaseClosed.Admits())
}

func TestGate_TimeUntil(t *testing.T) {
	g := Default()

	t.Run("before window", func(t *testing.T) {
		now := kickoff.Add(-45 * time.Minute)
		assert.Equal(t, 15*time.Minute, g.TimeUntilOpen(kickoff, now))
		assert.Equal(t, time.Hour, g.TimeUntilClose(kickoff, now))
	})

	t.Run("inside window", func(t *testing.T) {
		now := kickoff.Add(-10 * time.Minute)
		assert.Equal(t, time.Duration(0), g.TimeUntilOpen(kickoff, now))
		assert.Equal(t, 25*time.Minute, g.TimeUntilClose(kickoff, now))
	})

	t.Run("after close", func(t *testing.T) {
		now := kickoff.Add(20 * time.Minute)
		assert.Equal(t, time.Duration(0), g.TimeUntilOpen(kickoff, now))
		assert.Equal(t, time.Duration(0), g.TimeUntilClose(kickoff, now))
	})
}

type firedSet map[Event]bool

func (f firedSet) Fired(e Event) bool { return f[e] }

func TestGate_DueEvents(t *testing.T) {
	g := Default()

	t.Run("nothing due before T-30", func(t *testing.T) {
		due := g.DueEvents(kickoff, kickoff.Add(-31*time.Minute), firedSet{})
		assert.Empty(t, due)
	})

	t.Run("T-30 due at the open boundary", func(t *testing.T) {
		due := g.DueEvents(kickoff, kickoff.Add(-30*time.Minute), firedSet{})
		assert.Equal(t, []Event{EventT30}, due)
	})

	t.Run("already fired events are skipped", func(t *testing.T) {
		due := g.DueEvents(kickoff, kickoff.Add(-20*time.Minute), firedSet{EventT30: true})
		assert.Empty(t, due)
	})

	t.Run("late poller catches up in calendar order", func(t *testing.T) {
		due := g.DueEvents(kickoff, kickoff.Add(time.Minute), firedSet{})
		require.Len(t, due, 3)
		assert.Equal(t, []Event{EventT30, EventT15, EventT0}, due)
	})

	t.Run("partial fired set only returns the gap", func(t *testing.T) {
		due := g.DueEvents(kickoff, kickoff.Add(time.Minute), firedSet{EventT30: true, EventT0: true})
		assert.Equal(t, []Event{EventT15}, due)
	})

	t.Run("nothing fires after the window closes", func(t *testing.T) {
		due := g.DueEvents(kickoff, kickoff.Add(16*time.Minute), firedSet{})
		assert.Empty(t, due)
	})

	t.Run("schedule follows custom gate bounds", func(t *testing.T) {
		tight := Gate{OpensBefore: 10 * time.Minute, ClosesAfter: 5 * time.Minute}

		due := tight.DueEvents(kickoff, kickoff.Add(-11*time.Minute), firedSet{})
		assert.Empty(t, due)

		due = tight.DueEvents(kickoff, kickoff.Add(-10*time.Minute), firedSet{})
		assert.Equal(t, []Event{EventT30}, due)

		// Halfway reminder lands at the midpoint of the open half.
		due = tight.DueEvents(kickoff, kickoff.Add(-5*time.Minute), firedSet{EventT30: true})
		assert.Equal(t, []Event{EventT15}, due)
	})

	t.Run("repeated polling never double-fires", func(t *testing.T) {
		fired := firedSet{}
		count := 0
		for offset := -35 * time.Minute; offset <= 14*time.Minute; offset += time.Minute {
			for _, e := range g.DueEvents(kickoff, kickoff.Add(offset), fired) {
				fired[e] = true
				count++
			}
		}
		assert.Equal(t, 3, count)
	})
}
