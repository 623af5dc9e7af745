package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the check-in module.
type Metrics struct {
	// Sessions started, by outcome of the start attempt
	SessionsStarted *prometheus.CounterVec

	// Persisted admission decisions
	Decisions *prometheus.CounterVec

	// Scoring oracle round-trip latency
	ScoringLatency prometheus.Histogram

	// Cancellations by the session state they arrived in
	Cancellations *prometheus.CounterVec

	// Jersey conflicts hit on the approval path
	JerseyConflicts prometheus.Counter
}

// New creates a new Metrics instance with all check-in module metrics registered.
func New() *Metrics {
	return &Metrics{
		SessionsStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "matchgate_checkin_sessions_started_total",
			Help: "Total check-in session start attempts by result",
		}, []string{"result"}), // result: "started", "window_closed", "team_blocked", "rejected"

		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "matchgate_checkin_decisions_total",
			Help: "Total persisted admission decisions by value",
		}, []string{"decision"}),

		ScoringLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "matchgate_checkin_scoring_duration_seconds",
			Help:    "Duration of identity scoring calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		Cancellations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "matchgate_checkin_cancellations_total",
			Help: "Total session cancellations by the state cancelled from",
		}, []string{"state"}),

		JerseyConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "matchgate_checkin_jersey_conflicts_total",
			Help: "Total jersey number conflicts hit while completing an approved check-in",
		}),
	}
}

// IncrementStarted records the result of a session start attempt.
func (m *Metrics) IncrementStarted(result string) {
	if m != nil {
		m.SessionsStarted.WithLabelValues(result).Inc()
	}
}

// IncrementDecision records a persisted admission decision.
func (m *Metrics) IncrementDecision(decision string) {
	if m != nil {
		m.Decisions.WithLabelValues(decision).Inc()
	}
}

// ObserveScoringLatency records the duration of one scoring call.
func (m *Metrics) ObserveScoringLatency(d time.Duration) {
	if m != nil {
		m.ScoringLatency.Observe(d.Seconds())
	}
}

// IncrementCancelled records a cancellation and the state it interrupted.
func (m *Metrics) IncrementCancelled(state string) {
	if m != nil {
		m.Cancellations.WithLabelValues(state).Inc()
	}
}

// IncrementJerseyConflict records a jersey conflict on the approval path.
func (m *Metrics) IncrementJerseyConflict() {
	if m != nil {
		m.JerseyConflicts.Inc()
	}
}
