package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the fraud module.
type Metrics struct {
	// Spot-checks run, by outcome
	SpotChecks *prometheus.CounterVec

	// Flag resolutions, by terminal status
	Resolutions *prometheus.CounterVec
}

// New creates a new Metrics instance with all fraud module metrics registered.
func New() *Metrics {
	return &Metrics{
		SpotChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "matchgate_fraud_spot_checks_total",
			Help: "Total field spot-checks by outcome",
		}, []string{"outcome"}), // outcome: "cleared", "flagged", "error"

		Resolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "matchgate_fraud_flag_resolutions_total",
			Help: "Total fraud flag resolutions by terminal status",
		}, []string{"status"}),
	}
}

// IncrementSpotCheck records one spot-check outcome.
func (m *Metrics) IncrementSpotCheck(outcome string) {
	if m != nil {
		m.SpotChecks.WithLabelValues(outcome).Inc()
	}
}

// IncrementResolution records one flag resolution.
func (m *Metrics) IncrementResolution(status string) {
	if m != nil {
		m.Resolutions.WithLabelValues(status).Inc()
	}
}
