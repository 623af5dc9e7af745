// Package httpapi is the thin HTTP layer over the check-in engine. Handlers
// delegate to domain services without embedding business logic so transport
// concerns remain isolated.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"matchgate/internal/audit"
	"matchgate/internal/checkin"
	"matchgate/internal/fraud"
	"matchgate/internal/jersey"
	"matchgate/internal/match"
	"matchgate/internal/platform/metrics"
	"matchgate/internal/platform/middleware"
	"matchgate/internal/review"
	"matchgate/internal/window"
)

// Handler bundles the domain services the API fronts.
type Handler struct {
	logger   *slog.Logger
	matches  *match.Service
	checkins *checkin.Service
	jerseys  *jersey.Service
	frauds   *fraud.Service
	reviews  *review.Service
	auditor  *audit.Publisher
	metrics  *metrics.Metrics
	gate     window.Gate
}

// Option customizes a Handler.
type Option func(*Handler)

// WithGate sets the admission gate used to report window phases. Without it
// the handler runs with the default bounds.
func WithGate(g window.Gate) Option {
	return func(h *Handler) { h.gate = g }
}

func NewHandler(
	matches *match.Service,
	checkins *checkin.Service,
	jerseys *jersey.Service,
	frauds *fraud.Service,
	reviews *review.Service,
	auditor *audit.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	opts ...Option,
) *Handler {
	h := &Handler{
		logger:   logger,
		matches:  matches,
		checkins: checkins,
		jerseys:  jerseys,
		frauds:   frauds,
		reviews:  reviews,
		auditor:  auditor,
		metrics:  m,
		gate:     window.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewRouter wires all public endpoints behind the standard middleware chain.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Actor)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Latency(h.metrics))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)

		r.Post("/matches", h.handleScheduleMatch)
		r.Get("/matches/{matchID}", h.handleGetMatch)
		r.Get("/matches/{matchID}/window", h.handleWindowPhase)
		r.Post("/matches/{matchID}/finalize", h.handleFinalizeMatch)
		r.Post("/matches/{matchID}/archive", h.handleArchiveMatch)
		r.Get("/matches/{matchID}/audit", h.handleListAudit)

		r.Post("/check-ins", h.handleStartSession)
		r.Get("/check-ins/{sessionID}", h.handleGetSession)
		r.Post("/check-ins/{sessionID}/capture", h.handleCaptureAndScore)
		r.Post("/check-ins/{sessionID}/retry", h.handleRetry)
		r.Post("/check-ins/{sessionID}/cancel", h.handleCancel)
		r.Post("/check-ins/{sessionID}/jersey", h.handleResolveJersey)
		r.Get("/matches/{matchID}/players/{playerID}/check-ins", h.handleHistory)

		r.Post("/matches/{matchID}/teams/{teamID}/jerseys", h.handleAssignJersey)
		r.Get("/matches/{matchID}/teams/{teamID}/jerseys", h.handleListJerseys)
		r.Post("/matches/{matchID}/teams/{teamID}/jerseys/swap", h.handleSwapJerseys)
		r.Post("/matches/{matchID}/teams/{teamID}/jerseys/auto-assign", h.handleAutoAssignJerseys)
		r.Delete("/matches/{matchID}/teams/{teamID}/jerseys/{playerID}", h.handleReleaseJersey)

		r.Post("/matches/{matchID}/spot-checks", h.handleSpotCheck)
		r.Get("/matches/{matchID}/fraud-flags", h.handleListFraudFlags)
		r.Post("/fraud-flags/{flagID}/confirm", h.handleConfirmFraudFlag)
		r.Post("/fraud-flags/{flagID}/clear", h.handleClearFraudFlag)

		r.Get("/reviews/pending", h.handleListPendingReviews)
		r.Post("/reviews/{recordID}/adjudicate", h.handleAdjudicate)
	})

	return r
}
