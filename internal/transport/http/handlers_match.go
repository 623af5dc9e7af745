package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"matchgate/internal/match"
	"matchgate/internal/transport/http/shared"
	"matchgate/internal/window"
	dErrors "matchgate/pkg/domain-errors"
	"matchgate/pkg/requestcontext"
)

type scheduleMatchRequest struct {
	ID           string    `json:"id"`
	TournamentID string    `json:"tournament_id"`
	HomeTeamID   string    `json:"home_team_id"`
	AwayTeamID   string    `json:"away_team_id"`
	KickoffAt    time.Time `json:"kickoff_at"`
}

type matchResponse struct {
	ID           string    `json:"id"`
	TournamentID string    `json:"tournament_id,omitempty"`
	HomeTeamID   string    `json:"home_team_id"`
	AwayTeamID   string    `json:"away_team_id"`
	KickoffAt    time.Time `json:"kickoff_at"`
	Status       string    `json:"status"`
}

func toMatchResponse(m match.Match) matchResponse {
	return matchResponse{
		ID:           m.ID,
		TournamentID: m.TournamentID,
		HomeTeamID:   m.HomeTeamID,
		AwayTeamID:   m.AwayTeamID,
		KickoffAt:    m.KickoffAt,
		Status:       string(m.Status),
	}
}

func (h *Handler) handleScheduleMatch(w http.ResponseWriter, r *http.Request) {
	var req scheduleMatchRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	m, err := h.matches.Schedule(r.Context(), match.Match{
		ID:           req.ID,
		TournamentID: req.TournamentID,
		HomeTeamID:   req.HomeTeamID,
		AwayTeamID:   req.AwayTeamID,
		KickoffAt:    req.KickoffAt,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toMatchResponse(m))
}

func (h *Handler) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	m, err := h.matches.Get(r.Context(), chi.URLParam(r, "matchID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toMatchResponse(m))
}

type windowPhaseResponse struct {
	Phase string `json:"phase"`
	// Seconds until the phase boundary that matters next: opening when
	// NOT_OPEN, closing otherwise. Negative once closed.
	SecondsToBoundary int64 `json:"seconds_to_boundary"`
}

func (h *Handler) handleWindowPhase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	m, err := h.matches.Get(ctx, chi.URLParam(r, "matchID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	now := requestcontext.Now(ctx)
	phase := h.gate.Phase(m.KickoffAt, now)
	boundary := h.gate.TimeUntilClose(m.KickoffAt, now)
	if phase == window.PhaseNotOpen {
		boundary = h.gate.TimeUntilOpen(m.KickoffAt, now)
	}
	shared.WriteJSON(w, http.StatusOK, windowPhaseResponse{
		Phase:             string(phase),
		SecondsToBoundary: int64(boundary.Seconds()),
	})
}

func (h *Handler) handleFinalizeMatch(w http.ResponseWriter, r *http.Request) {
	if err := h.matches.Finalize(r.Context(), chi.URLParam(r, "matchID")); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleArchiveMatch(w http.ResponseWriter, r *http.Request) {
	if err := h.matches.Archive(r.Context(), chi.URLParam(r, "matchID")); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if h.auditor == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "audit trail not configured"))
		return
	}
	events, err := h.auditor.List(r.Context(), chi.URLParam(r, "matchID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}
