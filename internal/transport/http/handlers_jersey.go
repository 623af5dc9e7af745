package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"matchgate/internal/jersey"
	"matchgate/internal/transport/http/shared"
)

type assignJerseyRequest struct {
	PlayerID string `json:"player_id"`
	Number   int    `json:"number"`
}

type assignmentResponse struct {
	MatchID  string `json:"match_id"`
	TeamID   string `json:"team_id"`
	PlayerID string `json:"player_id"`
	Number   int    `json:"number"`
}

func toAssignmentResponse(a jersey.Assignment) assignmentResponse {
	return assignmentResponse{
		MatchID:  a.MatchID,
		TeamID:   a.TeamID,
		PlayerID: a.PlayerID,
		Number:   a.Number,
	}
}

func (h *Handler) handleAssignJersey(w http.ResponseWriter, r *http.Request) {
	var req assignJerseyRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	a, err := h.jerseys.Assign(r.Context(), chi.URLParam(r, "matchID"), chi.URLParam(r, "teamID"), req.PlayerID, req.Number)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toAssignmentResponse(a))
}

type swapJerseyRequest struct {
	PlayerA string `json:"player_a"`
	PlayerB string `json:"player_b"`
}

func (h *Handler) handleSwapJerseys(w http.ResponseWriter, r *http.Request) {
	var req swapJerseyRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	err := h.jerseys.Swap(r.Context(), chi.URLParam(r, "matchID"), chi.URLParam(r, "teamID"), req.PlayerA, req.PlayerB)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAutoAssignJerseys(w http.ResponseWriter, r *http.Request) {
	created, err := h.jerseys.AutoAssign(r.Context(), chi.URLParam(r, "matchID"), chi.URLParam(r, "teamID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]assignmentResponse, 0, len(created))
	for _, a := range created {
		out = append(out, toAssignmentResponse(a))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"assignments": out})
}

func (h *Handler) handleListJerseys(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.jerseys.ListByTeam(r.Context(), chi.URLParam(r, "matchID"), chi.URLParam(r, "teamID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]assignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, toAssignmentResponse(a))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"assignments": out})
}

func (h *Handler) handleReleaseJersey(w http.ResponseWriter, r *http.Request) {
	err := h.jerseys.Release(r.Context(), chi.URLParam(r, "matchID"), chi.URLParam(r, "teamID"), chi.URLParam(r, "playerID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
