package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"matchgate/internal/checkin"
	"matchgate/internal/review"
	"matchgate/internal/transport/http/shared"
	dErrors "matchgate/pkg/domain-errors"
)

func (h *Handler) handleListPendingReviews(w http.ResponseWriter, r *http.Request) {
	scope := checkin.Scope{
		MatchID:      r.URL.Query().Get("match_id"),
		TournamentID: r.URL.Query().Get("tournament_id"),
	}
	if scope.MatchID == "" && scope.TournamentID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "match_id or tournament_id is required"))
		return
	}
	pending, err := h.reviews.ListPending(r.Context(), scope)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]recordResponse, 0, len(pending))
	for _, rec := range pending {
		out = append(out, toRecordResponse(rec))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"pending": out})
}

type adjudicateRequest struct {
	Verdict string `json:"verdict"`
}

type adjudicationResponse struct {
	Record       recordResponse `json:"record"`
	JerseyNumber *int           `json:"jersey_number,omitempty"`
}

func (h *Handler) handleAdjudicate(w http.ResponseWriter, r *http.Request) {
	var req adjudicateRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	result, err := h.reviews.Adjudicate(r.Context(), chi.URLParam(r, "recordID"), review.Verdict(req.Verdict))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, adjudicationResponse{
		Record:       toRecordResponse(result.Record),
		JerseyNumber: result.JerseyNumber,
	})
}
