package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"matchgate/internal/fraud"
	"matchgate/internal/transport/http/shared"
	dErrors "matchgate/pkg/domain-errors"
)

type spotCheckRequest struct {
	PlayerID      string `json:"player_id"`
	FreshPhotoRef string `json:"fresh_photo_ref"`
}

type spotCheckResponse struct {
	Outcome        string        `json:"outcome"`
	Cleared        bool          `json:"cleared"`
	FaceMatchScore float64       `json:"face_match_score"`
	LivenessScore  float64       `json:"liveness_score"`
	Flag           *flagResponse `json:"flag,omitempty"`
}

type flagResponse struct {
	ID             string     `json:"id"`
	MatchID        string     `json:"match_id"`
	PlayerID       string     `json:"player_id"`
	RecordID       string     `json:"record_id"`
	JerseyNumber   *int       `json:"jersey_number,omitempty"`
	Status         string     `json:"status"`
	FaceMatchScore float64    `json:"face_match_score"`
	LivenessScore  float64    `json:"liveness_score"`
	OpenedAt       time.Time  `json:"opened_at"`
	ResolvedBy     string     `json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	Justification  string     `json:"justification,omitempty"`
}

func toFlagResponse(f fraud.Flag) flagResponse {
	return flagResponse{
		ID:             f.ID,
		MatchID:        f.MatchID,
		PlayerID:       f.PlayerID,
		RecordID:       f.RecordID,
		JerseyNumber:   f.JerseyNumber,
		Status:         string(f.Status),
		FaceMatchScore: f.FaceMatchScore,
		LivenessScore:  f.LivenessScore,
		OpenedAt:       f.OpenedAt,
		ResolvedBy:     f.ResolvedBy,
		ResolvedAt:     f.ResolvedAt,
		Justification:  f.Justification,
	}
}

func (h *Handler) handleSpotCheck(w http.ResponseWriter, r *http.Request) {
	var req spotCheckRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	result, err := h.frauds.SpotCheck(r.Context(), chi.URLParam(r, "matchID"), req.PlayerID, req.FreshPhotoRef)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	resp := spotCheckResponse{
		Outcome:        string(result.Outcome),
		Cleared:        result.Cleared(),
		FaceMatchScore: result.FaceMatchScore,
		LivenessScore:  result.LivenessScore,
	}
	if result.Flag != nil {
		flag := toFlagResponse(*result.Flag)
		resp.Flag = &flag
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListFraudFlags(w http.ResponseWriter, r *http.Request) {
	flags, err := h.frauds.ListByMatch(r.Context(), chi.URLParam(r, "matchID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]flagResponse, 0, len(flags))
	for _, f := range flags {
		out = append(out, toFlagResponse(f))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"flags": out})
}

func (h *Handler) handleConfirmFraudFlag(w http.ResponseWriter, r *http.Request) {
	flag, err := h.frauds.Confirm(r.Context(), chi.URLParam(r, "flagID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toFlagResponse(flag))
}

type clearFlagRequest struct {
	Justification string `json:"justification"`
}

func (h *Handler) handleClearFraudFlag(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "override token is required"))
		return
	}
	var req clearFlagRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	flag, err := h.frauds.Clear(r.Context(), chi.URLParam(r, "flagID"), token, req.Justification)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toFlagResponse(flag))
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}
