package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"matchgate/internal/checkin"
	"matchgate/internal/transport/http/shared"
)

type startSessionRequest struct {
	MatchID         string `json:"match_id"`
	TeamID          string `json:"team_id"`
	PlayerID        string `json:"player_id"`
	RequestedNumber int    `json:"requested_number,omitempty"`
}

type sessionResponse struct {
	ID           string `json:"id"`
	MatchID      string `json:"match_id"`
	TeamID       string `json:"team_id"`
	PlayerID     string `json:"player_id"`
	State        string `json:"state"`
	Decision     string `json:"decision,omitempty"`
	JerseyNumber *int   `json:"jersey_number,omitempty"`
}

func toSessionResponse(sess checkin.Session) sessionResponse {
	return sessionResponse{
		ID:           sess.ID,
		MatchID:      sess.MatchID,
		TeamID:       sess.TeamID,
		PlayerID:     sess.PlayerID,
		State:        string(sess.State),
		Decision:     string(sess.Outcome),
		JerseyNumber: sess.JerseyNumber,
	}
}

type captureRequest struct {
	CapturedPhotoRef string `json:"captured_photo_ref"`
}

type resultResponse struct {
	SessionID      string           `json:"session_id"`
	State          string           `json:"state"`
	Decision       string           `json:"decision"`
	FaceMatchScore float64          `json:"face_match_score"`
	LivenessScore  float64          `json:"liveness_score"`
	RecordID       string           `json:"record_id"`
	JerseyNumber   *int             `json:"jersey_number,omitempty"`
	Conflict       *conflictPayload `json:"conflict,omitempty"`
}

type conflictPayload struct {
	Number         int    `json:"number"`
	HolderPlayerID string `json:"holder_player_id"`
}

func toResultResponse(res checkin.Result) resultResponse {
	out := resultResponse{
		SessionID:      res.SessionID,
		State:          string(res.State),
		Decision:       string(res.Decision),
		FaceMatchScore: res.FaceMatchScore,
		LivenessScore:  res.LivenessScore,
		RecordID:       res.RecordID,
		JerseyNumber:   res.JerseyNumber,
	}
	if res.Conflict != nil {
		out.Conflict = &conflictPayload{
			Number:         res.Conflict.Number,
			HolderPlayerID: res.Conflict.HolderPlayerID,
		}
	}
	return out
}

func (h *Handler) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	sess, err := h.checkins.StartSession(r.Context(), req.MatchID, req.TeamID, req.PlayerID, req.RequestedNumber)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toSessionResponse(sess))
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.checkins.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toSessionResponse(sess))
}

func (h *Handler) handleCaptureAndScore(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	res, err := h.checkins.CaptureAndScore(r.Context(), chi.URLParam(r, "sessionID"), req.CapturedPhotoRef)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toResultResponse(res))
}

func (h *Handler) handleRetry(w http.ResponseWriter, r *http.Request) {
	sess, err := h.checkins.Retry(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toSessionResponse(sess))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	sess, err := h.checkins.Cancel(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toSessionResponse(sess))
}

type resolveJerseyRequest struct {
	// Number zero asks for the lowest free number.
	Number int `json:"number"`
}

func (h *Handler) handleResolveJersey(w http.ResponseWriter, r *http.Request) {
	var req resolveJerseyRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	res, err := h.checkins.ResolveJersey(r.Context(), chi.URLParam(r, "sessionID"), req.Number)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toResultResponse(res))
}

type recordResponse struct {
	ID             string     `json:"id"`
	MatchID        string     `json:"match_id"`
	TeamID         string     `json:"team_id"`
	PlayerID       string     `json:"player_id"`
	Decision       string     `json:"decision"`
	FaceMatchScore float64    `json:"face_match_score"`
	LivenessScore  float64    `json:"liveness_score"`
	JerseyNumber   *int       `json:"jersey_number,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ReviewedBy     string     `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
}

func toRecordResponse(rec checkin.Record) recordResponse {
	return recordResponse{
		ID:             rec.ID,
		MatchID:        rec.MatchID,
		TeamID:         rec.TeamID,
		PlayerID:       rec.PlayerID,
		Decision:       string(rec.Decision),
		FaceMatchScore: rec.FaceMatchScore,
		LivenessScore:  rec.LivenessScore,
		JerseyNumber:   rec.JerseyNumber,
		CreatedAt:      rec.CreatedAt,
		ReviewedBy:     rec.ReviewedBy,
		ReviewedAt:     rec.ReviewedAt,
	}
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.checkins.History(r.Context(), chi.URLParam(r, "matchID"), chi.URLParam(r, "playerID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]recordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toRecordResponse(rec))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"records": out})
}
