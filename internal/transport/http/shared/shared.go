// Package shared holds the JSON envelope helpers every handler uses, so the
// wire shape of errors and payloads stays uniform across features.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "matchgate/pkg/domain-errors"
)

// ErrorResponse is the wire shape of every error this API returns. Meta
// carries machine-actionable detail, e.g. the conflicting jersey holder.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// WriteError translates a domain error into its HTTP status and envelope.
// Unrecognized errors collapse to a 500 without leaking internals.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := ErrorResponse{
		Error:   string(code),
		Message: dErrors.MessageOf(err),
		Meta:    dErrors.MetaOf(err),
	}
	if code == dErrors.CodeInternal {
		resp.Message = "internal error"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteJSON writes a payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Decode parses a JSON request body into dst, rejecting unknown fields.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}
