// Package domainerrors defines the typed error taxonomy of the check-in
// engine. Every operation on the control surface returns one of these codes
// rather than a bare boolean or an opaque failure, because each code carries
// information the caller must act on differently: a closed window means wait,
// an unavailable oracle means re-capture and try again, a jersey conflict
// means offer a swap.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a category of domain error.
type Code string

const (
	// CodeWindowClosed: admission attempted outside the open window.
	// Recoverable only by waiting (or an upstream admin override), never
	// retried automatically.
	CodeWindowClosed Code = "window_closed"
	// CodeScoringUnavailable: transient oracle failure. Safe to retry, but
	// the engine never retries on its own; each retry is a caller decision.
	CodeScoringUnavailable Code = "scoring_unavailable"
	// CodeNoFaceDetected: the captured photo is unusable; re-capture.
	CodeNoFaceDetected Code = "no_face_detected"
	// CodeJerseyConflict: requested number already held. The conflicting
	// player travels in the error so the caller can offer a swap.
	CodeJerseyConflict Code = "jersey_conflict"
	// CodeDuplicateAdjudication: a borderline case was already decided.
	CodeDuplicateAdjudication Code = "duplicate_adjudication"
	// CodeTeamBlocked: team eligibility gate denies the attempt before capture.
	CodeTeamBlocked Code = "team_blocked"
	// CodeUnknownCheckIn: spot-check against a player with no admitting record.
	CodeUnknownCheckIn Code = "unknown_checkin"

	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeNotFound     Code = "not_found"
	CodeInvalidState Code = "invalid_state"
	CodeInternal     Code = "internal"
)

// Error couples a code with a human-readable message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Meta    map[string]string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// WithMeta annotates the error with a key/value pair (e.g. the conflicting
// player on a jersey conflict) and returns the same error for chaining.
func (e *Error) WithMeta(key, value string) *Error {
	if e.Meta == nil {
		e.Meta = make(map[string]string)
	}
	e.Meta[key] = value
	return e
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the human-readable message, falling back to Error().
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

// MetaOf extracts error metadata, if any.
func MetaOf(err error) map[string]string {
	var de *Error
	if errors.As(err, &de) {
		return de.Meta
	}
	return nil
}

// ToHTTPStatus maps a domain error code to an HTTP status for the transport
// layer. Decision outcomes (denied, borderline) are not errors and never pass
// through here.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeNoFaceDetected:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeTeamBlocked:
		return http.StatusForbidden
	case CodeNotFound, CodeUnknownCheckIn:
		return http.StatusNotFound
	case CodeJerseyConflict, CodeDuplicateAdjudication, CodeInvalidState, CodeWindowClosed:
		return http.StatusConflict
	case CodeScoringUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
