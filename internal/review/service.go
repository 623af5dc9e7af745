// Package review is the human adjudication queue for borderline check-ins.
// Adjudication is an asynchronous actor mutating the same CheckInRecord the
// session persisted; it is idempotent at the store level, so a double-decide
// is always rejected rather than last-writer-wins.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"matchgate/internal/audit"
	"matchgate/internal/checkin"
	"matchgate/internal/jersey"
	dErrors "matchgate/pkg/domain-errors"
	"matchgate/pkg/platform/sentinel"
	"matchgate/pkg/requestcontext"
)

// Verdict is a reviewer's disposition of a borderline case.
type Verdict string

const (
	VerdictApprove Verdict = "APPROVE"
	VerdictReject  Verdict = "REJECT"
)

// Adjudication is the structured result of a decided case.
type Adjudication struct {
	Record checkin.Record
	// JerseyNumber is set when an approval allocated a number.
	JerseyNumber *int
}

type Service struct {
	records checkin.Store
	jerseys *jersey.Service
	auditor *audit.Publisher
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditor(auditor *audit.Publisher) Option {
	return func(s *Service) { s.auditor = auditor }
}

func NewService(records checkin.Store, jerseys *jersey.Service, opts ...Option) (*Service, error) {
	if records == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if jerseys == nil {
		return nil, fmt.Errorf("jersey service is required")
	}
	svc := &Service{
		records: records,
		jerseys: jerseys,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// ListPending returns undecided borderline records in scope, oldest first.
// Lock-free read.
func (s *Service) ListPending(ctx context.Context, scope checkin.Scope) ([]checkin.Record, error) {
	records, err := s.records.ListPending(ctx, scope)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending reviews")
	}
	return records, nil
}

// Adjudicate decides a borderline case. The store transition is
// compare-and-swap, so of two racing reviewers exactly one wins and the
// loser sees DuplicateAdjudication. An approval completes the admission by
// allocating the lowest free jersey number.
func (s *Service) Adjudicate(ctx context.Context, recordID string, verdict Verdict) (Adjudication, error) {
	var to checkin.Decision
	switch verdict {
	case VerdictApprove:
		to = checkin.DecisionBorderlineApproved
	case VerdictReject:
		to = checkin.DecisionBorderlineRejected
	default:
		return Adjudication{}, dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("unknown verdict %q", verdict))
	}

	reviewerID := requestcontext.ActorID(ctx)
	rec, err := s.records.Adjudicate(ctx, recordID, to, reviewerID, requestcontext.Now(ctx))
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return Adjudication{}, dErrors.New(dErrors.CodeNotFound, "check-in record not found")
		case errors.Is(err, sentinel.ErrAlreadyDecided):
			return Adjudication{}, dErrors.New(dErrors.CodeDuplicateAdjudication,
				"borderline case is already decided")
		default:
			return Adjudication{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to adjudicate")
		}
	}

	result := Adjudication{Record: rec}
	s.emit(ctx, rec, map[string]string{"verdict": string(verdict)})

	if verdict != VerdictApprove {
		return result, nil
	}

	assignment, err := s.jerseys.AssignNextFree(ctx, rec.MatchID, rec.TeamID, rec.PlayerID)
	if err != nil {
		// The approval stands; the jersey can be assigned manually.
		s.logger.ErrorContext(ctx, "approved review could not auto-assign jersey",
			"record_id", rec.ID, "error", err)
		return result, nil
	}
	if err := s.records.SetJerseyNumber(ctx, rec.ID, assignment.Number); err != nil {
		return Adjudication{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record jersey number")
	}
	number := assignment.Number
	result.Record.JerseyNumber = &number
	result.JerseyNumber = &number
	return result, nil
}

func (s *Service) emit(ctx context.Context, rec checkin.Record, detail map[string]string) {
	if s.auditor == nil {
		return
	}
	detail["record_id"] = rec.ID
	detail["face_match"] = strconv.FormatFloat(rec.FaceMatchScore, 'f', 1, 64)
	detail["liveness"] = strconv.FormatFloat(rec.LivenessScore, 'f', 1, 64)
	event := audit.Event{
		MatchID:  rec.MatchID,
		TeamID:   rec.TeamID,
		PlayerID: rec.PlayerID,
		ActorID:  requestcontext.ActorID(ctx),
		Action:   audit.ActionAdjudicated,
		Detail:   detail,
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", string(audit.ActionAdjudicated), "error", err)
	}
}
