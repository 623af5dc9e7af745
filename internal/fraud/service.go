// Package fraud re-verifies players on the field against their check-in
// photo. A failed or borderline comparison opens a FraudFlag; clearing one is
// an admin override with a recorded justification, never a recomputation.
package fraud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"matchgate/internal/audit"
	"matchgate/internal/checkin"
	"matchgate/internal/decision"
	"matchgate/internal/fraud/metrics"
	"matchgate/internal/jersey"
	"matchgate/internal/match"
	"matchgate/internal/scoring"
	dErrors "matchgate/pkg/domain-errors"
	"matchgate/pkg/platform/sentinel"
	"matchgate/pkg/requestcontext"
)

// SpotCheckResult is the structured outcome of one field check. A flagged
// player is a decision, not an error.
type SpotCheckResult struct {
	Outcome        decision.Outcome
	FaceMatchScore float64
	LivenessScore  float64
	// Flag is set when the check opened (or joined) an OPEN flag.
	Flag *Flag
}

// Cleared reports whether the check passed with no flag.
func (r SpotCheckResult) Cleared() bool { return r.Flag == nil }

type Service struct {
	flags      Store
	records    checkin.Store
	matches    *match.Service
	jerseys    *jersey.Service
	gateway    scoring.Gateway
	thresholds decision.Thresholds
	authorizer *Authorizer
	auditor    *audit.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditor(auditor *audit.Publisher) Option {
	return func(s *Service) { s.auditor = auditor }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(
	flags Store,
	records checkin.Store,
	matches *match.Service,
	jerseys *jersey.Service,
	gateway scoring.Gateway,
	thresholds decision.Thresholds,
	authorizer *Authorizer,
	opts ...Option,
) (*Service, error) {
	if flags == nil {
		return nil, fmt.Errorf("flag store is required")
	}
	if records == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if matches == nil {
		return nil, fmt.Errorf("match service is required")
	}
	if jerseys == nil {
		return nil, fmt.Errorf("jersey service is required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("scoring gateway is required")
	}
	if authorizer == nil {
		return nil, fmt.Errorf("authorizer is required")
	}
	if err := thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}
	svc := &Service{
		flags:      flags,
		records:    records,
		matches:    matches,
		jerseys:    jerseys,
		gateway:    gateway,
		thresholds: thresholds,
		authorizer: authorizer,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// SpotCheck scores a fresh field photo against the player's stored check-in
// photo. A player with no admitting record is a roster-integrity problem and
// surfaces as UnknownCheckIn, distinct from any scoring outcome. The oracle
// call runs with no locks held.
func (s *Service) SpotCheck(ctx context.Context, matchID, playerID, freshPhotoRef string) (SpotCheckResult, error) {
	if _, err := s.matches.Active(ctx, matchID); err != nil {
		s.metrics.IncrementSpotCheck("error")
		return SpotCheckResult{}, err
	}
	rec, err := s.records.FindAdmitting(ctx, matchID, playerID)
	if err != nil {
		s.metrics.IncrementSpotCheck("error")
		if errors.Is(err, sentinel.ErrNotFound) {
			return SpotCheckResult{}, dErrors.New(dErrors.CodeUnknownCheckIn,
				"player has no admitting check-in for this match")
		}
		return SpotCheckResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load check-in record")
	}

	// The comparison basis is "does this person match who checked in", so
	// the reference is the captured check-in photo, not the enrolled one.
	pair, err := s.gateway.Score(ctx, rec.CapturedPhotoRef, freshPhotoRef)
	if err != nil {
		s.metrics.IncrementSpotCheck("error")
		return SpotCheckResult{}, err
	}

	result := SpotCheckResult{
		Outcome:        s.thresholds.Decide(pair.FaceMatch, pair.Liveness),
		FaceMatchScore: pair.FaceMatch,
		LivenessScore:  pair.Liveness,
	}
	if result.Outcome == decision.Approved {
		s.metrics.IncrementSpotCheck("cleared")
		return result, nil
	}

	// No silent pass-through: every non-approved outcome opens a flag.
	flag, err := s.openFlag(ctx, rec, freshPhotoRef, pair)
	if err != nil {
		s.metrics.IncrementSpotCheck("error")
		return SpotCheckResult{}, err
	}
	result.Flag = &flag
	s.metrics.IncrementSpotCheck("flagged")
	return result, nil
}

// openFlag creates an OPEN flag under the match-team lock. A concurrent
// spot-check that already opened one wins; this check joins it.
func (s *Service) openFlag(ctx context.Context, rec checkin.Record, freshPhotoRef string, pair scoring.Pair) (Flag, error) {
	// Snapshot the number the player is wearing right now. The record's
	// check-in number can be stale after a swap.
	var worn *int
	switch number, err := s.jerseys.NumberOf(ctx, rec.MatchID, rec.TeamID, rec.PlayerID); {
	case err == nil:
		worn = &number
	case dErrors.Is(err, dErrors.CodeNotFound):
		// Player holds no number; the flag records that as-is.
	default:
		return Flag{}, err
	}

	flag := Flag{
		ID:             uuid.New().String(),
		MatchID:        rec.MatchID,
		TeamID:         rec.TeamID,
		RecordID:       rec.ID,
		PlayerID:       rec.PlayerID,
		JerseyNumber:   worn,
		FreshPhotoRef:  freshPhotoRef,
		FaceMatchScore: pair.FaceMatch,
		LivenessScore:  pair.Liveness,
		Status:         StatusOpen,
		OpenedBy:       requestcontext.ActorID(ctx),
		OpenedAt:       requestcontext.Now(ctx),
	}

	unlock := s.matches.LockTeam(rec.MatchID, rec.TeamID)
	defer unlock()

	if err := s.flags.Create(ctx, flag); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			existing, findErr := s.flags.FindOpen(ctx, rec.MatchID, rec.PlayerID)
			if findErr != nil {
				return Flag{}, dErrors.Wrap(findErr, dErrors.CodeInternal, "failed to load existing flag")
			}
			return existing, nil
		}
		return Flag{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to open fraud flag")
	}

	s.emit(ctx, audit.ActionFraudFlagOpened, flag, map[string]string{
		"face_match": strconv.FormatFloat(pair.FaceMatch, 'f', 1, 64),
		"liveness":   strconv.FormatFloat(pair.Liveness, 'f', 1, 64),
	})
	return flag, nil
}

// Confirm marks an OPEN flag as confirmed fraud.
func (s *Service) Confirm(ctx context.Context, flagID string) (Flag, error) {
	flag, err := s.flags.Resolve(ctx, flagID, StatusConfirmed, requestcontext.ActorID(ctx), "", requestcontext.Now(ctx))
	if err != nil {
		return Flag{}, s.resolveError(err)
	}
	s.metrics.IncrementResolution(string(StatusConfirmed))
	s.emit(ctx, audit.ActionFraudFlagConfirmed, flag, nil)
	return flag, nil
}

// Clear resolves an OPEN flag by admin override. The token must authorize an
// admin and a non-empty justification is recorded on the flag.
func (s *Service) Clear(ctx context.Context, flagID, token, justification string) (Flag, error) {
	adminID, err := s.authorizer.Authorize(token)
	if err != nil {
		return Flag{}, err
	}
	if justification == "" {
		return Flag{}, dErrors.New(dErrors.CodeBadRequest, "override justification is required")
	}

	flag, err := s.Get(ctx, flagID)
	if err != nil {
		return Flag{}, err
	}
	if flag.Status != StatusOpen {
		return Flag{}, dErrors.New(dErrors.CodeInvalidState, "fraud flag is already resolved")
	}

	// The audit append is part of the override itself: if it fails, the
	// flag stays OPEN.
	if err := s.emitStrict(ctx, audit.ActionFraudFlagCleared, flag, map[string]string{
		"admin_id":      adminID,
		"justification": justification,
	}); err != nil {
		return Flag{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record override audit event")
	}

	flag, err = s.flags.Resolve(ctx, flagID, StatusCleared, adminID, justification, requestcontext.Now(ctx))
	if err != nil {
		return Flag{}, s.resolveError(err)
	}
	s.metrics.IncrementResolution(string(StatusCleared))
	return flag, nil
}

// Get returns one flag.
func (s *Service) Get(ctx context.Context, flagID string) (Flag, error) {
	flag, err := s.flags.FindByID(ctx, flagID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Flag{}, dErrors.New(dErrors.CodeNotFound, "fraud flag not found")
		}
		return Flag{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load fraud flag")
	}
	return flag, nil
}

// ListByMatch returns all flags raised in a match, oldest first.
func (s *Service) ListByMatch(ctx context.Context, matchID string) ([]Flag, error) {
	flags, err := s.flags.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list fraud flags")
	}
	return flags, nil
}

func (s *Service) resolveError(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "fraud flag not found")
	case errors.Is(err, sentinel.ErrAlreadyDecided):
		return dErrors.New(dErrors.CodeInvalidState, "fraud flag is already resolved")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve fraud flag")
	}
}

func (s *Service) emit(ctx context.Context, action audit.Action, flag Flag, detail map[string]string) {
	if err := s.emitStrict(ctx, action, flag, detail); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", string(action), "error", err)
	}
}

// emitStrict appends the audit event and surfaces the failure to the caller.
func (s *Service) emitStrict(ctx context.Context, action audit.Action, flag Flag, detail map[string]string) error {
	if s.auditor == nil {
		return nil
	}
	if detail == nil {
		detail = map[string]string{}
	}
	detail["flag_id"] = flag.ID
	event := audit.Event{
		MatchID:  flag.MatchID,
		TeamID:   flag.TeamID,
		PlayerID: flag.PlayerID,
		ActorID:  requestcontext.ActorID(ctx),
		Action:   action,
		Detail:   detail,
	}
	return s.auditor.Emit(ctx, event)
}
