// Package checkin orchestrates one player's admission to one match: window
// gate, photo scoring, threshold decision, record persistence and jersey
// assignment. Sessions are in-memory orchestration state; CheckInRecords are
// the durable artifact.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"matchgate/internal/audit"
	"matchgate/internal/checkin/metrics"
	"matchgate/internal/decision"
	"matchgate/internal/jersey"
	"matchgate/internal/match"
	"matchgate/internal/roster"
	"matchgate/internal/scoring"
	"matchgate/internal/window"
	dErrors "matchgate/pkg/domain-errors"
	"matchgate/pkg/platform/sentinel"
	"matchgate/pkg/requestcontext"
)

// JerseyConflict describes the contention blocking an approved session from
// completing. The caller resolves it by picking another number or arranging
// a swap.
type JerseyConflict struct {
	Number         int
	HolderPlayerID string
}

// Result is the structured outcome of a scoring pass. Denials and borderline
// outcomes are decisions, not errors; only flow failures (closed window,
// oracle trouble) surface on the error path.
type Result struct {
	SessionID      string
	State          State
	Decision       Decision
	FaceMatchScore float64
	LivenessScore  float64
	RecordID       string
	JerseyNumber   *int
	Conflict       *JerseyConflict
}

type Service struct {
	records     Store
	matches     *match.Service
	rosters     roster.Provider
	eligibility roster.TeamEligibility
	gateway     scoring.Gateway
	jerseys     *jersey.Service
	thresholds  decision.Thresholds
	gate        window.Gate
	auditor     *audit.Publisher
	metrics     *metrics.Metrics
	logger      *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
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

func WithGate(g window.Gate) Option {
	return func(s *Service) { s.gate = g }
}

func NewService(
	records Store,
	matches *match.Service,
	rosters roster.Provider,
	eligibility roster.TeamEligibility,
	gateway scoring.Gateway,
	jerseys *jersey.Service,
	thresholds decision.Thresholds,
	opts ...Option,
) (*Service, error) {
	if records == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if matches == nil {
		return nil, fmt.Errorf("match service is required")
	}
	if rosters == nil {
		return nil, fmt.Errorf("roster provider is required")
	}
	if eligibility == nil {
		return nil, fmt.Errorf("team eligibility is required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("scoring gateway is required")
	}
	if jerseys == nil {
		return nil, fmt.Errorf("jersey service is required")
	}
	if err := thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}
	svc := &Service{
		records:     records,
		matches:     matches,
		rosters:     rosters,
		eligibility: eligibility,
		gateway:     gateway,
		jerseys:     jerseys,
		thresholds:  thresholds,
		gate:        window.Default(),
		logger:      slog.Default(),
		sessions:    make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// StartSession opens a check-in attempt for a roster player. Cheap gates run
// before any photo capture: the match must be active and include the team,
// the team must not be blocked, the player must be on the roster and not
// already admitted, and the admission window must admit.
func (s *Service) StartSession(ctx context.Context, matchID, teamID, playerID string, requestedNumber int) (Session, error) {
	m, err := s.matches.Active(ctx, matchID)
	if err != nil {
		s.metrics.IncrementStarted("rejected")
		return Session{}, err
	}
	if !m.HasTeam(teamID) {
		s.metrics.IncrementStarted("rejected")
		return Session{}, dErrors.New(dErrors.CodeBadRequest, "team is not playing this match")
	}
	blocked, err := s.eligibility.IsBlocked(ctx, teamID)
	if err != nil {
		s.metrics.IncrementStarted("rejected")
		return Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check team eligibility")
	}
	if blocked {
		s.metrics.IncrementStarted("team_blocked")
		return Session{}, dErrors.New(dErrors.CodeTeamBlocked, "team is blocked from check-in")
	}
	if _, err := s.rosters.Player(ctx, matchID, teamID, playerID); err != nil {
		s.metrics.IncrementStarted("rejected")
		return Session{}, dErrors.New(dErrors.CodeNotFound, "player is not on the roster for this match")
	}
	if _, err := s.records.FindAdmitting(ctx, matchID, playerID); err == nil {
		s.metrics.IncrementStarted("rejected")
		return Session{}, dErrors.New(dErrors.CodeInvalidState, "player already has an admitting check-in for this match")
	}
	if phase := s.gate.Phase(m.KickoffAt, requestcontext.Now(ctx)); !phase.Admits() {
		s.metrics.IncrementStarted("window_closed")
		return Session{}, dErrors.New(dErrors.CodeWindowClosed,
			fmt.Sprintf("admission window is %s", phase))
	}

	sess := &Session{
		ID:              uuid.New().String(),
		MatchID:         matchID,
		TeamID:          teamID,
		PlayerID:        playerID,
		RequestedNumber: requestedNumber,
		State:           StateAwaitingPlayer,
		CreatedAt:       requestcontext.Now(ctx),
	}
	// The start request already names the player, so the session leaves
	// AWAITING_PLAYER_SELECTION in the same call its guards passed.
	sess.State = StateCapturing

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.metrics.IncrementStarted("started")
	return *sess, nil
}

// Get returns a snapshot of a session.
func (s *Service) Get(_ context.Context, sessionID string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return Session{}, dErrors.New(dErrors.CodeNotFound, "unknown session")
	}
	return *sess, nil
}

// CaptureAndScore runs one capture through the oracle and applies the
// threshold decision. The admission window is honored at capture time; a
// session already past capture completes even if scoring returns after the
// window closed. The oracle is called exactly once, with no locks held, and
// never retried here.
func (s *Service) CaptureAndScore(ctx context.Context, sessionID, capturedPhotoRef string) (Result, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return Result{}, dErrors.New(dErrors.CodeNotFound, "unknown session")
	}
	if sess.State != StateCapturing {
		state := sess.State
		s.mu.Unlock()
		return Result{}, dErrors.New(dErrors.CodeInvalidState,
			fmt.Sprintf("session is %s, not %s", state, StateCapturing))
	}
	matchID, teamID, playerID := sess.MatchID, sess.TeamID, sess.PlayerID
	s.mu.Unlock()

	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return Result{}, err
	}
	if phase := s.gate.Phase(m.KickoffAt, requestcontext.Now(ctx)); !phase.Admits() {
		return Result{}, dErrors.New(dErrors.CodeWindowClosed,
			fmt.Sprintf("admission window is %s", phase))
	}
	player, err := s.rosters.Player(ctx, matchID, teamID, playerID)
	if err != nil {
		return Result{}, dErrors.New(dErrors.CodeNotFound, "player is not on the roster for this match")
	}

	if !s.transition(sessionID, StateCapturing, StateScoring) {
		return Result{}, dErrors.New(dErrors.CodeInvalidState, "session left CAPTURING concurrently")
	}

	start := time.Now()
	pair, scoreErr := s.gateway.Score(ctx, player.ReferencePhotoRef, capturedPhotoRef)
	s.metrics.ObserveScoringLatency(time.Since(start))

	s.mu.Lock()
	cancelled := sess.cancelRequested
	if scoreErr != nil {
		// Explicit re-capture is the caller's move; no implicit retry.
		if cancelled {
			sess.State = StateCancelled
		} else {
			sess.State = StateCapturing
		}
		s.mu.Unlock()
		return Result{}, scoreErr
	}
	s.mu.Unlock()

	outcome := s.thresholds.Decide(pair.FaceMatch, pair.Liveness)
	rec, err := s.persistDecision(ctx, sess, capturedPhotoRef, pair, outcome)
	if err != nil {
		s.mu.Lock()
		sess.State = StateCapturing
		s.mu.Unlock()
		return Result{}, err
	}

	result := Result{
		SessionID:      sessionID,
		Decision:       rec.Decision,
		FaceMatchScore: pair.FaceMatch,
		LivenessScore:  pair.Liveness,
		RecordID:       rec.ID,
	}

	s.mu.Lock()
	sess.Outcome = rec.Decision
	sess.RecordID = rec.ID
	if sess.cancelRequested {
		// The score was still recorded for the audit trail, but a cancelled
		// session never assigns a jersey.
		sess.State = StateCancelled
		s.mu.Unlock()
		s.metrics.IncrementCancelled(string(StateScoring))
		s.emit(ctx, audit.ActionCheckInCancelled, sess, map[string]string{"record_id": rec.ID})
		result.State = StateCancelled
		return result, nil
	}
	switch outcome {
	case decision.Approved:
		sess.State = StateJerseyPending
	default:
		sess.State = StateDecided
	}
	requestedNumber := sess.RequestedNumber
	s.mu.Unlock()

	s.metrics.IncrementDecision(string(rec.Decision))
	s.emitDecision(ctx, sess, rec)

	if outcome != decision.Approved {
		result.State = StateDecided
		return result, nil
	}
	return s.completeJersey(ctx, sess, rec, requestedNumber, result)
}

// ResolveJersey completes a JERSEY_PENDING session after a conflict: a
// positive number requests that number, zero asks for the lowest free one.
func (s *Service) ResolveJersey(ctx context.Context, sessionID string, number int) (Result, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return Result{}, dErrors.New(dErrors.CodeNotFound, "unknown session")
	}
	if sess.State != StateJerseyPending {
		state := sess.State
		s.mu.Unlock()
		return Result{}, dErrors.New(dErrors.CodeInvalidState,
			fmt.Sprintf("session is %s, not %s", state, StateJerseyPending))
	}
	recordID := sess.RecordID
	s.mu.Unlock()

	rec, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load check-in record")
	}
	result := Result{
		SessionID:      sessionID,
		Decision:       rec.Decision,
		FaceMatchScore: rec.FaceMatchScore,
		LivenessScore:  rec.LivenessScore,
		RecordID:       rec.ID,
	}
	return s.completeJersey(ctx, sess, rec, number, result)
}

// completeJersey runs the jersey side effect for an approved session. A
// conflict leaves the session in JERSEY_PENDING with the holder surfaced in
// the result rather than on the error path.
func (s *Service) completeJersey(ctx context.Context, sess *Session, rec Record, requestedNumber int, result Result) (Result, error) {
	var (
		assignment jersey.Assignment
		err        error
	)
	if requestedNumber > 0 {
		assignment, err = s.jerseys.Assign(ctx, sess.MatchID, sess.TeamID, sess.PlayerID, requestedNumber)
	} else {
		assignment, err = s.jerseys.AssignNextFree(ctx, sess.MatchID, sess.TeamID, sess.PlayerID)
	}
	if err != nil {
		if dErrors.Is(err, dErrors.CodeJerseyConflict) {
			s.metrics.IncrementJerseyConflict()
			meta := dErrors.MetaOf(err)
			result.State = StateJerseyPending
			result.Conflict = &JerseyConflict{
				Number:         requestedNumber,
				HolderPlayerID: meta["holder_player_id"],
			}
			return result, nil
		}
		return Result{}, err
	}

	if err := s.records.SetJerseyNumber(ctx, rec.ID, assignment.Number); err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record jersey number")
	}

	s.mu.Lock()
	number := assignment.Number
	sess.JerseyNumber = &number
	sess.State = StateComplete
	s.mu.Unlock()

	result.State = StateComplete
	result.JerseyNumber = &number
	return result, nil
}

// Retry re-opens capture after a denial. Bounded by the admission window.
func (s *Service) Retry(ctx context.Context, sessionID string) (Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return Session{}, dErrors.New(dErrors.CodeNotFound, "unknown session")
	}
	if sess.State != StateDecided || sess.Outcome != DecisionDenied {
		state, outcome := sess.State, sess.Outcome
		s.mu.Unlock()
		return Session{}, dErrors.New(dErrors.CodeInvalidState,
			fmt.Sprintf("retry requires a denied decision, session is %s/%s", state, outcome))
	}
	matchID := sess.MatchID
	s.mu.Unlock()

	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return Session{}, err
	}
	if phase := s.gate.Phase(m.KickoffAt, requestcontext.Now(ctx)); !phase.Admits() {
		return Session{}, dErrors.New(dErrors.CodeWindowClosed,
			fmt.Sprintf("admission window is %s", phase))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.State != StateDecided {
		return Session{}, dErrors.New(dErrors.CodeInvalidState, "session left DECIDED concurrently")
	}
	sess.State = StateCapturing
	return *sess, nil
}

// Cancel aborts a pre-terminal session. A cancel arriving mid-SCORING is
// deferred: the eventual score is still recorded, the jersey side effect is
// skipped, and the session lands in CANCELLED.
func (s *Service) Cancel(ctx context.Context, sessionID string) (Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return Session{}, dErrors.New(dErrors.CodeNotFound, "unknown session")
	}
	if sess.State.Terminal() {
		state := sess.State
		s.mu.Unlock()
		return Session{}, dErrors.New(dErrors.CodeInvalidState,
			fmt.Sprintf("session is already %s", state))
	}
	if sess.State == StateScoring {
		sess.cancelRequested = true
		snapshot := *sess
		s.mu.Unlock()
		return snapshot, nil
	}
	from := sess.State
	sess.State = StateCancelled
	snapshot := *sess
	s.mu.Unlock()

	s.metrics.IncrementCancelled(string(from))
	s.emit(ctx, audit.ActionCheckInCancelled, sess, nil)
	return snapshot, nil
}

// History returns all persisted attempts for a player in a match.
func (s *Service) History(ctx context.Context, matchID, playerID string) ([]Record, error) {
	records, err := s.records.ListByPlayer(ctx, matchID, playerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list check-in records")
	}
	return records, nil
}

// persistDecision writes the CheckInRecord under the match-team lock. The
// lock is held for the write only, never across the oracle call.
func (s *Service) persistDecision(ctx context.Context, sess *Session, capturedPhotoRef string, pair scoring.Pair, outcome decision.Outcome) (Record, error) {
	rec := Record{
		ID:               uuid.New().String(),
		MatchID:          sess.MatchID,
		TeamID:           sess.TeamID,
		PlayerID:         sess.PlayerID,
		CapturedPhotoRef: capturedPhotoRef,
		FaceMatchScore:   pair.FaceMatch,
		LivenessScore:    pair.Liveness,
		CreatedAt:        requestcontext.Now(ctx),
	}
	if m, err := s.matches.Get(ctx, sess.MatchID); err == nil {
		rec.TournamentID = m.TournamentID
	}
	switch outcome {
	case decision.Approved:
		rec.Decision = DecisionApproved
	case decision.Borderline:
		rec.Decision = DecisionBorderlinePending
	default:
		rec.Decision = DecisionDenied
	}

	unlock := s.matches.LockTeam(sess.MatchID, sess.TeamID)
	defer unlock()

	if err := s.records.Create(ctx, rec); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return Record{}, dErrors.New(dErrors.CodeInvalidState,
				"player already has an admitting check-in for this match")
		}
		return Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist check-in record")
	}
	return rec, nil
}

// transition moves a session from one state to another iff it is still in
// the expected state.
func (s *Service) transition(sessionID string, from, to State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok || sess.State != from {
		return false
	}
	sess.State = to
	return true
}

func (s *Service) emitDecision(ctx context.Context, sess *Session, rec Record) {
	action := audit.ActionCheckInDenied
	switch rec.Decision {
	case DecisionApproved:
		action = audit.ActionCheckInApproved
	case DecisionBorderlinePending:
		action = audit.ActionCheckInBorderline
	}
	s.emit(ctx, action, sess, map[string]string{
		"record_id":  rec.ID,
		"face_match": strconv.FormatFloat(rec.FaceMatchScore, 'f', 1, 64),
		"liveness":   strconv.FormatFloat(rec.LivenessScore, 'f', 1, 64),
	})
}

func (s *Service) emit(ctx context.Context, action audit.Action, sess *Session, detail map[string]string) {
	if s.auditor == nil {
		return
	}
	event := audit.Event{
		MatchID:  sess.MatchID,
		TeamID:   sess.TeamID,
		PlayerID: sess.PlayerID,
		ActorID:  requestcontext.ActorID(ctx),
		Action:   action,
		Detail:   detail,
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", string(action), "error", err)
	}
}
