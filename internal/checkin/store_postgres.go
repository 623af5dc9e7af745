package checkin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"matchgate/pkg/platform/sentinel"
)

// PostgresStore persists records in the check_in_records table. Uniqueness of
// the admitting record is enforced by a partial unique index over
// (match_id, player_id) where the decision admits.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const recordColumns = `id, match_id, tournament_id, team_id, player_id, captured_photo_ref,
	face_match_score, liveness_score, decision, jersey_number, created_at, reviewed_by, reviewed_at`

func (s *PostgresStore) Create(ctx context.Context, r Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO check_in_records (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		r.ID, r.MatchID, r.TournamentID, r.TeamID, r.PlayerID, r.CapturedPhotoRef,
		r.FaceMatchScore, r.LivenessScore, string(r.Decision), r.JerseyNumber,
		r.CreatedAt, nullIfEmpty(r.ReviewedBy), r.ReviewedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert check-in record: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM check_in_records WHERE id = $1`, id)
	return scanRecord(row)
}

func (s *PostgresStore) FindAdmitting(ctx context.Context, matchID, playerID string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM check_in_records
		WHERE match_id = $1 AND player_id = $2 AND decision IN ($3, $4)`,
		matchID, playerID, string(DecisionApproved), string(DecisionBorderlineApproved))
	return scanRecord(row)
}

func (s *PostgresStore) ListByPlayer(ctx context.Context, matchID, playerID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+` FROM check_in_records
		WHERE match_id = $1 AND player_id = $2
		ORDER BY created_at`, matchID, playerID)
	if err != nil {
		return nil, fmt.Errorf("list check-in records: %w", err)
	}
	return collectRecords(rows)
}

func (s *PostgresStore) ListPending(ctx context.Context, scope Scope) ([]Record, error) {
	query := `
		SELECT ` + recordColumns + ` FROM check_in_records
		WHERE decision = $1`
	args := []any{string(DecisionBorderlinePending)}
	switch {
	case scope.MatchID != "":
		query += ` AND match_id = $2`
		args = append(args, scope.MatchID)
	case scope.TournamentID != "":
		query += ` AND tournament_id = $2`
		args = append(args, scope.TournamentID)
	}
	query += ` ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pending records: %w", err)
	}
	return collectRecords(rows)
}

func (s *PostgresStore) SetJerseyNumber(ctx context.Context, recordID string, number int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE check_in_records SET jersey_number = $2 WHERE id = $1`, recordID, number)
	if err != nil {
		return fmt.Errorf("set jersey number: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Adjudicate(ctx context.Context, recordID string, to Decision, reviewerID string, at time.Time) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE check_in_records
		SET decision = $2, reviewed_by = $3, reviewed_at = $4
		WHERE id = $1 AND decision = $5
		RETURNING `+recordColumns,
		recordID, string(to), reviewerID, at, string(DecisionBorderlinePending))
	r, err := scanRecord(row)
	if errors.Is(err, sentinel.ErrNotFound) {
		// Either the record is missing or it already left BORDERLINE_PENDING.
		if _, findErr := s.FindByID(ctx, recordID); findErr == nil {
			return Record{}, sentinel.ErrAlreadyDecided
		}
		return Record{}, sentinel.ErrNotFound
	}
	return r, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		r          Record
		decision   string
		jersey     sql.NullInt64
		reviewedBy sql.NullString
		reviewedAt sql.NullTime
	)
	err := row.Scan(&r.ID, &r.MatchID, &r.TournamentID, &r.TeamID, &r.PlayerID, &r.CapturedPhotoRef,
		&r.FaceMatchScore, &r.LivenessScore, &decision, &jersey, &r.CreatedAt, &reviewedBy, &reviewedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("scan check-in record: %w", err)
	}
	r.Decision = Decision(decision)
	if jersey.Valid {
		n := int(jersey.Int64)
		r.JerseyNumber = &n
	}
	r.ReviewedBy = reviewedBy.String
	if reviewedAt.Valid {
		t := reviewedAt.Time
		r.ReviewedAt = &t
	}
	return r, nil
}

func collectRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()
	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
