package fraud

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"matchgate/pkg/platform/sentinel"
)

// PostgresStore persists flags in the fraud_flags table. A partial unique
// index over (match_id, player_id) where status = 'OPEN' prevents duplicate
// open flags under concurrent spot-checks.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const flagColumns = `id, match_id, team_id, record_id, player_id, jersey_number, fresh_photo_ref,
	face_match_score, liveness_score, status, opened_by, opened_at, resolved_by, resolved_at, justification`

func (s *PostgresStore) Create(ctx context.Context, f Flag) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fraud_flags (`+flagColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		f.ID, f.MatchID, f.TeamID, f.RecordID, f.PlayerID, nullableInt(f.JerseyNumber), f.FreshPhotoRef,
		f.FaceMatchScore, f.LivenessScore, string(f.Status), f.OpenedBy, f.OpenedAt,
		nullIfEmpty(f.ResolvedBy), f.ResolvedAt, f.Justification,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert fraud flag: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (Flag, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+flagColumns+` FROM fraud_flags WHERE id = $1`, id)
	return scanFlag(row)
}

func (s *PostgresStore) FindOpen(ctx context.Context, matchID, playerID string) (Flag, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+flagColumns+` FROM fraud_flags
		WHERE match_id = $1 AND player_id = $2 AND status = $3`,
		matchID, playerID, string(StatusOpen))
	return scanFlag(row)
}

func (s *PostgresStore) ListByMatch(ctx context.Context, matchID string) ([]Flag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+flagColumns+` FROM fraud_flags
		WHERE match_id = $1
		ORDER BY opened_at`, matchID)
	if err != nil {
		return nil, fmt.Errorf("list fraud flags: %w", err)
	}
	defer rows.Close()
	var out []Flag
	for rows.Next() {
		f, err := scanFlag(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Resolve(ctx context.Context, flagID string, to FlagStatus, resolvedBy, justification string, at time.Time) (Flag, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE fraud_flags
		SET status = $2, resolved_by = $3, justification = $4, resolved_at = $5
		WHERE id = $1 AND status = $6
		RETURNING `+flagColumns,
		flagID, string(to), resolvedBy, justification, at, string(StatusOpen))
	f, err := scanFlag(row)
	if errors.Is(err, sentinel.ErrNotFound) {
		if _, findErr := s.FindByID(ctx, flagID); findErr == nil {
			return Flag{}, sentinel.ErrAlreadyDecided
		}
		return Flag{}, sentinel.ErrNotFound
	}
	return f, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFlag(row rowScanner) (Flag, error) {
	var (
		f            Flag
		jerseyNumber sql.NullInt64
		status       string
		resolvedBy   sql.NullString
		resolvedAt   sql.NullTime
	)
	err := row.Scan(&f.ID, &f.MatchID, &f.TeamID, &f.RecordID, &f.PlayerID, &jerseyNumber, &f.FreshPhotoRef,
		&f.FaceMatchScore, &f.LivenessScore, &status, &f.OpenedBy, &f.OpenedAt,
		&resolvedBy, &resolvedAt, &f.Justification)
	if errors.Is(err, sql.ErrNoRows) {
		return Flag{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Flag{}, fmt.Errorf("scan fraud flag: %w", err)
	}
	f.Status = FlagStatus(status)
	if jerseyNumber.Valid {
		n := int(jerseyNumber.Int64)
		f.JerseyNumber = &n
	}
	f.ResolvedBy = resolvedBy.String
	if resolvedAt.Valid {
		t := resolvedAt.Time
		f.ResolvedAt = &t
	}
	return f, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullableInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}
