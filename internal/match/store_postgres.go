package match

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"matchgate/pkg/platform/sentinel"
)

// PostgresStore persists matches in PostgreSQL. Pure I/O; lifecycle rules
// belong in the service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, m Match) error {
	query := `
		INSERT INTO matches (id, tournament_id, home_team_id, away_team_id, kickoff_at, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		m.ID, m.TournamentID, m.HomeTeamID, m.AwayTeamID, m.KickoffAt, m.Status, m.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create match: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, matchID string) (Match, error) {
	query := `
		SELECT id, tournament_id, home_team_id, away_team_id, kickoff_at, status, created_at
		FROM matches
		WHERE id = $1
	`
	m, err := scanMatch(s.db.QueryRowContext(ctx, query, matchID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Match{}, sentinel.ErrNotFound
		}
		return Match{}, fmt.Errorf("find match: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status Status) ([]Match, error) {
	query := `
		SELECT id, tournament_id, home_team_id, away_team_id, kickoff_at, status, created_at
		FROM matches
		WHERE status = $1
		ORDER BY kickoff_at
	`
	rows, err := s.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, matchID string, status Status) error {
	res, err := s.db.ExecContext(ctx, `UPDATE matches SET status = $2 WHERE id = $1`, matchID, status)
	if err != nil {
		return fmt.Errorf("update match status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update match status: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (Match, error) {
	var m Match
	err := row.Scan(&m.ID, &m.TournamentID, &m.HomeTeamID, &m.AwayTeamID, &m.KickoffAt, &m.Status, &m.CreatedAt)
	return m, err
}
