package jersey

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"matchgate/pkg/platform/sentinel"
)

// PostgresStore persists jersey assignments. The schema carries a unique
// index on (match_id, team_id, number); insert races between two devices
// resolve to exactly one winner via unique_violation.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Put(ctx context.Context, a Assignment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put assignment: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM jersey_assignments WHERE match_id = $1 AND team_id = $2 AND player_id = $3`,
		a.MatchID, a.TeamID, a.PlayerID,
	)
	if err != nil {
		return fmt.Errorf("put assignment: clear previous: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO jersey_assignments (match_id, team_id, player_id, number, assigned_at)
		VALUES ($1, $2, $3, $4, $5)
	`, a.MatchID, a.TeamID, a.PlayerID, a.Number, a.AssignedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("put assignment: %w", err)
	}
	return tx.Commit()
}

func (s *PostgresStore) Holder(ctx context.Context, matchID, teamID string, number int) (Assignment, error) {
	query := `
		SELECT match_id, team_id, player_id, number, assigned_at
		FROM jersey_assignments
		WHERE match_id = $1 AND team_id = $2 AND number = $3
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, matchID, teamID, number))
}

func (s *PostgresStore) ByPlayer(ctx context.Context, matchID, teamID, playerID string) (Assignment, error) {
	query := `
		SELECT match_id, team_id, player_id, number, assigned_at
		FROM jersey_assignments
		WHERE match_id = $1 AND team_id = $2 AND player_id = $3
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, matchID, teamID, playerID))
}

func (s *PostgresStore) ListByTeam(ctx context.Context, matchID, teamID string) ([]Assignment, error) {
	query := `
		SELECT match_id, team_id, player_id, number, assigned_at
		FROM jersey_assignments
		WHERE match_id = $1 AND team_id = $2
		ORDER BY number
	`
	rows, err := s.db.QueryContext(ctx, query, matchID, teamID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.MatchID, &a.TeamID, &a.PlayerID, &a.Number, &a.AssignedAt); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SwapNumbers exchanges two players' numbers in one transaction. The unique
// index would reject the intermediate state, so both rows are deleted first
// and re-inserted swapped; any failure rolls the whole exchange back.
func (s *PostgresStore) SwapNumbers(ctx context.Context, matchID, teamID, playerA, playerB string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("swap: %w", err)
	}
	defer tx.Rollback()

	lockQuery := `
		SELECT player_id, number
		FROM jersey_assignments
		WHERE match_id = $1 AND team_id = $2 AND player_id = ANY($3)
		FOR UPDATE
	`
	rows, err := tx.QueryContext(ctx, lockQuery, matchID, teamID, pq.Array([]string{playerA, playerB}))
	if err != nil {
		return fmt.Errorf("swap: lock rows: %w", err)
	}
	numbers := make(map[string]int, 2)
	for rows.Next() {
		var playerID string
		var number int
		if err := rows.Scan(&playerID, &number); err != nil {
			rows.Close()
			return fmt.Errorf("swap: scan: %w", err)
		}
		numbers[playerID] = number
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("swap: %w", err)
	}
	if len(numbers) != 2 {
		return sentinel.ErrNotFound
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM jersey_assignments WHERE match_id = $1 AND team_id = $2 AND player_id = ANY($3)`,
		matchID, teamID, pq.Array([]string{playerA, playerB}),
	)
	if err != nil {
		return fmt.Errorf("swap: delete: %w", err)
	}

	insert := `
		INSERT INTO jersey_assignments (match_id, team_id, player_id, number, assigned_at)
		VALUES ($1, $2, $3, $4, NOW())
	`
	if _, err := tx.ExecContext(ctx, insert, matchID, teamID, playerA, numbers[playerB]); err != nil {
		return fmt.Errorf("swap: insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insert, matchID, teamID, playerB, numbers[playerA]); err != nil {
		return fmt.Errorf("swap: insert: %w", err)
	}
	return tx.Commit()
}

func (s *PostgresStore) Remove(ctx context.Context, matchID, teamID, playerID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM jersey_assignments WHERE match_id = $1 AND team_id = $2 AND player_id = $3`,
		matchID, teamID, playerID,
	)
	if err != nil {
		return fmt.Errorf("remove assignment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove assignment: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) scanOne(row *sql.Row) (Assignment, error) {
	var a Assignment
	err := row.Scan(&a.MatchID, &a.TeamID, &a.PlayerID, &a.Number, &a.AssignedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Assignment{}, sentinel.ErrNotFound
		}
		return Assignment{}, fmt.Errorf("scan assignment: %w", err)
	}
	return a, nil
}
