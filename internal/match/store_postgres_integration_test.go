//go:build integration

package match

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"matchgate/pkg/platform/sentinel"
	"matchgate/pkg/testutil/containers"
)

const matchesDDL = `
CREATE TABLE IF NOT EXISTS matches (
	id            TEXT PRIMARY KEY,
	tournament_id TEXT NOT NULL,
	home_team_id  TEXT NOT NULL,
	away_team_id  TEXT NOT NULL,
	kickoff_at    TIMESTAMPTZ NOT NULL,
	status        TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
)`

func TestPostgresMatchStore(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	pg.MustExec(t, matchesDDL)
	store := NewPostgresStore(pg.DB)
	ctx := context.Background()

	kickoff := time.Date(2026, 6, 14, 15, 0, 0, 0, time.UTC)
	m := Match{
		ID:           "match-1",
		TournamentID: "cup-26",
		HomeTeamID:   "team-home",
		AwayTeamID:   "team-away",
		KickoffAt:    kickoff,
		Status:       StatusScheduled,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, store.Create(ctx, m))

	t.Run("duplicate id conflicts", func(t *testing.T) {
		require.ErrorIs(t, store.Create(ctx, m), sentinel.ErrConflict)
	})

	t.Run("round trips", func(t *testing.T) {
		got, err := store.FindByID(ctx, "match-1")
		require.NoError(t, err)
		require.Equal(t, m.TournamentID, got.TournamentID)
		require.True(t, got.KickoffAt.Equal(kickoff))
		require.Equal(t, StatusScheduled, got.Status)
	})

	t.Run("missing match is not found", func(t *testing.T) {
		_, err := store.FindByID(ctx, "match-9")
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("status transitions persist", func(t *testing.T) {
		require.NoError(t, store.UpdateStatus(ctx, "match-1", StatusFinal))
		got, err := store.FindByID(ctx, "match-1")
		require.NoError(t, err)
		require.Equal(t, StatusFinal, got.Status)

		scheduled, err := store.ListByStatus(ctx, StatusScheduled)
		require.NoError(t, err)
		require.Empty(t, scheduled)
	})

	t.Run("updating a missing match is not found", func(t *testing.T) {
		require.ErrorIs(t, store.UpdateStatus(ctx, "match-9", StatusFinal), sentinel.ErrNotFound)
	})
}
