//go:build integration

package jersey

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"matchgate/pkg/platform/sentinel"
	"matchgate/pkg/testutil/containers"
)

const jerseyAssignmentsDDL = `
CREATE TABLE IF NOT EXISTS jersey_assignments (
	match_id    TEXT NOT NULL,
	team_id     TEXT NOT NULL,
	player_id   TEXT NOT NULL,
	number      INT NOT NULL,
	assigned_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (match_id, team_id, player_id),
	UNIQUE (match_id, team_id, number)
)`

func TestPostgresJerseyStore(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	pg.MustExec(t, jerseyAssignmentsDDL)
	store := NewPostgresStore(pg.DB)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	put := func(playerID string, number int) error {
		return store.Put(ctx, Assignment{
			MatchID: "match-1", TeamID: "team-home",
			PlayerID: playerID, Number: number, AssignedAt: now,
		})
	}

	t.Run("numbers are unique per team", func(t *testing.T) {
		require.NoError(t, put("p1", 7))
		require.ErrorIs(t, put("p2", 7), sentinel.ErrConflict)

		// Same number on the other team is fine.
		require.NoError(t, store.Put(ctx, Assignment{
			MatchID: "match-1", TeamID: "team-away",
			PlayerID: "p9", Number: 7, AssignedAt: now,
		}))
	})

	t.Run("re-assignment frees the previous number", func(t *testing.T) {
		require.NoError(t, put("p1", 11))
		require.NoError(t, put("p2", 7))
	})

	t.Run("lookups", func(t *testing.T) {
		holder, err := store.Holder(ctx, "match-1", "team-home", 11)
		require.NoError(t, err)
		require.Equal(t, "p1", holder.PlayerID)

		a, err := store.ByPlayer(ctx, "match-1", "team-home", "p2")
		require.NoError(t, err)
		require.Equal(t, 7, a.Number)

		_, err = store.Holder(ctx, "match-1", "team-home", 99)
		require.ErrorIs(t, err, sentinel.ErrNotFound)

		list, err := store.ListByTeam(ctx, "match-1", "team-home")
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, 7, list[0].Number)
		require.Equal(t, 11, list[1].Number)
	})

	t.Run("swap exchanges numbers atomically", func(t *testing.T) {
		require.NoError(t, store.SwapNumbers(ctx, "match-1", "team-home", "p1", "p2"))

		a, err := store.ByPlayer(ctx, "match-1", "team-home", "p1")
		require.NoError(t, err)
		require.Equal(t, 7, a.Number)
		a, err = store.ByPlayer(ctx, "match-1", "team-home", "p2")
		require.NoError(t, err)
		require.Equal(t, 11, a.Number)
	})

	t.Run("swap requires both holders", func(t *testing.T) {
		err := store.SwapNumbers(ctx, "match-1", "team-home", "p1", "p3")
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("remove frees the number", func(t *testing.T) {
		require.NoError(t, store.Remove(ctx, "match-1", "team-home", "p1"))
		_, err := store.ByPlayer(ctx, "match-1", "team-home", "p1")
		require.ErrorIs(t, err, sentinel.ErrNotFound)

		require.NoError(t, put("p3", 7))
		require.ErrorIs(t, store.Remove(ctx, "match-1", "team-home", "p1"), sentinel.ErrNotFound)
	})
}
