//go:build integration

package fraud

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"matchgate/pkg/platform/sentinel"
	"matchgate/pkg/testutil/containers"
)

const fraudFlagsDDL = `
CREATE TABLE IF NOT EXISTS fraud_flags (
	id               TEXT PRIMARY KEY,
	match_id         TEXT NOT NULL,
	team_id          TEXT NOT NULL,
	record_id        TEXT NOT NULL,
	player_id        TEXT NOT NULL,
	jersey_number    INT,
	fresh_photo_ref  TEXT NOT NULL,
	face_match_score DOUBLE PRECISION NOT NULL,
	liveness_score   DOUBLE PRECISION NOT NULL,
	status           TEXT NOT NULL,
	opened_by        TEXT NOT NULL,
	opened_at        TIMESTAMPTZ NOT NULL,
	resolved_by      TEXT,
	resolved_at      TIMESTAMPTZ,
	justification    TEXT NOT NULL DEFAULT ''
)`

// At most one OPEN flag per (match, player).
const fraudOpenIndexDDL = `
CREATE UNIQUE INDEX IF NOT EXISTS fraud_flags_open
	ON fraud_flags (match_id, player_id)
	WHERE status = 'OPEN'`

func newFlag(id, playerID string, openedAt time.Time) Flag {
	worn := 10
	return Flag{
		ID:             id,
		MatchID:        "match-1",
		TeamID:         "team-home",
		RecordID:       "rec-" + playerID,
		PlayerID:       playerID,
		JerseyNumber:   &worn,
		FreshPhotoRef:  "fresh-" + id,
		FaceMatchScore: 40,
		LivenessScore:  90,
		Status:         StatusOpen,
		OpenedBy:       "official-3",
		OpenedAt:       openedAt,
	}
}

func TestPostgresFraudStore(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	pg.MustExec(t, fraudFlagsDDL, fraudOpenIndexDDL)
	store := NewPostgresStore(pg.DB)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("one open flag per player and match", func(t *testing.T) {
		require.NoError(t, store.Create(ctx, newFlag("flag-1", "p1", now)))
		require.ErrorIs(t, store.Create(ctx, newFlag("flag-2", "p1", now)), sentinel.ErrConflict)
	})

	t.Run("find open", func(t *testing.T) {
		f, err := store.FindOpen(ctx, "match-1", "p1")
		require.NoError(t, err)
		require.Equal(t, "flag-1", f.ID)
		require.NotNil(t, f.JerseyNumber)
		require.Equal(t, 10, *f.JerseyNumber)

		_, err = store.FindOpen(ctx, "match-1", "p2")
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("resolve is compare-and-swap", func(t *testing.T) {
		f, err := store.Resolve(ctx, "flag-1", StatusCleared, "admin-1", "homegrown twin, verified ID card", now)
		require.NoError(t, err)
		require.Equal(t, StatusCleared, f.Status)
		require.Equal(t, "admin-1", f.ResolvedBy)
		require.NotNil(t, f.ResolvedAt)
		require.Equal(t, "homegrown twin, verified ID card", f.Justification)

		_, err = store.Resolve(ctx, "flag-1", StatusConfirmed, "official-3", "", now)
		require.ErrorIs(t, err, sentinel.ErrAlreadyDecided)

		_, err = store.Resolve(ctx, "flag-9", StatusConfirmed, "official-3", "", now)
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("a resolved flag makes room for a new open one", func(t *testing.T) {
		require.NoError(t, store.Create(ctx, newFlag("flag-3", "p1", now.Add(time.Second))))

		flags, err := store.ListByMatch(ctx, "match-1")
		require.NoError(t, err)
		require.Len(t, flags, 2)
		require.Equal(t, "flag-1", flags[0].ID)
		require.Equal(t, "flag-3", flags[1].ID)
	})
}
