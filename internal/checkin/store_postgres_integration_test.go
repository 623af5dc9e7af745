//go:build integration

package checkin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"matchgate/pkg/platform/sentinel"
	"matchgate/pkg/testutil/containers"
)

const checkInRecordsDDL = `
CREATE TABLE IF NOT EXISTS check_in_records (
	id                 TEXT PRIMARY KEY,
	match_id           TEXT NOT NULL,
	tournament_id      TEXT NOT NULL,
	team_id            TEXT NOT NULL,
	player_id          TEXT NOT NULL,
	captured_photo_ref TEXT NOT NULL,
	face_match_score   DOUBLE PRECISION NOT NULL,
	liveness_score     DOUBLE PRECISION NOT NULL,
	decision           TEXT NOT NULL,
	jersey_number      INT,
	created_at         TIMESTAMPTZ NOT NULL,
	reviewed_by        TEXT,
	reviewed_at        TIMESTAMPTZ
)`

// One admitting record per (match, player); denials and pending borderlines
// may pile up freely.
const checkInAdmittingIndexDDL = `
CREATE UNIQUE INDEX IF NOT EXISTS check_in_records_admitting
	ON check_in_records (match_id, player_id)
	WHERE decision IN ('APPROVED', 'BORDERLINE_APPROVED')`

func newRecord(id, playerID string, decision Decision, at time.Time) Record {
	return Record{
		ID:               id,
		MatchID:          "match-1",
		TournamentID:     "cup-26",
		TeamID:           "team-home",
		PlayerID:         playerID,
		CapturedPhotoRef: "photo-" + id,
		FaceMatchScore:   88,
		LivenessScore:    90,
		Decision:         decision,
		CreatedAt:        at,
	}
}

func TestPostgresCheckInStore(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	pg.MustExec(t, checkInRecordsDDL, checkInAdmittingIndexDDL)
	store := NewPostgresStore(pg.DB)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("admitting record is unique per player and match", func(t *testing.T) {
		require.NoError(t, store.Create(ctx, newRecord("rec-1", "p1", DecisionApproved, now)))
		err := store.Create(ctx, newRecord("rec-2", "p1", DecisionBorderlineApproved, now))
		require.ErrorIs(t, err, sentinel.ErrConflict)

		// Denials do not contend with the admitting record.
		require.NoError(t, store.Create(ctx, newRecord("rec-3", "p1", DecisionDenied, now.Add(time.Second))))
	})

	t.Run("find admitting", func(t *testing.T) {
		rec, err := store.FindAdmitting(ctx, "match-1", "p1")
		require.NoError(t, err)
		require.Equal(t, "rec-1", rec.ID)

		_, err = store.FindAdmitting(ctx, "match-1", "p2")
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("list by player oldest first", func(t *testing.T) {
		recs, err := store.ListByPlayer(ctx, "match-1", "p1")
		require.NoError(t, err)
		require.Len(t, recs, 2)
		require.Equal(t, "rec-1", recs[0].ID)
		require.Equal(t, "rec-3", recs[1].ID)
	})

	t.Run("pending listings scope by match or tournament", func(t *testing.T) {
		require.NoError(t, store.Create(ctx, newRecord("rec-4", "p2", DecisionBorderlinePending, now)))
		other := newRecord("rec-5", "p9", DecisionBorderlinePending, now.Add(time.Second))
		other.MatchID = "match-2"
		require.NoError(t, store.Create(ctx, other))

		byMatch, err := store.ListPending(ctx, Scope{MatchID: "match-1"})
		require.NoError(t, err)
		require.Len(t, byMatch, 1)
		require.Equal(t, "rec-4", byMatch[0].ID)

		byTournament, err := store.ListPending(ctx, Scope{TournamentID: "cup-26"})
		require.NoError(t, err)
		require.Len(t, byTournament, 2)
		require.Equal(t, "rec-4", byTournament[0].ID)
	})

	t.Run("set jersey number", func(t *testing.T) {
		require.NoError(t, store.SetJerseyNumber(ctx, "rec-1", 7))
		rec, err := store.FindByID(ctx, "rec-1")
		require.NoError(t, err)
		require.NotNil(t, rec.JerseyNumber)
		require.Equal(t, 7, *rec.JerseyNumber)

		require.ErrorIs(t, store.SetJerseyNumber(ctx, "rec-9", 7), sentinel.ErrNotFound)
	})

	t.Run("adjudication is compare-and-swap", func(t *testing.T) {
		rec, err := store.Adjudicate(ctx, "rec-4", DecisionBorderlineRejected, "reviewer-1", now)
		require.NoError(t, err)
		require.Equal(t, DecisionBorderlineRejected, rec.Decision)
		require.Equal(t, "reviewer-1", rec.ReviewedBy)
		require.NotNil(t, rec.ReviewedAt)

		_, err = store.Adjudicate(ctx, "rec-4", DecisionBorderlineApproved, "reviewer-2", now)
		require.ErrorIs(t, err, sentinel.ErrAlreadyDecided)

		_, err = store.Adjudicate(ctx, "rec-9", DecisionBorderlineApproved, "reviewer-2", now)
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}
