package match

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "matchgate/pkg/domain-errors"
	"matchgate/pkg/requestcontext"
)

// =============================================================================
// Match Service Test Suite
// =============================================================================

type MatchServiceSuite struct {
	suite.Suite
	service *Service
}

func TestMatchServiceSuite(t *testing.T) {
	suite.Run(t, new(MatchServiceSuite))
}

func (s *MatchServiceSuite) SetupTest() {
	var err error
	s.service, err = NewService(NewInMemoryStore())
	s.Require().NoError(err)
}

func (s *MatchServiceSuite) schedule(id string) Match {
	m, err := s.service.Schedule(context.Background(), Match{
		ID:           id,
		TournamentID: "cup-26",
		HomeTeamID:   "team-home",
		AwayTeamID:   "team-away",
		KickoffAt:    time.Date(2026, 6, 14, 15, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)
	return m
}

// =============================================================================
// Schedule Tests
// =============================================================================

func (s *MatchServiceSuite) TestSchedule() {
	s.Run("stamps status and creation time", func() {
		now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(context.Background(), now)

		m, err := s.service.Schedule(ctx, Match{
			ID:         "match-1",
			HomeTeamID: "team-home",
			AwayTeamID: "team-away",
			KickoffAt:  time.Date(2026, 6, 14, 15, 0, 0, 0, time.UTC),
		})
		s.NoError(err)
		s.Equal(StatusScheduled, m.Status)
		s.Equal(now, m.CreatedAt)
	})

	s.Run("rejects a duplicate id", func() {
		_, err := s.service.Schedule(context.Background(), Match{
			ID:         "match-1",
			HomeTeamID: "team-home",
			AwayTeamID: "team-away",
			KickoffAt:  time.Date(2026, 6, 14, 15, 0, 0, 0, time.UTC),
		})
		s.Equal(dErrors.CodeInvalidState, dErrors.CodeOf(err))
	})

	s.Run("rejects missing fields", func() {
		_, err := s.service.Schedule(context.Background(), Match{ID: "match-2"})
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))

		_, err = s.service.Schedule(context.Background(), Match{
			ID:         "match-2",
			HomeTeamID: "team-home",
			AwayTeamID: "team-away",
		})
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})
}

// =============================================================================
// Lifecycle Tests
// =============================================================================

func (s *MatchServiceSuite) TestLifecycle() {
	ctx := context.Background()
	s.schedule("match-1")

	s.Run("scheduled matches are active", func() {
		m, err := s.service.Active(ctx, "match-1")
		s.NoError(err)
		s.Equal(StatusScheduled, m.Status)
		s.True(m.HasTeam("team-home"))
		s.True(m.HasTeam("team-away"))
		s.False(m.HasTeam("team-other"))
	})

	s.Run("cannot archive before finalizing", func() {
		err := s.service.Archive(ctx, "match-1")
		s.Equal(dErrors.CodeInvalidState, dErrors.CodeOf(err))
	})

	s.Run("finalized matches reject mutations", func() {
		s.NoError(s.service.Finalize(ctx, "match-1"))

		_, err := s.service.Active(ctx, "match-1")
		s.Equal(dErrors.CodeInvalidState, dErrors.CodeOf(err))

		// Still readable.
		m, err := s.service.Get(ctx, "match-1")
		s.NoError(err)
		s.Equal(StatusFinal, m.Status)
	})

	s.Run("double finalize is rejected", func() {
		err := s.service.Finalize(ctx, "match-1")
		s.Equal(dErrors.CodeInvalidState, dErrors.CodeOf(err))
	})

	s.Run("archive follows finalize", func() {
		s.NoError(s.service.Archive(ctx, "match-1"))

		m, err := s.service.Get(ctx, "match-1")
		s.NoError(err)
		s.Equal(StatusArchived, m.Status)
	})

	s.Run("unknown match is NotFound", func() {
		_, err := s.service.Active(ctx, "match-9")
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})
}

func (s *MatchServiceSuite) TestListScheduled() {
	ctx := context.Background()
	s.schedule("match-1")
	s.schedule("match-2")
	s.Require().NoError(s.service.Finalize(ctx, "match-2"))

	matches, err := s.service.ListScheduled(ctx)
	s.NoError(err)
	s.Require().Len(matches, 1)
	s.Equal("match-1", matches[0].ID)
}

// =============================================================================
// Keyed Lock Tests
// =============================================================================

func TestKeyedMutexSerializesSameScope(t *testing.T) {
	locks := NewKeyedMutex()

	const workers = 16
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("match-1", "team-home")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != workers {
		t.Fatalf("expected %d increments, got %d", workers, counter)
	}
}

func TestKeyedMutexScopesAreIndependent(t *testing.T) {
	locks := NewKeyedMutex()

	unlockHome := locks.Lock("match-1", "team-home")
	defer unlockHome()

	// A different team in the same match must not block.
	done := make(chan struct{})
	go func() {
		unlock := locks.Lock("match-1", "team-away")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different team scope blocked")
	}
}

func TestKeyedMutexForget(t *testing.T) {
	locks := NewKeyedMutex()

	unlock := locks.Lock("match-1", "team-home")
	unlock()
	locks.Forget("match-1", "team-home")

	// A fresh mutex is minted on the next acquisition.
	unlock = locks.Lock("match-1", "team-home")
	unlock()
}
