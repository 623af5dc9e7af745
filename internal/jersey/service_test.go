package jersey

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"matchgate/internal/match"
	"matchgate/internal/roster"
	dErrors "matchgate/pkg/domain-errors"
)

// =============================================================================
// Jersey Service Test Suite
// =============================================================================

type JerseyServiceSuite struct {
	suite.Suite
	matches *match.Service
	service *Service
}

func TestJerseyServiceSuite(t *testing.T) {
	suite.Run(t, new(JerseyServiceSuite))
}

func (s *JerseyServiceSuite) SetupTest() {
	var err error
	s.matches, err = match.NewService(match.NewInMemoryStore())
	s.Require().NoError(err)
	_, err = s.matches.Schedule(context.Background(), match.Match{
		ID:           "match-1",
		TournamentID: "cup-26",
		HomeTeamID:   "team-home",
		AwayTeamID:   "team-away",
		KickoffAt:    time.Date(2026, 6, 14, 15, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)

	rosters := roster.NewInMemoryProvider()
	rosters.Seed("match-1", "team-home", []roster.Player{
		{ID: "p1", FullName: "Ada Okafor", ReferencePhotoRef: "ref-p1"},
		{ID: "p2", FullName: "Mina Castel", ReferencePhotoRef: "ref-p2"},
		{ID: "p3", FullName: "Rui Tanaka", ReferencePhotoRef: "ref-p3"},
	})

	s.service, err = NewService(NewInMemoryStore(), s.matches, rosters)
	s.Require().NoError(err)
}

func (s *JerseyServiceSuite) assign(playerID string, number int) Assignment {
	a, err := s.service.Assign(context.Background(), "match-1", "team-home", playerID, number)
	s.Require().NoError(err)
	return a
}

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *JerseyServiceSuite) TestNewServiceValidation() {
	rosters := roster.NewInMemoryProvider()

	_, err := NewService(nil, s.matches, rosters)
	s.Error(err)

	_, err = NewService(NewInMemoryStore(), nil, rosters)
	s.Error(err)

	_, err = NewService(NewInMemoryStore(), s.matches, nil)
	s.Error(err)
}

// =============================================================================
// Assign Tests
// =============================================================================

func (s *JerseyServiceSuite) TestAssign() {
	ctx := context.Background()

	s.Run("assigns a free number", func() {
		a := s.assign("p1", 7)
		s.Equal(7, a.Number)

		got, err := s.service.NumberOf(ctx, "match-1", "team-home", "p1")
		s.NoError(err)
		s.Equal(7, got)
	})

	s.Run("conflict names the current holder", func() {
		_, err := s.service.Assign(ctx, "match-1", "team-home", "p2", 7)
		s.Error(err)
		s.Equal(dErrors.CodeJerseyConflict, dErrors.CodeOf(err))
		s.Equal("p1", dErrors.MetaOf(err)["holder_player_id"])
		s.Equal("7", dErrors.MetaOf(err)["number"])
	})

	s.Run("re-assigning moves the player's own number", func() {
		a := s.assign("p1", 11)
		s.Equal(11, a.Number)

		// 7 is free again.
		a = s.assign("p2", 7)
		s.Equal(7, a.Number)
	})

	s.Run("rejects non-positive numbers", func() {
		_, err := s.service.Assign(ctx, "match-1", "team-home", "p3", 0)
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})

	s.Run("rejects players off the roster", func() {
		_, err := s.service.Assign(ctx, "match-1", "team-home", "stranger", 4)
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})

	s.Run("rejects unknown matches", func() {
		_, err := s.service.Assign(ctx, "match-9", "team-home", "p3", 4)
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})
}

func (s *JerseyServiceSuite) TestAssignAfterFinalize() {
	ctx := context.Background()
	s.Require().NoError(s.matches.Finalize(ctx, "match-1"))

	_, err := s.service.Assign(ctx, "match-1", "team-home", "p1", 7)
	s.Equal(dErrors.CodeInvalidState, dErrors.CodeOf(err))
}

// =============================================================================
// Swap Tests
// =============================================================================

func (s *JerseyServiceSuite) TestSwap() {
	ctx := context.Background()
	s.assign("p1", 7)
	s.assign("p2", 9)

	s.Run("both players must hold a number", func() {
		err := s.service.Swap(ctx, "match-1", "team-home", "p1", "p3")
		s.Equal(dErrors.CodeInvalidState, dErrors.CodeOf(err))
	})

	s.Run("conflicted newcomer takes a free number then swaps in", func() {
		// p3 wants 7 but p1 holds it.
		_, err := s.service.Assign(ctx, "match-1", "team-home", "p3", 7)
		s.Equal(dErrors.CodeJerseyConflict, dErrors.CodeOf(err))
		s.Equal("p1", dErrors.MetaOf(err)["holder_player_id"])

		a, err := s.service.AssignNextFree(ctx, "match-1", "team-home", "p3")
		s.NoError(err)
		s.Equal(1, a.Number)

		s.NoError(s.service.Swap(ctx, "match-1", "team-home", "p1", "p3"))

		n1, err := s.service.NumberOf(ctx, "match-1", "team-home", "p1")
		s.NoError(err)
		s.Equal(1, n1)
		n3, err := s.service.NumberOf(ctx, "match-1", "team-home", "p3")
		s.NoError(err)
		s.Equal(7, n3)
	})

	s.Run("swapping a player with themselves is rejected", func() {
		err := s.service.Swap(ctx, "match-1", "team-home", "p1", "p1")
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})
}

// =============================================================================
// AssignNextFree Tests
// =============================================================================

func (s *JerseyServiceSuite) TestAssignNextFree() {
	ctx := context.Background()

	s.Run("starts at one and fills gaps", func() {
		s.assign("p1", 1)
		s.assign("p2", 3)

		a, err := s.service.AssignNextFree(ctx, "match-1", "team-home", "p3")
		s.NoError(err)
		s.Equal(2, a.Number)
	})

	s.Run("returns the existing assignment unchanged", func() {
		a, err := s.service.AssignNextFree(ctx, "match-1", "team-home", "p2")
		s.NoError(err)
		s.Equal(3, a.Number)
	})
}

// =============================================================================
// AutoAssign Tests
// =============================================================================

func (s *JerseyServiceSuite) TestAutoAssign() {
	ctx := context.Background()
	s.assign("p2", 2)

	created, err := s.service.AutoAssign(ctx, "match-1", "team-home")
	s.NoError(err)
	// p2 keeps 2; p1 and p3 fill around it in roster order.
	s.Require().Len(created, 2)
	s.Equal("p1", created[0].PlayerID)
	s.Equal(1, created[0].Number)
	s.Equal("p3", created[1].PlayerID)
	s.Equal(3, created[1].Number)

	all, err := s.service.ListByTeam(ctx, "match-1", "team-home")
	s.NoError(err)
	s.Len(all, 3)

	s.Run("a second pass creates nothing", func() {
		created, err := s.service.AutoAssign(ctx, "match-1", "team-home")
		s.NoError(err)
		s.Empty(created)
	})
}

// =============================================================================
// Release Tests
// =============================================================================

func (s *JerseyServiceSuite) TestRelease() {
	ctx := context.Background()
	s.assign("p1", 1)
	s.assign("p2", 2)

	s.Run("released numbers become assignable again", func() {
		s.NoError(s.service.Release(ctx, "match-1", "team-home", "p1"))

		_, err := s.service.NumberOf(ctx, "match-1", "team-home", "p1")
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))

		a, err := s.service.AssignNextFree(ctx, "match-1", "team-home", "p3")
		s.NoError(err)
		s.Equal(1, a.Number)
	})

	s.Run("releasing an unassigned player is NotFound", func() {
		err := s.service.Release(ctx, "match-1", "team-home", "p1")
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})
}

// =============================================================================
// Concurrency Tests
// =============================================================================

func (s *JerseyServiceSuite) TestConcurrentAssignSameNumber() {
	ctx := context.Background()

	const contenders = 8
	players := make([]roster.Player, contenders)
	for i := range players {
		players[i] = roster.Player{ID: "cp-" + string(rune('a'+i)), FullName: "Contender"}
	}
	rosters := roster.NewInMemoryProvider()
	rosters.Seed("match-1", "team-away", players)

	svc, err := NewService(NewInMemoryStore(), s.matches, rosters)
	s.Require().NoError(err)

	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Assign(ctx, "match-1", "team-away", players[i].ID, 10)
		}(i)
	}
	wg.Wait()

	var won, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case dErrors.CodeOf(err) == dErrors.CodeJerseyConflict:
			conflicted++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, won)
	s.Equal(contenders-1, conflicted)
}
