package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"matchgate/internal/match"
	"matchgate/internal/window"
)

// =============================================================================
// Notify Poller Test Suite
// =============================================================================

type recordingNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func (n *recordingNotifier) Notify(_ context.Context, notification Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return nil
}

func (n *recordingNotifier) all() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.sent...)
}

type PollerSuite struct {
	suite.Suite
	matches  *match.Service
	notifier *recordingNotifier
	poller   *Poller
	kickoff  time.Time
}

func TestPollerSuite(t *testing.T) {
	suite.Run(t, new(PollerSuite))
}

func (s *PollerSuite) SetupTest() {
	s.kickoff = time.Date(2026, 6, 14, 15, 0, 0, 0, time.UTC)
	s.notifier = &recordingNotifier{}

	var err error
	s.matches, err = match.NewService(match.NewInMemoryStore())
	s.Require().NoError(err)
	_, err = s.matches.Schedule(context.Background(), match.Match{
		ID:         "match-1",
		HomeTeamID: "team-home",
		AwayTeamID: "team-away",
		KickoffAt:  s.kickoff,
	})
	s.Require().NoError(err)

	s.poller, err = NewPoller(s.matches, NewInMemoryFlagStore(), s.notifier)
	s.Require().NoError(err)
}

func (s *PollerSuite) TestSweep() {
	ctx := context.Background()

	s.Run("nothing due before the window opens", func() {
		s.poller.Sweep(ctx, s.kickoff.Add(-45*time.Minute))
		s.Empty(s.notifier.all())
	})

	s.Run("window-open reminder fires once", func() {
		s.poller.Sweep(ctx, s.kickoff.Add(-29*time.Minute))
		s.poller.Sweep(ctx, s.kickoff.Add(-28*time.Minute))

		sent := s.notifier.all()
		s.Require().Len(sent, 1)
		s.Equal(window.EventT30, sent[0].Event)
		s.Equal("match-1", sent[0].MatchID)
	})

	s.Run("a sparse poll catches up missed events in order", func() {
		s.poller.Sweep(ctx, s.kickoff.Add(10*time.Minute))

		sent := s.notifier.all()
		s.Require().Len(sent, 3)
		s.Equal(window.EventT15, sent[1].Event)
		s.Equal(window.EventT0, sent[2].Event)
	})

	s.Run("nothing fires after the window closes", func() {
		s.poller.Sweep(ctx, s.kickoff.Add(20*time.Minute))
		s.Len(s.notifier.all(), 3)
	})
}

func (s *PollerSuite) TestConcurrentSweeps() {
	ctx := context.Background()
	now := s.kickoff.Add(-20 * time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.poller.Sweep(ctx, now)
		}()
	}
	wg.Wait()

	s.Len(s.notifier.all(), 1)
}
