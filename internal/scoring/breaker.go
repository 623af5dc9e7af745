package scoring

import (
	"context"
	"log/slog"
	"sync"
	"time"

	dErrors "matchgate/pkg/domain-errors"
	"matchgate/pkg/platform/circuit"
)

// BreakerGateway protects the check-in path from a struggling oracle. After
// repeated infrastructure failures the breaker opens and captures fail fast
// with scoring_unavailable instead of each burning the full client timeout;
// a probe call is let through periodically so the breaker can close again
// once the oracle recovers.
//
// Domain outcomes (no_face_detected) count as successes: the oracle answered.
type BreakerGateway struct {
	inner   Gateway
	breaker *circuit.Breaker
	logger  *slog.Logger

	probeInterval time.Duration
	mu            sync.Mutex
	nextProbe     time.Time
}

type BreakerOption func(*BreakerGateway)

// WithProbeInterval sets how often one call is let through while open.
func WithProbeInterval(d time.Duration) BreakerOption {
	return func(g *BreakerGateway) { g.probeInterval = d }
}

func NewBreakerGateway(inner Gateway, breaker *circuit.Breaker, logger *slog.Logger, opts ...BreakerOption) *BreakerGateway {
	g := &BreakerGateway{
		inner:         inner,
		breaker:       breaker,
		logger:        logger,
		probeInterval: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *BreakerGateway) Score(ctx context.Context, referencePhotoRef, capturedPhotoRef string) (Pair, error) {
	if g.breaker.IsOpen() && !g.claimProbe() {
		return Pair{}, dErrors.New(dErrors.CodeScoringUnavailable, "scoring oracle is unavailable")
	}

	pair, err := g.inner.Score(ctx, referencePhotoRef, capturedPhotoRef)
	if err != nil && dErrors.CodeOf(err) == dErrors.CodeScoringUnavailable {
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.WarnContext(ctx, "scoring circuit opened", "breaker", g.breaker.Name())
		}
		return Pair{}, err
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "scoring circuit closed", "breaker", g.breaker.Name())
	}
	return pair, err
}

// claimProbe grants at most one pass-through per probe interval while the
// breaker is open.
func (g *BreakerGateway) claimProbe() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := time.Now()
	if now.Before(g.nextProbe) {
		return false
	}
	g.nextProbe = now.Add(g.probeInterval)
	return true
}
