package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"matchgate/internal/match"
	"matchgate/internal/window"
)

type Poller struct {
	matches  *match.Service
	flags    FlagStore
	notifier Notifier
	gate     window.Gate
	interval time.Duration
	logger   *slog.Logger
}

type PollerOption func(*Poller)

func WithLogger(logger *slog.Logger) PollerOption {
	return func(p *Poller) { p.logger = logger }
}

func WithGate(g window.Gate) PollerOption {
	return func(p *Poller) { p.gate = g }
}

func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) { p.interval = d }
}

func NewPoller(matches *match.Service, flags FlagStore, notifier Notifier, opts ...PollerOption) (*Poller, error) {
	if matches == nil {
		return nil, fmt.Errorf("match service is required")
	}
	if flags == nil {
		return nil, fmt.Errorf("flag store is required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	p := &Poller{
		matches:  matches,
		flags:    flags,
		notifier: notifier,
		gate:     window.Default(),
		interval: 5 * time.Second,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run polls until the context is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			p.Sweep(ctx, now.UTC())
		}
	}
}

// Sweep fires every due, unfired event across scheduled matches. Exposed so
// tests drive it with a fixed clock.
func (p *Poller) Sweep(ctx context.Context, now time.Time) {
	matches, err := p.matches.ListScheduled(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "notify sweep failed to list matches", "error", err)
		return
	}
	for _, m := range matches {
		fired := firedSet{ctx: ctx, flags: p.flags, matchID: m.ID}
		for _, event := range p.gate.DueEvents(m.KickoffAt, now, fired) {
			claimed, err := p.flags.MarkFired(ctx, m.ID, event)
			if err != nil {
				p.logger.ErrorContext(ctx, "failed to claim notification",
					"match_id", m.ID, "event", string(event), "error", err)
				continue
			}
			if !claimed {
				continue
			}
			n := Notification{MatchID: m.ID, Event: event, KickoffAt: m.KickoffAt}
			if err := p.notifier.Notify(ctx, n); err != nil {
				// The claim stands; reminders are best-effort once claimed.
				p.logger.ErrorContext(ctx, "notification delivery failed",
					"match_id", m.ID, "event", string(event), "error", err)
			}
		}
	}
}

// firedSet adapts the FlagStore to the window gate's read-only view.
type firedSet struct {
	ctx     context.Context
	flags   FlagStore
	matchID string
}

func (f firedSet) Fired(event window.Event) bool {
	fired, err := f.flags.Fired(f.ctx, f.matchID, event)
	if err != nil {
		// Fail closed: treat as fired rather than double-notify.
		return true
	}
	return fired
}
