package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Publisher captures structured audit events. Emit is synchronous and
// fail-closed: callers on compliance-critical paths (fraud override clears)
// must not proceed if the append fails. The optional Kafka sink fans events
// out asynchronously and never blocks the caller.
type Publisher struct {
	store  Store
	sink   *KafkaSink
	logger *slog.Logger
}

type Option func(*Publisher)

func WithKafkaSink(sink *KafkaSink) Option {
	return func(p *Publisher) { p.sink = sink }
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit persists an audit event. Returns error if persistence fails; callers
// on fail-closed paths must abort their operation.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := p.store.Append(ctx, event); err != nil {
		p.logger.ErrorContext(ctx, "audit append failed",
			"action", event.Action,
			"match_id", event.MatchID,
			"error", err,
		)
		return err
	}
	if p.sink != nil {
		p.sink.Produce(ctx, event)
	}
	return nil
}

// List returns all audit events recorded for a match.
func (p *Publisher) List(ctx context.Context, matchID string) ([]Event, error) {
	return p.store.ListByMatch(ctx, matchID)
}
