// Package notify fires the admission-window reminders: window opening at
// T-30, a halfway reminder at T-15 and kickoff at T+0. Delivery is a port;
// the engine only guarantees each event fires at most once per match even
// when several poller replicas run.
package notify

import (
	"context"
	"time"

	"matchgate/internal/window"
)

// Notification is one due window event for one match.
type Notification struct {
	MatchID   string
	Event     window.Event
	KickoffAt time.Time
}

// Notifier delivers a notification. Push mechanics live with the host
// application; failures are logged and the event still counts as fired.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }

// FlagStore records which events already fired per match. The redis-backed
// implementation makes the at-most-once guarantee hold across replicas.
type FlagStore interface {
	// MarkFired records the event; false when it was already recorded.
	MarkFired(ctx context.Context, matchID string, event window.Event) (bool, error)
	Fired(ctx context.Context, matchID string, event window.Event) (bool, error)
}
