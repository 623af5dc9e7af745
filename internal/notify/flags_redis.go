package notify

import (
	"context"
	"fmt"
	"time"

	"matchgate/internal/platform/redis"
	"matchgate/internal/window"
)

// fired flags outlive the admission window comfortably, then expire so the
// keyspace does not grow with tournament history.
const flagTTL = 24 * time.Hour

// RedisFlagStore makes the at-most-once guarantee hold across poller
// replicas via SET NX.
type RedisFlagStore struct {
	client *redis.Client
}

func NewRedisFlagStore(client *redis.Client) *RedisFlagStore {
	return &RedisFlagStore{client: client}
}

func flagKey(matchID string, event window.Event) string {
	return fmt.Sprintf("matchgate:notify:%s:%s", matchID, event)
}

func (s *RedisFlagStore) MarkFired(ctx context.Context, matchID string, event window.Event) (bool, error) {
	set, err := s.client.SetNX(ctx, flagKey(matchID, event), "1", flagTTL).Result()
	if err != nil {
		return false, fmt.Errorf("mark notification fired: %w", err)
	}
	return set, nil
}

func (s *RedisFlagStore) Fired(ctx context.Context, matchID string, event window.Event) (bool, error) {
	n, err := s.client.Exists(ctx, flagKey(matchID, event)).Result()
	if err != nil {
		return false, fmt.Errorf("check notification fired: %w", err)
	}
	return n > 0, nil
}
