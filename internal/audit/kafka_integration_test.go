//go:build integration

package audit

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"matchgate/pkg/testutil/containers"
)

func TestKafkaSinkProducesEvents(t *testing.T) {
	kafka := containers.NewKafkaContainer(t)
	ctx := context.Background()
	const topic = "matchgate.audit"

	admClient, err := kgo.NewClient(kgo.SeedBrokers(kafka.Broker))
	require.NoError(t, err)
	defer admClient.Close()
	adm := kadm.NewClient(admClient)
	_, err = adm.CreateTopics(ctx, 1, 1, nil, topic)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sink, err := NewKafkaSink([]string{kafka.Broker}, topic, logger)
	require.NoError(t, err)

	publisher := NewPublisher(NewInMemoryStore(), WithKafkaSink(sink))
	events := []Event{
		{MatchID: "match-1", TeamID: "team-home", PlayerID: "p1", Action: ActionCheckInApproved},
		{MatchID: "match-1", TeamID: "team-home", PlayerID: "p1", Action: ActionJerseyAssigned,
			Detail: map[string]string{"number": "7"}},
	}
	for _, e := range events {
		require.NoError(t, publisher.Emit(ctx, e))
	}
	require.NoError(t, sink.Close(ctx))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(kafka.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	var got []Event
	deadline := time.Now().Add(30 * time.Second)
	for len(got) < len(events) && time.Now().Before(deadline) {
		pollCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		fetches := consumer.PollFetches(pollCtx)
		cancel()
		fetches.EachRecord(func(r *kgo.Record) {
			// Keyed by match so per-match ordering holds downstream.
			require.Equal(t, "match-1", string(r.Key))
			var e Event
			require.NoError(t, json.Unmarshal(r.Value, &e))
			got = append(got, e)
		})
	}

	require.Len(t, got, len(events))
	require.Equal(t, ActionCheckInApproved, got[0].Action)
	require.Equal(t, ActionJerseyAssigned, got[1].Action)
	require.Equal(t, "7", got[1].Detail["number"])
	require.NotEmpty(t, got[0].ID)
	require.False(t, got[0].Timestamp.IsZero())
}
