package presence

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/flowboard/flowboard/internal/testutil"
	"github.com/flowboard/flowboard/pkg/api"
)

func newTestRedisChannel(t *testing.T) *RedisChannel {
	t.Helper()

	addr := testutil.GetRedisAddress(t)
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() {
		_ = client.Close()
	})
	require.NoError(t, client.Ping(context.Background()).Err(), "redis ping failed")

	return NewRedisChannel(client, "flowboard:test:", nil)
}

func TestRedisChannel_PublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := newTestRedisChannel(t)

	events, err := ch.Subscribe(ctx, "wf-1")
	require.NoError(t, err)

	ev := api.PresenceEvent{
		Kind:          api.PresenceJoin,
		WorkflowID:    "wf-1",
		ParticipantID: "p1",
		Identity:      api.Identity{UserID: "u1", Name: "Alice"},
	}
	require.NoError(t, ch.Publish(ctx, ev))

	select {
	case got := <-events:
		require.Equal(t, ev, got)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for presence event")
	}
}

func TestRedisChannel_WorkflowIsolation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := newTestRedisChannel(t)

	other, err := ch.Subscribe(ctx, "wf-other")
	require.NoError(t, err)

	ev := api.PresenceEvent{Kind: api.PresenceHeartbeat, WorkflowID: "wf-1", ParticipantID: "p1"}
	require.NoError(t, ch.Publish(ctx, ev))

	select {
	case got := <-other:
		t.Fatalf("event leaked across workflows: %+v", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestRedisChannel_SubscriptionEndsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := newTestRedisChannel(t)

	events, err := ch.Subscribe(ctx, "wf-1")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-events:
		require.False(t, ok, "expected closed channel after cancellation")
	case <-time.After(5 * time.Second):
		t.Fatal("subscription did not close after cancellation")
	}
}
