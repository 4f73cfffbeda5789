package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/flowboard/flowboard/pkg/api"
)

// RedisChannel is a presence channel backed by Redis pub/sub. Each workflow
// gets its own topic; events are JSON encoded on the wire.
type RedisChannel struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

var _ api.PresenceChannel = (*RedisChannel)(nil)

// NewRedisChannel creates a channel publishing under the given key prefix.
// If prefix is empty, "flowboard:" is used. If logger is nil, slog.Default()
// is used.
func NewRedisChannel(client *redis.Client, prefix string, logger *slog.Logger) *RedisChannel {
	if prefix == "" {
		prefix = "flowboard:"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisChannel{client: client, prefix: prefix, logger: logger}
}

func (c *RedisChannel) topic(workflowID string) string {
	return c.prefix + "presence:" + workflowID
}

func (c *RedisChannel) Subscribe(ctx context.Context, workflowID string) (<-chan api.PresenceEvent, error) {
	sub := c.client.Subscribe(ctx, c.topic(workflowID))
	// Force the SUBSCRIBE round trip so a broken connection fails here
	// instead of silently delivering nothing.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("presence subscribe %s: %w", workflowID, err)
	}

	out := make(chan api.PresenceEvent, 16)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev api.PresenceEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					c.logger.Warn("presence: dropping malformed event",
						"workflow_id", workflowID, "error", err)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (c *RedisChannel) Publish(ctx context.Context, ev api.PresenceEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("presence publish: %w", err)
	}
	if err := c.client.Publish(ctx, c.topic(ev.WorkflowID), data).Err(); err != nil {
		return fmt.Errorf("presence publish: %w", err)
	}
	return nil
}
