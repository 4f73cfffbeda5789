// Package presence carries join, leave and heartbeat notifications between
// the collaborators editing a workflow. The Broker is the in-process fan-out
// used by tests and the LocalSession; RedisChannel bridges the same stream
// over Redis pub/sub for sessions in different processes.
package presence

import (
	"context"
	"sync"

	"github.com/flowboard/flowboard/pkg/api"
)

// Broker is an in-memory presence channel. Every subscriber of a workflow
// receives every event published for it, including its own. Subscriptions
// end when their context is cancelled.
type Broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan api.PresenceEvent
}

var _ api.PresenceChannel = (*Broker)(nil)

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[int]chan api.PresenceEvent),
	}
}

func (b *Broker) Subscribe(ctx context.Context, workflowID string) (<-chan api.PresenceEvent, error) {
	ch := make(chan api.PresenceEvent, 16)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.subs[workflowID] == nil {
		b.subs[workflowID] = make(map[int]chan api.PresenceEvent)
	}
	b.subs[workflowID][id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		if set := b.subs[workflowID]; set != nil {
			delete(set, id)
			if len(set) == 0 {
				delete(b.subs, workflowID)
			}
		}
		b.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

// Publish delivers ev to every current subscriber of its workflow. A
// subscriber that has fallen behind its buffer is skipped rather than
// blocking the publisher.
func (b *Broker) Publish(ctx context.Context, ev api.PresenceEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs[ev.WorkflowID] {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}
