package session

import (
	"context"
	"sync"
	"time"

	"github.com/flowboard/flowboard/pkg/api"
)

// Tracker maintains the set of remote participants currently viewing or
// editing the workflow. It has its own lock so that presence notifications
// can be merged without blocking an in-flight mutation or save. Presence is
// advisory only; nothing here gates graph operations.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]*api.Participant
	joined  []string // join order, earliest first
	now     func() time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		entries: make(map[string]*api.Participant),
		now:     time.Now,
	}
}

// Join registers or refreshes a participant. The earliest joiner still
// present carries the primary mark. It returns the entry and whether the
// participant was previously unknown.
func (t *Tracker) Join(participantID string, identity api.Identity) (api.Participant, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if p, ok := t.entries[participantID]; ok {
		p.Identity = identity
		p.LastSeen = now
		return *p, false
	}

	p := &api.Participant{
		ID:       participantID,
		Identity: identity,
		Primary:  len(t.joined) == 0,
		JoinedAt: now,
		LastSeen: now,
	}
	t.entries[participantID] = p
	t.joined = append(t.joined, participantID)
	return *p, true
}

// Heartbeat refreshes a participant's liveness without changing its identity.
// Unknown participants are ignored; a join must arrive first.
func (t *Tracker) Heartbeat(participantID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.entries[participantID]
	if !ok {
		return false
	}
	p.LastSeen = t.now()
	return true
}

// Leave removes a participant. Removing an unknown id is a no-op.
func (t *Tracker) Leave(participantID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remove(participantID)
}

// Expire removes every participant whose last heartbeat is older than ttl and
// returns their ids. A ttl <= 0 disables expiry.
func (t *Tracker) Expire(ttl time.Duration) []string {
	if ttl <= 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-ttl)
	var expired []string
	for _, id := range t.joined {
		if t.entries[id].LastSeen.Before(cutoff) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		t.remove(id)
	}
	return expired
}

// List returns the participants in reverse-join order: most recent joiner
// first, so overlapping avatars render with the earliest joiner on top.
func (t *Tracker) List() []api.Participant {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]api.Participant, 0, len(t.joined))
	for i := len(t.joined) - 1; i >= 0; i-- {
		out = append(out, *t.entries[t.joined[i]])
	}
	return out
}

// remove deletes an entry and hands the primary mark to the next earliest
// joiner. Callers must hold t.mu.
func (t *Tracker) remove(participantID string) bool {
	if _, ok := t.entries[participantID]; !ok {
		return false
	}
	delete(t.entries, participantID)
	for i, id := range t.joined {
		if id == participantID {
			t.joined = append(t.joined[:i], t.joined[i+1:]...)
			break
		}
	}
	if len(t.joined) > 0 {
		t.entries[t.joined[0]].Primary = true
	}
	return true
}

// run consumes a presence event stream until the channel closes or ctx ends,
// merging events into the tracker and sweeping expired entries on a ticker.
func (s *Session) runPresence(ctx context.Context, events <-chan api.PresenceEvent) {
	defer s.wg.Done()

	sweep := s.presenceTTL / 2
	if sweep <= 0 {
		sweep = time.Second
	}
	ticker := time.NewTicker(sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.applyPresence(ctx, ev)
		case <-ticker.C:
			for _, id := range s.tracker.Expire(s.presenceTTL) {
				s.observer.OnParticipantLeft(ctx, id)
			}
		}
	}
}

func (s *Session) applyPresence(ctx context.Context, ev api.PresenceEvent) {
	if ev.ParticipantID == "" || ev.ParticipantID == s.self.UserID {
		return
	}
	switch ev.Kind {
	case api.PresenceJoin:
		p, _ := s.tracker.Join(ev.ParticipantID, ev.Identity)
		s.observer.OnParticipantJoined(ctx, p)
	case api.PresenceHeartbeat:
		if !s.tracker.Heartbeat(ev.ParticipantID) {
			// Heartbeat from a participant we missed the join for; treat it
			// as a late join so presence converges.
			p, _ := s.tracker.Join(ev.ParticipantID, ev.Identity)
			s.observer.OnParticipantJoined(ctx, p)
		}
	case api.PresenceLeave:
		if s.tracker.Leave(ev.ParticipantID) {
			s.observer.OnParticipantLeft(ctx, ev.ParticipantID)
		}
	}
}
