package api

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sync"
	"testing"
)

//
// Helpers
//

// testObserver is a simple Observer implementation used to verify fan-out behavior.
type testObserver struct {
	mu sync.Mutex

	changes   int
	joins     int
	leaves    int
	saveStart int
	saveDone  int

	lastChange   GraphChange
	lastJoined   Participant
	lastLeftID   string
	lastSaveID   string
	lastSaveErr  error
	lastStartID  string
}

func (o *testObserver) OnGraphChanged(ctx context.Context, change GraphChange) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.changes++
	o.lastChange = change
}

func (o *testObserver) OnParticipantJoined(ctx context.Context, p Participant) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.joins++
	o.lastJoined = p
}

func (o *testObserver) OnParticipantLeft(ctx context.Context, participantID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.leaves++
	o.lastLeftID = participantID
}

func (o *testObserver) OnSaveStarted(ctx context.Context, workflowID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.saveStart++
	o.lastStartID = workflowID
}

func (o *testObserver) OnSaveFinished(ctx context.Context, workflowID string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.saveDone++
	o.lastSaveID = workflowID
	o.lastSaveErr = err
}

// recordingHandler is a minimal slog.Handler that just records log records.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

func (h *recordingHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	// Copy to avoid reuse issues.
	cpy := slog.Record{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
	}
	r.Attrs(func(a slog.Attr) bool {
		cpy.AddAttrs(a)
		return true
	})
	h.records = append(h.records, cpy)
	return nil
}

func (h *recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(name string) slog.Handler      { return h }

//
// NoopObserver
//

func TestNoopObserver_DoesNotPanic(t *testing.T) {
	ctx := context.Background()
	var o Observer = NoopObserver{}

	// These calls should simply not panic.
	o.OnGraphChanged(ctx, GraphChange{Kind: ChangeNodeAdded, NodeID: "n1"})
	o.OnParticipantJoined(ctx, Participant{ID: "p1"})
	o.OnParticipantLeft(ctx, "p1")
	o.OnSaveStarted(ctx, "wf-1")
	o.OnSaveFinished(ctx, "wf-1", errors.New("boom"))
}

//
// CompositeObserver
//

func TestNewCompositeObserver_EmptyReturnsNoop(t *testing.T) {
	o := NewCompositeObserver()
	if _, ok := o.(NoopObserver); !ok {
		t.Fatalf("expected NewCompositeObserver() to return NoopObserver, got %T", o)
	}
}

func TestNewCompositeObserver_SingleReturnsThatObserver(t *testing.T) {
	single := &testObserver{}
	o := NewCompositeObserver(single, nil) // include a nil to ensure it is filtered

	if got, ok := o.(*testObserver); !ok || got != single {
		t.Fatalf("expected the single non-nil observer to be returned, got %T (%p)", o, o)
	}
}

func TestCompositeObserver_ForwardsAllEvents(t *testing.T) {
	ctx := context.Background()

	o1 := &testObserver{}
	o2 := &testObserver{}
	co, ok := NewCompositeObserver(o1, o2).(*CompositeObserver)
	if !ok {
		t.Fatalf("expected *CompositeObserver, got %T", co)
	}

	saveErr := errors.New("save failed")
	change := GraphChange{Kind: ChangeEdgeAdded, EdgeID: "e1"}
	co.OnGraphChanged(ctx, change)
	co.OnParticipantJoined(ctx, Participant{ID: "p1", Primary: true})
	co.OnParticipantLeft(ctx, "p1")
	co.OnSaveStarted(ctx, "wf-1")
	co.OnSaveFinished(ctx, "wf-1", saveErr)

	for i, o := range []*testObserver{o1, o2} {
		if o.changes != 1 || o.joins != 1 || o.leaves != 1 || o.saveStart != 1 || o.saveDone != 1 {
			t.Fatalf("observer %d did not receive all calls: %+v", i+1, o)
		}
		if !reflect.DeepEqual(o.lastChange, change) {
			t.Fatalf("observer %d change mismatch: %+v", i+1, o.lastChange)
		}
		if o.lastJoined.ID != "p1" || !o.lastJoined.Primary {
			t.Fatalf("observer %d participant mismatch: %+v", i+1, o.lastJoined)
		}
		if o.lastSaveErr != saveErr {
			t.Fatalf("observer %d save error mismatch", i+1)
		}
	}
}

//
// LoggingObserver
//

func TestLoggingObserver_LogsEveryEvent(t *testing.T) {
	ctx := context.Background()
	h := &recordingHandler{}
	o := NewLoggingObserver(slog.New(h))

	o.OnGraphChanged(ctx, GraphChange{Kind: ChangeNodeAdded, NodeID: "n1"})
	o.OnParticipantJoined(ctx, Participant{ID: "p1"})
	o.OnParticipantLeft(ctx, "p1")
	o.OnSaveStarted(ctx, "wf-1")
	o.OnSaveFinished(ctx, "wf-1", nil)
	o.OnSaveFinished(ctx, "wf-1", errors.New("boom"))

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.records) != 6 {
		t.Fatalf("expected 6 log records, got %d", len(h.records))
	}
	if h.records[0].Message != "graph_changed" {
		t.Fatalf("unexpected first message %q", h.records[0].Message)
	}
	// Failed saves log at warn level; successful ones at info.
	if h.records[4].Level != slog.LevelInfo {
		t.Fatalf("successful save logged at %v", h.records[4].Level)
	}
	if h.records[5].Level != slog.LevelWarn {
		t.Fatalf("failed save logged at %v", h.records[5].Level)
	}
}

//
// BasicMetrics
//

func TestBasicMetrics_Counts(t *testing.T) {
	ctx := context.Background()
	m := &BasicMetrics{}

	m.OnGraphChanged(ctx, GraphChange{Kind: ChangeNodeAdded})
	m.OnGraphChanged(ctx, GraphChange{Kind: ChangeNodeRemoved})
	m.OnParticipantJoined(ctx, Participant{ID: "p1"})
	m.OnParticipantLeft(ctx, "p1")
	m.OnSaveStarted(ctx, "wf-1")
	m.OnSaveFinished(ctx, "wf-1", nil)
	m.OnSaveStarted(ctx, "wf-1")
	m.OnSaveFinished(ctx, "wf-1", errors.New("boom"))

	snap := m.Snapshot()
	if snap.MutationsApplied != 2 {
		t.Fatalf("MutationsApplied = %d, want 2", snap.MutationsApplied)
	}
	if snap.ParticipantJoins != 1 || snap.ParticipantExits != 1 {
		t.Fatalf("participant counts = %d/%d, want 1/1", snap.ParticipantJoins, snap.ParticipantExits)
	}
	if snap.SavesStarted != 2 || snap.SavesSucceeded != 1 || snap.SavesFailed != 1 {
		t.Fatalf("save counts = %d/%d/%d, want 2/1/1",
			snap.SavesStarted, snap.SavesSucceeded, snap.SavesFailed)
	}
}
