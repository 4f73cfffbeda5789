package api

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// ChangeKind identifies the mutation carried by a GraphChange.
type ChangeKind string

const (
	ChangeNodeAdded   ChangeKind = "node_added"
	ChangeNodeUpdated ChangeKind = "node_updated"
	ChangeNodeRemoved ChangeKind = "node_removed"
	ChangeEdgeAdded   ChangeKind = "edge_added"
	ChangeEdgeRemoved ChangeKind = "edge_removed"
)

// GraphChange describes one accepted mutation. Changes are delivered to
// observers in the order the mutations were applied.
type GraphChange struct {
	Kind   ChangeKind
	NodeID string
	EdgeID string

	// CascadeEdgeIDs lists the edges removed as a side effect of a node
	// removal, in their original insertion order.
	CascadeEdgeIDs []string
}

// SaveState is the save orchestrator's current phase.
type SaveState string

const (
	SaveIdle       SaveState = "IDLE"
	SaveValidating SaveState = "VALIDATING"
	SavePersisting SaveState = "PERSISTING"
)

// Observer receives callbacks from a workflow session for rendering, logging
// and metrics.
//
// Implementations should be fast and non-blocking; heavy work should be done
// asynchronously so as not to delay the editing session.
type Observer interface {
	// OnGraphChanged is called after every accepted mutation, in application
	// order.
	OnGraphChanged(ctx context.Context, change GraphChange)

	// OnParticipantJoined is called when a remote participant joins the
	// workflow, including refreshes of an already-known participant.
	OnParticipantJoined(ctx context.Context, p Participant)

	// OnParticipantLeft is called when a participant leaves or their presence
	// expires.
	OnParticipantLeft(ctx context.Context, participantID string)

	// OnSaveStarted is called when a save attempt begins validating.
	OnSaveStarted(ctx context.Context, workflowID string)

	// OnSaveFinished is called when a save attempt ends, for both successes
	// and failures (err != nil).
	OnSaveFinished(ctx context.Context, workflowID string, err error)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnGraphChanged(ctx context.Context, change GraphChange)      {}
func (NoopObserver) OnParticipantJoined(ctx context.Context, p Participant)      {}
func (NoopObserver) OnParticipantLeft(ctx context.Context, participantID string) {}
func (NoopObserver) OnSaveStarted(ctx context.Context, workflowID string)        {}
func (NoopObserver) OnSaveFinished(ctx context.Context, workflowID string, err error) {
}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnGraphChanged(ctx context.Context, change GraphChange) {
	for _, o := range c.observers {
		o.OnGraphChanged(ctx, change)
	}
}

func (c *CompositeObserver) OnParticipantJoined(ctx context.Context, p Participant) {
	for _, o := range c.observers {
		o.OnParticipantJoined(ctx, p)
	}
}

func (c *CompositeObserver) OnParticipantLeft(ctx context.Context, participantID string) {
	for _, o := range c.observers {
		o.OnParticipantLeft(ctx, participantID)
	}
}

func (c *CompositeObserver) OnSaveStarted(ctx context.Context, workflowID string) {
	for _, o := range c.observers {
		o.OnSaveStarted(ctx, workflowID)
	}
}

func (c *CompositeObserver) OnSaveFinished(ctx context.Context, workflowID string, err error) {
	for _, o := range c.observers {
		o.OnSaveFinished(ctx, workflowID, err)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs session lifecycle events
// using the provided slog.Logger. If logger is nil, slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnGraphChanged(ctx context.Context, change GraphChange) {
	o.Logger.DebugContext(ctx, "graph_changed",
		slog.String("kind", string(change.Kind)),
		slog.String("node_id", change.NodeID),
		slog.String("edge_id", change.EdgeID),
	)
}

func (o *LoggingObserver) OnParticipantJoined(ctx context.Context, p Participant) {
	o.Logger.InfoContext(ctx, "participant_joined",
		slog.String("participant_id", p.ID),
		slog.Bool("primary", p.Primary),
	)
}

func (o *LoggingObserver) OnParticipantLeft(ctx context.Context, participantID string) {
	o.Logger.InfoContext(ctx, "participant_left",
		slog.String("participant_id", participantID),
	)
}

func (o *LoggingObserver) OnSaveStarted(ctx context.Context, workflowID string) {
	o.Logger.InfoContext(ctx, "save_started",
		slog.String("workflow_id", workflowID),
	)
}

func (o *LoggingObserver) OnSaveFinished(ctx context.Context, workflowID string, err error) {
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
	}
	o.Logger.Log(ctx, level, "save_finished",
		slog.String("workflow_id", workflowID),
		slog.Any("error", err),
	)
}

// BasicMetrics collects simple counters for session activity.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	mutationsApplied atomic.Int64
	participantJoins atomic.Int64
	participantExits atomic.Int64
	savesStarted     atomic.Int64
	savesSucceeded   atomic.Int64
	savesFailed      atomic.Int64
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	MutationsApplied int64
	ParticipantJoins int64
	ParticipantExits int64
	SavesStarted     int64
	SavesSucceeded   int64
	SavesFailed      int64
}

func (m *BasicMetrics) OnGraphChanged(ctx context.Context, change GraphChange) {
	m.mutationsApplied.Add(1)
}

func (m *BasicMetrics) OnParticipantJoined(ctx context.Context, p Participant) {
	m.participantJoins.Add(1)
}

func (m *BasicMetrics) OnParticipantLeft(ctx context.Context, participantID string) {
	m.participantExits.Add(1)
}

func (m *BasicMetrics) OnSaveStarted(ctx context.Context, workflowID string) {
	m.savesStarted.Add(1)
}

func (m *BasicMetrics) OnSaveFinished(ctx context.Context, workflowID string, err error) {
	if err != nil {
		m.savesFailed.Add(1)
		return
	}
	m.savesSucceeded.Add(1)
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	return BasicMetricsSnapshot{
		MutationsApplied: m.mutationsApplied.Load(),
		ParticipantJoins: m.participantJoins.Load(),
		ParticipantExits: m.participantExits.Load(),
		SavesStarted:     m.savesStarted.Load(),
		SavesSucceeded:   m.savesSucceeded.Load(),
		SavesFailed:      m.savesFailed.Load(),
	}
}
