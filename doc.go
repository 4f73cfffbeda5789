// Package flowboard provides an embeddable editing engine for visual
// workflow graphs.
//
// Flowboard is the model layer behind a collaborative canvas editor: it
// holds the graph of blocks and connections being edited, applies mutations,
// notifies observers of every change, tracks who else is present, and
// orchestrates validate-then-persist saves. It deliberately does not execute
// workflows and does not render anything; it is the state machine a UI or a
// tool drives.
//
// # Core Concepts
//
// The programming model is intentionally small:
//
//  1. Session
//  2. Transport
//  3. Observer
//  4. GraphBuilder
//  5. LocalSession
//
// # Session
//
// A Session is one open workflow. It owns the in-memory graph and exposes
// the mutation API:
//   - AddNode / UpdateNode / RemoveNode
//   - Connect / Disconnect
//   - Save
//
// Mutations are applied optimistically and in order; removing a node
// cascades to its edges, and removals of absent elements are silent no-ops.
// Structural validation (dangling edges, cycles, unconnected nodes) runs
// lazily when Save is called, never on individual edits, so intermediate
// invalid states are fine while editing.
//
// Save is a two-phase operation: validate the current snapshot, then hand it
// to the Transport. Only one save runs at a time; a second call during an
// in-flight save fails with ErrSaveInProgress. Editing may continue while a
// save persists; the saved snapshot is the one taken when the save began.
//
// # Transport
//
// A Transport lists, creates and persists workflows. Implementations are
// provided for:
//
//   - In-memory (non-durable, best for tests)
//   - SQLite (embedded durability)
//   - Postgres
//   - Redis
//   - MongoDB
//   - HTTP (a remote workflow service)
//
// Every transport classifies save failures into a TransportError so callers
// can branch on the kind: NetworkUnavailable, Rejected, or unknown. The
// bundled stores re-run validation on Save and decline invalid graphs with a
// Rejected error, like a real server would.
//
// # Observer
//
// Observers receive a callback for every accepted mutation, for participants
// joining and leaving, and for save lifecycle transitions. LoggingObserver
// logs them through log/slog, BasicMetrics counts them, and
// CompositeObserver fans out to several at once.
//
// # GraphBuilder
//
// GraphBuilder assembles graph snapshots declaratively, connecting nodes by
// local refs:
//
//	snap, err := flowboard.NewGraph().
//	    Node("trigger", "http_trigger").
//	    Node("notify", "send_email").
//	    Connect("trigger", "notify").
//	    Snapshot()
//
// # LocalSession
//
// LocalSession bundles the in-memory transport, an in-process presence
// broker and a catalog into a single helper for development and unit
// testing. Sessions opened through it see each other's presence, and saves
// land in process memory.
//
// For multi-process presence, NewRedisPresence bridges the same event
// stream over Redis pub/sub.
package flowboard
