// Package api contains the core building blocks used by the flowboard
// workflow graph session engine. It provides the graph data types, change
// events, validation verdicts, typed error kinds, and the interfaces of the
// external collaborators the engine consumes.
//
// Most users interact with the higher-level flowboard package, which
// re-exports selected types and helpers from this package. The api package is
// intended for custom integrations, alternative transports and presence
// channels, or contributors extending the engine itself.
//
// # Concepts
//
// The api package centers around a small set of concepts:
//
//   - Graph data: Node, Edge, GraphSnapshot
//   - Change events and the Observer interface
//   - Validation results and typed errors
//   - Collaborator contracts: Transport, SessionProvider, PresenceChannel,
//     IntegrationGateway
//
// # Graph Data
//
// A workflow is a directed graph of typed blocks. Nodes carry an opaque type
// tag, an input map whose shape depends on the type, and a canvas position.
// Edges connect node ids; a saved workflow must be a DAG, but the engine
// deliberately allows cycles while editing so they can be introduced and
// resolved mid-edit. GraphSnapshot is the immutable form handed to validation
// and to the transport on save.
//
// # Observability
//
// Every accepted mutation is delivered to an Observer as a GraphChange, in
// the order the mutations were applied. Presence joins/leaves and save
// attempts are reported through the same interface.
//
// Ready-made implementations are provided: NoopObserver, LoggingObserver
// (log/slog), BasicMetrics (atomic counters with a Snapshot method), and
// NewCompositeObserver to combine them.
//
// # Errors
//
// All recoverable conditions are typed: sentinel errors for local mutation
// failures (ErrNotFound, ErrInvalidReference, ErrSaveInProgress, ...),
// ValidationError carrying the structural issues that block a save, and
// TransportError classifying persistence failures into NetworkUnavailable,
// Rejected, or TransportUnknown. Callers branch with errors.Is / errors.As
// and the helpers TransportKind and IsValidationError, never on error text.
//
// # Usage
//
// Most applications should start from the flowboard package, using the
// session constructors and GraphBuilder provided there. The api package is
// useful when you need to implement a collaborator interface or consume the
// engine's events directly.
package api
