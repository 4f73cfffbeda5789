// Package session implements the workflow graph editing session: the mutation
// API over the in-memory graph, change notification, presence tracking, and
// the validate-then-persist save orchestration.
//
// Concurrency model: one session serializes all graph mutations behind a
// mutex, so callers observe them as atomic and in order. Presence events are
// merged on a background goroutine without touching the graph lock, and Save
// releases the lock while the transport call is in flight so optimistic
// editing can continue.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/flowboard/flowboard/internal/catalog"
	"github.com/flowboard/flowboard/internal/graph"
	"github.com/flowboard/flowboard/internal/validate"
	"github.com/flowboard/flowboard/pkg/api"
)

// DefaultPresenceTTL is how long a participant survives without a heartbeat
// before the tracker drops it.
const DefaultPresenceTTL = 30 * time.Second

// Config describes how to construct a Session.
type Config struct {
	// Transport persists workflows. Required.
	Transport api.Transport

	// Sessions supplies the current user's token and identity. Required;
	// a session that cannot resolve a user permits no operations.
	Sessions api.SessionProvider

	// Observer receives change, presence and save events. Optional.
	Observer api.Observer

	// Catalog, when set, closes the set of block types: AddNode rejects tags
	// the catalog does not know. When nil, type tags are stored unchecked.
	Catalog *catalog.Catalog

	// Gateway backs the third-party channel selector. Optional.
	Gateway api.IntegrationGateway

	// Presence delivers remote join/leave notifications. Optional; without
	// it the session tracks no remote participants.
	Presence api.PresenceChannel

	// PresenceTTL bounds how long a silent participant stays listed.
	// Zero means DefaultPresenceTTL.
	PresenceTTL time.Duration

	// Policy tunes save-time validation. Nil means validate.DefaultPolicy.
	Policy *validate.Policy

	// Graph sets per-graph policies such as duplicate-edge handling.
	Graph graph.Options
}

// Session is one open workflow being edited. All methods are safe for
// concurrent use.
type Session struct {
	mu       sync.Mutex
	graph    *graph.Graph
	workflow api.WorkflowSummary

	saveState api.SaveState
	saving    bool

	transport   api.Transport
	observer    api.Observer
	catalog     *catalog.Catalog
	gateway     api.IntegrationGateway
	policy      validate.Policy
	token       api.Token
	self        api.Identity
	tracker     *Tracker
	presenceTTL time.Duration
	presence    api.PresenceChannel

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Open resolves the current user, rebuilds the graph from snap, and starts
// the presence loop when a channel is configured. The returned session edits
// exactly the given workflow until Close.
func Open(ctx context.Context, cfg Config, workflow api.WorkflowSummary, snap api.GraphSnapshot) (*Session, error) {
	if cfg.Transport == nil {
		return nil, errors.New("session: transport is required")
	}
	if cfg.Sessions == nil {
		return nil, api.ErrNoSession
	}
	info, err := cfg.Sessions.Current(ctx)
	if err != nil {
		return nil, err
	}

	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	policy := validate.DefaultPolicy()
	if cfg.Policy != nil {
		policy = *cfg.Policy
	}
	ttl := cfg.PresenceTTL
	if ttl == 0 {
		ttl = DefaultPresenceTTL
	}

	s := &Session{
		graph:       graph.Load(snap, cfg.Graph),
		workflow:    workflow,
		saveState:   api.SaveIdle,
		transport:   cfg.Transport,
		observer:    obs,
		catalog:     cfg.Catalog,
		gateway:     cfg.Gateway,
		policy:      policy,
		token:       info.Token,
		self:        info.User,
		tracker:     NewTracker(),
		presenceTTL: ttl,
	}

	if cfg.Presence != nil {
		s.presence = cfg.Presence
		loopCtx, cancel := context.WithCancel(context.Background())
		events, err := cfg.Presence.Subscribe(loopCtx, workflow.ID)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("session: presence subscribe: %w", err)
		}
		s.cancel = cancel
		s.wg.Add(1)
		go s.runPresence(loopCtx, events)

		// Best effort: announce ourselves. Presence is advisory, so a failed
		// announce does not fail Open.
		_ = cfg.Presence.Publish(ctx, api.PresenceEvent{
			Kind:          api.PresenceJoin,
			WorkflowID:    workflow.ID,
			ParticipantID: info.User.UserID,
			Identity:      info.User,
		})
	}

	return s, nil
}

// Close announces the local user's departure, stops the presence loop, and
// waits for it to drain. The graph stays readable afterwards. Closing more
// than once is a no-op.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.presence != nil {
			s.mu.Lock()
			workflowID := s.workflow.ID
			s.mu.Unlock()

			// Best effort, mirroring the join announcement in Open. Peers
			// that miss it still drop us once the TTL sweep runs.
			_ = s.presence.Publish(context.Background(), api.PresenceEvent{
				Kind:          api.PresenceLeave,
				WorkflowID:    workflowID,
				ParticipantID: s.self.UserID,
				Identity:      s.self,
			})
		}
		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()
	})
}

// Workflow returns the summary of the workflow this session edits. It is
// refreshed by a successful Save.
func (s *Session) Workflow() api.WorkflowSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workflow
}

// AddNode places a new block on the canvas.
func (s *Session) AddNode(ctx context.Context, spec api.NodeSpec) (api.Node, error) {
	if s.catalog != nil {
		if _, ok := s.catalog.Get(spec.Type); !ok {
			return api.Node{}, fmt.Errorf("%w: %s", api.ErrUnknownBlockType, spec.Type)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	node := s.graph.AddNode(spec)
	s.observer.OnGraphChanged(ctx, api.GraphChange{
		Kind:   api.ChangeNodeAdded,
		NodeID: node.ID,
	})
	return node, nil
}

// UpdateNode merges patch into an existing node.
func (s *Session) UpdateNode(ctx context.Context, id string, patch api.NodePatch) (api.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, err := s.graph.UpdateNode(id, patch)
	if err != nil {
		return api.Node{}, err
	}
	s.observer.OnGraphChanged(ctx, api.GraphChange{
		Kind:   api.ChangeNodeUpdated,
		NodeID: node.ID,
	})
	return node, nil
}

// RemoveNode deletes a node and every edge touching it. Removing an absent
// id is a no-op and emits no change.
func (s *Session) RemoveNode(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, cascaded := s.graph.RemoveNode(id)
	if !removed {
		return
	}
	s.observer.OnGraphChanged(ctx, api.GraphChange{
		Kind:           api.ChangeNodeRemoved,
		NodeID:         id,
		CascadeEdgeIDs: cascaded,
	})
}

// Connect adds a directed edge. Cycles are permitted here; they are caught at
// save time so mid-edit states may be transiently invalid.
func (s *Session) Connect(ctx context.Context, source, target, port string) (api.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	edge, err := s.graph.AddEdge(source, target, port)
	if err != nil {
		return api.Edge{}, err
	}
	s.observer.OnGraphChanged(ctx, api.GraphChange{
		Kind:   api.ChangeEdgeAdded,
		EdgeID: edge.ID,
	})
	return edge, nil
}

// Disconnect removes an edge. Removing an absent id is a no-op.
func (s *Session) Disconnect(ctx context.Context, edgeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.graph.RemoveEdge(edgeID) {
		return
	}
	s.observer.OnGraphChanged(ctx, api.GraphChange{
		Kind:   api.ChangeEdgeRemoved,
		EdgeID: edgeID,
	})
}

// Node returns a copy of one node.
func (s *Session) Node(id string) (api.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Node(id)
}

// Nodes returns all nodes in insertion order.
func (s *Session) Nodes() []api.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Nodes()
}

// Edges returns all edges in insertion order.
func (s *Session) Edges() []api.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Edges()
}

// Snapshot returns an immutable copy of the current graph.
func (s *Session) Snapshot() api.GraphSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Snapshot()
}

// Validate runs the structural checks without attempting a save.
func (s *Session) Validate() api.ValidationResult {
	return validate.Graph(s.Snapshot(), s.policy)
}

// Participants lists remote presence entries, most recent joiner first.
func (s *Session) Participants() []api.Participant {
	return s.tracker.List()
}

// ChannelOptions reports the integration handshake state for a service and,
// once connected, the selectable channels.
func (s *Session) ChannelOptions(ctx context.Context, service string) (api.ConnectionState, []api.ChannelInfo, error) {
	if s.gateway == nil {
		return api.Disconnected, nil, errors.New("session: no integration gateway configured")
	}
	channels, err := s.gateway.GetInfo(ctx, service)
	if err != nil {
		if errors.Is(err, api.ErrNotConnected) {
			return api.Disconnected, nil, nil
		}
		return api.Disconnected, nil, err
	}
	return api.Connected, channels, nil
}

// BeginInstall starts the out-of-band authorization redirect for a service
// and returns the URL the caller should navigate to.
func (s *Session) BeginInstall(ctx context.Context, service, returnPath string) (string, error) {
	if s.gateway == nil {
		return "", errors.New("session: no integration gateway configured")
	}
	return s.gateway.Install(ctx, service, returnPath)
}

// AssignChannel feeds a selected channel id into a node's input under the
// given key.
func (s *Session) AssignChannel(ctx context.Context, nodeID, inputKey, channelID string) (api.Node, error) {
	return s.UpdateNode(ctx, nodeID, api.NodePatch{
		Input: map[string]any{inputKey: channelID},
	})
}

// Service exposes the workflow listing and creation operations that sit
// outside any single editing session.
type Service struct {
	transport api.Transport
	sessions  api.SessionProvider
}

// NewService wires a transport and session provider.
func NewService(transport api.Transport, sessions api.SessionProvider) *Service {
	return &Service{transport: transport, sessions: sessions}
}

// Workflows lists the workflows visible to the current user.
func (s *Service) Workflows(ctx context.Context) ([]api.WorkflowSummary, error) {
	info, err := s.sessions.Current(ctx)
	if err != nil {
		return nil, err
	}
	return s.transport.GetAll(ctx, info.Token)
}

// CreateWorkflow registers a new, empty workflow.
func (s *Service) CreateWorkflow(ctx context.Context, name, description string) (api.WorkflowSummary, error) {
	info, err := s.sessions.Current(ctx)
	if err != nil {
		return api.WorkflowSummary{}, err
	}
	return s.transport.Create(ctx, info.Token, name, description)
}
