package flowboard

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// LocalSession bundles an in-memory transport, an in-process presence broker,
// and a block catalog to provide a simple single-process editing environment
// for development and debugging.
//
// Typical usage:
//
//	local := flowboard.NewLocalSession(flowboard.Identity{UserID: "dev"})
//	wf, _ := local.CreateWorkflow(ctx, "demo", "")
//
//	sess, _ := local.OpenWorkflow(ctx, wf.ID, nil)
//	defer local.Close()
//
//	n, _ := sess.AddNode(ctx, flowboard.NodeSpec{Type: "http_trigger"})
//	...
//	_, err := sess.Save(ctx)
type LocalSession struct {
	// Transport is the in-memory store holding every workflow.
	Transport *MemoryTransport

	// Presence fans presence events out between sessions opened here.
	Presence *PresenceBroker

	// Service lists and creates workflows on Transport.
	Service *Service

	sessions SessionProvider
	catalog  *Catalog

	mu   sync.Mutex
	open []*Session
}

// NewLocalSession constructs a LocalSession for the given identity. When
// block types are given they form a closed catalog and sessions reject any
// other node type; with none, node types are stored unchecked.
//
// This is intended for local development, tests, and single-user tooling.
func NewLocalSession(identity Identity, types ...BlockType) *LocalSession {
	var cat *Catalog
	if len(types) > 0 {
		cat = NewCatalog(types...)
	}

	tr := NewMemoryTransport()
	sessions := StaticSession(SessionInfo{
		Token: Token(uuid.NewString()),
		User:  identity,
	})

	return &LocalSession{
		Transport: tr,
		Presence:  NewPresenceBroker(),
		Service:   NewService(tr, sessions),
		sessions:  sessions,
		catalog:   cat,
	}
}

// CreateWorkflow registers a new empty workflow on the local transport.
func (l *LocalSession) CreateWorkflow(ctx context.Context, name, description string) (WorkflowSummary, error) {
	return l.Service.CreateWorkflow(ctx, name, description)
}

// Workflows lists the workflows on the local transport in creation order.
func (l *LocalSession) Workflows(ctx context.Context) ([]WorkflowSummary, error) {
	return l.Service.Workflows(ctx)
}

// OpenWorkflow loads a workflow's last saved graph and opens an editing
// session on it. The observer may be nil. Sessions opened here share the
// local presence broker, so they see each other join and leave.
func (l *LocalSession) OpenWorkflow(ctx context.Context, workflowID string, obs Observer) (*Session, error) {
	info, err := l.sessions.Current(ctx)
	if err != nil {
		return nil, err
	}

	snap, err := l.Transport.Load(ctx, info.Token, workflowID)
	if err != nil {
		return nil, err
	}

	all, err := l.Transport.GetAll(ctx, info.Token)
	if err != nil {
		return nil, err
	}
	var workflow WorkflowSummary
	for _, wf := range all {
		if wf.ID == workflowID {
			workflow = wf
			break
		}
	}

	sess, err := OpenSession(ctx, SessionConfig{
		Transport: l.Transport,
		Sessions:  l.sessions,
		Observer:  obs,
		Catalog:   l.catalog,
		Presence:  l.Presence,
	}, workflow, snap)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.open = append(l.open, sess)
	l.mu.Unlock()
	return sess, nil
}

// Close closes every session opened through OpenWorkflow.
func (l *LocalSession) Close() {
	l.mu.Lock()
	open := l.open
	l.open = nil
	l.mu.Unlock()

	for _, s := range open {
		s.Close()
	}
}
