// Package transport implements the persistence collaborator: stores that
// hold workflow summaries and graph snapshots behind the api.Transport
// contract. Every store re-runs structural validation on Save and declines
// invalid graphs with a Rejected transport error, the same authoritative gate
// a real server applies.
package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/flowboard/flowboard/internal/validate"
	"github.com/flowboard/flowboard/pkg/api"
)

// MemoryStore is a goroutine-safe in-memory Transport, the default for tests
// and the LocalSession.
type MemoryStore struct {
	mu        sync.RWMutex
	order     []string
	summaries map[string]api.WorkflowSummary
	graphs    map[string][]byte
	policy    validate.Policy
}

var _ api.Transport = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store that validates saves with the
// default policy.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		summaries: make(map[string]api.WorkflowSummary),
		graphs:    make(map[string][]byte),
		policy:    validate.DefaultPolicy(),
	}
}

func (s *MemoryStore) GetAll(ctx context.Context, token api.Token) ([]api.WorkflowSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]api.WorkflowSummary, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.summaries[id])
	}
	return out, nil
}

func (s *MemoryStore) Create(ctx context.Context, token api.Token, name, description string) (api.WorkflowSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wf := api.WorkflowSummary{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
	}
	s.summaries[wf.ID] = wf
	s.order = append(s.order, wf.ID)
	return wf, nil
}

func (s *MemoryStore) Save(ctx context.Context, token api.Token, workflowID string, snapshot api.GraphSnapshot) (api.WorkflowSummary, error) {
	if res := validate.Graph(snapshot, s.policy); !res.Valid() {
		return api.WorkflowSummary{}, api.NewTransportError(api.Rejected, res.Err())
	}

	data, err := EncodeSnapshot(snapshot)
	if err != nil {
		return api.WorkflowSummary{}, api.NewTransportError(api.TransportUnknown, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wf, ok := s.summaries[workflowID]
	if !ok {
		return api.WorkflowSummary{}, api.NewTransportError(api.Rejected,
			fmt.Errorf("%w: %s", api.ErrWorkflowNotFound, workflowID))
	}
	s.graphs[workflowID] = data
	return wf, nil
}

// Load returns the last persisted snapshot for a workflow. A workflow that
// was created but never saved loads as an empty graph.
func (s *MemoryStore) Load(ctx context.Context, token api.Token, workflowID string) (api.GraphSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.summaries[workflowID]; !ok {
		return api.GraphSnapshot{}, api.ErrWorkflowNotFound
	}
	return DecodeSnapshot(s.graphs[workflowID])
}
