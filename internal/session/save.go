package session

import (
	"context"

	"github.com/flowboard/flowboard/internal/validate"
	"github.com/flowboard/flowboard/pkg/api"
)

// SaveState returns the orchestrator's current phase.
func (s *Session) SaveState() api.SaveState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveState
}

// Save validates the current graph and, when it passes, persists it through
// the transport. Exactly one save may be in flight: a second call while the
// first is validating or persisting returns ErrSaveInProgress and leaves the
// first attempt untouched. Local mutations remain permitted while the
// transport call is pending.
//
// Outcomes:
//   - ValidationError when structural issues block the save
//   - TransportError (NetworkUnavailable / Rejected / TransportUnknown) when
//     the transport fails
//   - ctx.Err() when the caller cancels; the state machine resets to idle
//     and the discarded request is not retried
//
// On success the persisted summary is returned and the session's workflow
// metadata is refreshed.
func (s *Session) Save(ctx context.Context) (api.WorkflowSummary, error) {
	s.mu.Lock()
	if s.saving {
		s.mu.Unlock()
		return api.WorkflowSummary{}, api.ErrSaveInProgress
	}
	s.saving = true
	s.saveState = api.SaveValidating
	snap := s.graph.Snapshot()
	workflowID := s.workflow.ID
	token := s.token
	s.mu.Unlock()

	// Whatever happens below, the machine must come back to idle so the next
	// save can start.
	defer func() {
		s.mu.Lock()
		s.saving = false
		s.saveState = api.SaveIdle
		s.mu.Unlock()
	}()

	s.observer.OnSaveStarted(ctx, workflowID)

	if res := validate.Graph(snap, s.policy); !res.Valid() {
		err := res.Err()
		s.observer.OnSaveFinished(ctx, workflowID, err)
		return api.WorkflowSummary{}, err
	}

	s.mu.Lock()
	s.saveState = api.SavePersisting
	s.mu.Unlock()

	summary, err := s.transport.Save(ctx, token, workflowID, snap)
	if err != nil {
		if ctx.Err() != nil {
			// Cancelled by caller intent. The deferred reset already brings
			// the machine back to idle; report the cancellation itself.
			err = ctx.Err()
		} else if _, ok := api.TransportKind(err); !ok {
			err = api.NewTransportError(api.TransportUnknown, err)
		}
		s.observer.OnSaveFinished(ctx, workflowID, err)
		return api.WorkflowSummary{}, err
	}

	s.mu.Lock()
	s.workflow = summary
	s.mu.Unlock()

	s.observer.OnSaveFinished(ctx, workflowID, nil)
	return summary, nil
}
