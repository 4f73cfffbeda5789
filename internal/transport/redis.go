package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/flowboard/flowboard/internal/validate"
	"github.com/flowboard/flowboard/pkg/api"
)

// RedisStore is a Transport backed by Redis. It uses a simple key structure:
//
//	<prefix>wf:<id>   => JSON-encoded redisWorkflowPayload
//	<prefix>idx:all   => LIST of workflow IDs in creation order
//
// The list index preserves the creation order that GetAll must return.
type RedisStore struct {
	client *redis.Client
	prefix string
	policy validate.Policy
}

var _ api.Transport = (*RedisStore)(nil)

type redisWorkflowPayload struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Graph       json.RawMessage `json:"graph,omitempty"`
}

// NewRedisStore creates a RedisStore.
// prefix is optional but recommended (e.g. "flowboard:").
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "flowboard:"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		policy: validate.DefaultPolicy(),
	}
}

func (s *RedisStore) keyWorkflow(id string) string { return s.prefix + "wf:" + id }
func (s *RedisStore) keyAll() string               { return s.prefix + "idx:all" }

// classifyRedis maps connectivity failures to NetworkUnavailable and
// everything else to the unknown kind.
func classifyRedis(err error) error {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return api.NewTransportError(api.NetworkUnavailable, err)
	}
	return api.NewTransportError(api.TransportUnknown, err)
}

func (s *RedisStore) GetAll(ctx context.Context, token api.Token) ([]api.WorkflowSummary, error) {
	ids, err := s.client.LRange(ctx, s.keyAll(), 0, -1).Result()
	if err != nil {
		return nil, classifyRedis(err)
	}

	var out []api.WorkflowSummary
	for _, id := range ids {
		payload, err := s.getPayload(ctx, id)
		if err != nil {
			if errors.Is(err, api.ErrWorkflowNotFound) {
				// Index entry without a document; skip rather than fail the
				// whole listing.
				continue
			}
			return nil, err
		}
		out = append(out, api.WorkflowSummary{
			ID:          payload.ID,
			Name:        payload.Name,
			Description: payload.Description,
		})
	}
	return out, nil
}

func (s *RedisStore) Create(ctx context.Context, token api.Token, name, description string) (api.WorkflowSummary, error) {
	wf := api.WorkflowSummary{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
	}
	payload := redisWorkflowPayload{ID: wf.ID, Name: wf.Name, Description: wf.Description}
	data, err := json.Marshal(payload)
	if err != nil {
		return api.WorkflowSummary{}, api.NewTransportError(api.TransportUnknown, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.keyWorkflow(wf.ID), data, 0)
	pipe.RPush(ctx, s.keyAll(), wf.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return api.WorkflowSummary{}, classifyRedis(err)
	}
	return wf, nil
}

func (s *RedisStore) Save(ctx context.Context, token api.Token, workflowID string, snapshot api.GraphSnapshot) (api.WorkflowSummary, error) {
	if res := validate.Graph(snapshot, s.policy); !res.Valid() {
		return api.WorkflowSummary{}, api.NewTransportError(api.Rejected, res.Err())
	}

	payload, err := s.getPayload(ctx, workflowID)
	if err != nil {
		if errors.Is(err, api.ErrWorkflowNotFound) {
			return api.WorkflowSummary{}, api.NewTransportError(api.Rejected,
				fmt.Errorf("%w: %s", api.ErrWorkflowNotFound, workflowID))
		}
		return api.WorkflowSummary{}, err
	}

	graph, err := EncodeSnapshot(snapshot)
	if err != nil {
		return api.WorkflowSummary{}, api.NewTransportError(api.TransportUnknown, err)
	}
	payload.Graph = graph

	data, err := json.Marshal(payload)
	if err != nil {
		return api.WorkflowSummary{}, api.NewTransportError(api.TransportUnknown, err)
	}
	if err := s.client.Set(ctx, s.keyWorkflow(workflowID), data, 0).Err(); err != nil {
		return api.WorkflowSummary{}, classifyRedis(err)
	}

	return api.WorkflowSummary{
		ID:          payload.ID,
		Name:        payload.Name,
		Description: payload.Description,
	}, nil
}

// Load returns the last persisted snapshot for a workflow.
func (s *RedisStore) Load(ctx context.Context, token api.Token, workflowID string) (api.GraphSnapshot, error) {
	payload, err := s.getPayload(ctx, workflowID)
	if err != nil {
		return api.GraphSnapshot{}, err
	}
	return DecodeSnapshot(payload.Graph)
}

func (s *RedisStore) getPayload(ctx context.Context, id string) (redisWorkflowPayload, error) {
	data, err := s.client.Get(ctx, s.keyWorkflow(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return redisWorkflowPayload{}, api.ErrWorkflowNotFound
		}
		return redisWorkflowPayload{}, classifyRedis(err)
	}
	var payload redisWorkflowPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return redisWorkflowPayload{}, api.NewTransportError(api.TransportUnknown, err)
	}
	return payload, nil
}
