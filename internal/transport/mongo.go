package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/flowboard/flowboard/internal/validate"
	"github.com/flowboard/flowboard/pkg/api"
)

// MongoStore is a Transport backed by MongoDB.
type MongoStore struct {
	coll   *mongo.Collection
	policy validate.Policy
}

var _ api.Transport = (*MongoStore)(nil)

type mongoWorkflowDoc struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description,omitempty"`
	Graph       []byte    `bson:"graph,omitempty"`
	CreatedAt   time.Time `bson:"created_at"`
}

// NewMongoStore creates a Mongo-backed workflow store.
// dbName defaults to "flowboard" if empty, collName defaults to "workflows".
func NewMongoStore(client *mongo.Client, dbName, collName string) *MongoStore {
	if dbName == "" {
		dbName = "flowboard"
	}
	if collName == "" {
		collName = "workflows"
	}
	return &MongoStore{
		coll:   client.Database(dbName).Collection(collName),
		policy: validate.DefaultPolicy(),
	}
}

func (s *MongoStore) GetAll(ctx context.Context, token api.Token) ([]api.WorkflowSummary, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, classifyMongo(err)
	}
	defer cur.Close(ctx)

	var out []api.WorkflowSummary
	for cur.Next(ctx) {
		var doc mongoWorkflowDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, api.NewTransportError(api.TransportUnknown, err)
		}
		out = append(out, api.WorkflowSummary{
			ID:          doc.ID,
			Name:        doc.Name,
			Description: doc.Description,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, classifyMongo(err)
	}
	return out, nil
}

func (s *MongoStore) Create(ctx context.Context, token api.Token, name, description string) (api.WorkflowSummary, error) {
	wf := api.WorkflowSummary{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
	}
	doc := mongoWorkflowDoc{
		ID:          wf.ID,
		Name:        wf.Name,
		Description: wf.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return api.WorkflowSummary{}, classifyMongo(err)
	}
	return wf, nil
}

func (s *MongoStore) Save(ctx context.Context, token api.Token, workflowID string, snapshot api.GraphSnapshot) (api.WorkflowSummary, error) {
	if res := validate.Graph(snapshot, s.policy); !res.Valid() {
		return api.WorkflowSummary{}, api.NewTransportError(api.Rejected, res.Err())
	}

	data, err := EncodeSnapshot(snapshot)
	if err != nil {
		return api.WorkflowSummary{}, api.NewTransportError(api.TransportUnknown, err)
	}

	res, err := s.coll.UpdateByID(ctx, workflowID, bson.M{"$set": bson.M{"graph": data}})
	if err != nil {
		return api.WorkflowSummary{}, classifyMongo(err)
	}
	if res.MatchedCount == 0 {
		return api.WorkflowSummary{}, api.NewTransportError(api.Rejected,
			fmt.Errorf("%w: %s", api.ErrWorkflowNotFound, workflowID))
	}

	var doc mongoWorkflowDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": workflowID}).Decode(&doc); err != nil {
		return api.WorkflowSummary{}, classifyMongo(err)
	}
	return api.WorkflowSummary{
		ID:          doc.ID,
		Name:        doc.Name,
		Description: doc.Description,
	}, nil
}

// Load returns the last persisted snapshot for a workflow.
func (s *MongoStore) Load(ctx context.Context, token api.Token, workflowID string) (api.GraphSnapshot, error) {
	var doc mongoWorkflowDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": workflowID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return api.GraphSnapshot{}, api.ErrWorkflowNotFound
		}
		return api.GraphSnapshot{}, classifyMongo(err)
	}
	return DecodeSnapshot(doc.Graph)
}

func classifyMongo(err error) error {
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return api.NewTransportError(api.NetworkUnavailable, err)
	}
	return api.NewTransportError(api.TransportUnknown, err)
}
