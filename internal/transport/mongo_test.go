package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/flowboard/flowboard/internal/testutil"
	"github.com/flowboard/flowboard/pkg/api"
)

type MongoStoreTestSuite struct {
	suite.Suite
	ctx      context.Context
	client   *mongo.Client
	store    *MongoStore
	dbName   string
	collName string
}

func TestMongoStoreTestSuite(t *testing.T) {
	ts := new(MongoStoreTestSuite)
	uri := testutil.GetMongoURI(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("mongo.Connect failed: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})

	ts.ctx = context.Background()
	ts.client = client
	ts.dbName = "flowboard_test"
	ts.collName = "workflows_test"
	ts.store = NewMongoStore(client, ts.dbName, ts.collName)

	suite.Run(t, ts)
}

func (m *MongoStoreTestSuite) SetupTest() {
	coll := m.client.Database(m.dbName).Collection(m.collName)
	m.Require().NoError(coll.Drop(m.ctx))
}

func (m *MongoStoreTestSuite) TestCreateListOrder() {
	first, err := m.store.Create(m.ctx, "tok", "alpha", "first")
	m.Require().NoError(err)
	second, err := m.store.Create(m.ctx, "tok", "beta", "second")
	m.Require().NoError(err)

	all, err := m.store.GetAll(m.ctx, "tok")
	m.Require().NoError(err)
	m.Require().Len(all, 2)
	m.Equal(first.ID, all[0].ID)
	m.Equal(second.ID, all[1].ID)
}

func (m *MongoStoreTestSuite) TestSaveLoadRoundTrip() {
	wf, err := m.store.Create(m.ctx, "tok", "alpha", "")
	m.Require().NoError(err)

	saved, err := m.store.Save(m.ctx, "tok", wf.ID, validSnapshot())
	m.Require().NoError(err)
	m.Equal(wf.ID, saved.ID)

	got, err := m.store.Load(m.ctx, "tok", wf.ID)
	m.Require().NoError(err)
	m.Require().Len(got.Nodes, 2)
	m.Require().Len(got.Edges, 1)
}

func (m *MongoStoreTestSuite) TestSaveRejectsInvalidGraph() {
	wf, err := m.store.Create(m.ctx, "tok", "alpha", "")
	m.Require().NoError(err)

	_, err = m.store.Save(m.ctx, "tok", wf.ID, cyclicSnapshot())
	kind, ok := api.TransportKind(err)
	m.Require().True(ok, "expected a transport error, got %v", err)
	m.Equal(api.Rejected, kind)
}

func (m *MongoStoreTestSuite) TestSaveUnknownWorkflow() {
	_, err := m.store.Save(m.ctx, "tok", "no-such-id", validSnapshot())
	kind, ok := api.TransportKind(err)
	m.Require().True(ok, "expected a transport error, got %v", err)
	m.Equal(api.Rejected, kind)
}

func (m *MongoStoreTestSuite) TestLoadUnknownWorkflow() {
	_, err := m.store.Load(m.ctx, "tok", "no-such-id")
	m.True(errors.Is(err, api.ErrWorkflowNotFound), "got %v", err)
}
