package flowboard

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/flowboard/flowboard/internal/catalog"
	"github.com/flowboard/flowboard/internal/graph"
	"github.com/flowboard/flowboard/internal/presence"
	"github.com/flowboard/flowboard/internal/session"
	"github.com/flowboard/flowboard/internal/transport"
	"github.com/flowboard/flowboard/internal/validate"
	"github.com/flowboard/flowboard/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Position         = api.Position
	Node             = api.Node
	Edge             = api.Edge
	NodeSpec         = api.NodeSpec
	NodePatch        = api.NodePatch
	GraphSnapshot    = api.GraphSnapshot
	WorkflowSummary  = api.WorkflowSummary
	ValidationIssue  = api.ValidationIssue
	ValidationResult = api.ValidationResult
	ValidationError  = api.ValidationError
	TransportError   = api.TransportError
	GraphChange      = api.GraphChange
	ChangeKind       = api.ChangeKind
	SaveState        = api.SaveState

	Token           = api.Token
	Identity        = api.Identity
	SessionInfo     = api.SessionInfo
	SessionProvider = api.SessionProvider
	Transport       = api.Transport
	Participant     = api.Participant
	PresenceEvent   = api.PresenceEvent
	PresenceChannel = api.PresenceChannel
	BlockType       = api.BlockType
	ChannelInfo     = api.ChannelInfo
	ConnectionState = api.ConnectionState

	Observer             = api.Observer
	NoopObserver         = api.NoopObserver
	CompositeObserver    = api.CompositeObserver
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
)

// Engine types whose implementations live in internal packages.

type (
	Session          = session.Session
	SessionConfig    = session.Config
	Service          = session.Service
	Catalog          = catalog.Catalog
	GraphOptions     = graph.Options
	ValidationPolicy = validate.Policy

	MemoryTransport   = transport.MemoryStore
	SQLiteTransport   = transport.SQLiteStore
	PostgresTransport = transport.PostgresStore
	RedisTransport    = transport.RedisStore
	MongoTransport    = transport.MongoStore
	HTTPTransport     = transport.HTTPClient

	PresenceBroker = presence.Broker
	RedisPresence  = presence.RedisChannel
)

// Re-export common observer helpers.

var (
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
	StaticSession        = api.StaticSession
)

// Re-export sentinel errors for convenience.

var (
	ErrNotFound         = api.ErrNotFound
	ErrInvalidReference = api.ErrInvalidReference
	ErrDuplicateEdge    = api.ErrDuplicateEdge
	ErrUnknownBlockType = api.ErrUnknownBlockType
	ErrSaveInProgress   = api.ErrSaveInProgress
	ErrNoSession        = api.ErrNoSession
	ErrWorkflowNotFound = api.ErrWorkflowNotFound
)

// Re-export save states and change kinds for convenience.

const (
	SaveIdle       = api.SaveIdle
	SaveValidating = api.SaveValidating
	SavePersisting = api.SavePersisting

	ChangeNodeAdded   = api.ChangeNodeAdded
	ChangeNodeUpdated = api.ChangeNodeUpdated
	ChangeNodeRemoved = api.ChangeNodeRemoved
	ChangeEdgeAdded   = api.ChangeEdgeAdded
	ChangeEdgeRemoved = api.ChangeEdgeRemoved
)

// Transport constructors
// These wrap the internal/transport package so external callers
// never need to import internal packages.

// NewMemoryTransport returns a Transport backed entirely by process memory.
func NewMemoryTransport() *MemoryTransport {
	return transport.NewMemoryStore()
}

// NewSQLiteTransport returns a Transport that persists workflows in a SQLite
// database.
func NewSQLiteTransport(db *sql.DB) (*SQLiteTransport, error) {
	return transport.NewSQLiteStore(db)
}

// NewPostgresTransport returns a Transport that persists workflows in
// PostgreSQL.
func NewPostgresTransport(db *sql.DB) (*PostgresTransport, error) {
	return transport.NewPostgresStore(db)
}

// NewRedisTransport returns a Transport that persists workflows in Redis
// under the given key prefix.
func NewRedisTransport(client *redis.Client, prefix string) *RedisTransport {
	return transport.NewRedisStore(client, prefix)
}

// NewMongoTransport returns a Transport that persists workflows in MongoDB.
func NewMongoTransport(client *mongo.Client, dbName, collName string) *MongoTransport {
	return transport.NewMongoStore(client, dbName, collName)
}

// NewHTTPTransport returns a Transport that talks to a remote workflow
// service over HTTP. If client is nil, a default client is used.
func NewHTTPTransport(base string, client *http.Client) (*HTTPTransport, error) {
	return transport.NewHTTPClient(base, client)
}

// Presence constructors

// NewPresenceBroker returns an in-process presence channel, suitable for
// tests and single-process deployments.
func NewPresenceBroker() *PresenceBroker {
	return presence.NewBroker()
}

// NewRedisPresence returns a presence channel bridged over Redis pub/sub so
// sessions in different processes see each other.
func NewRedisPresence(client *redis.Client, prefix string, logger *slog.Logger) *RedisPresence {
	return presence.NewRedisChannel(client, prefix, logger)
}

// NewCatalog returns a closed block catalog seeded with the given types.
// It panics when two types share an ID.
func NewCatalog(types ...BlockType) *Catalog {
	return catalog.New(types...)
}

// OpenSession opens an editing session for one workflow, starting from the
// given graph snapshot. The session resolves the current user through
// cfg.Sessions and fails with ErrNoSession when nobody is signed in.
func OpenSession(ctx context.Context, cfg SessionConfig, workflow WorkflowSummary, snapshot GraphSnapshot) (*Session, error) {
	return session.Open(ctx, cfg, workflow, snapshot)
}

// NewService returns the workflow listing facade over a transport.
func NewService(tr Transport, sessions SessionProvider) *Service {
	return session.NewService(tr, sessions)
}
