package transport

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/flowboard/flowboard/internal/validate"
	"github.com/flowboard/flowboard/pkg/api"
)

// PostgresStore is a Transport backed by PostgreSQL.
//
// It expects an *sql.DB that uses a PostgreSQL driver (for example,
// "github.com/jackc/pgx/v5/stdlib" or "github.com/lib/pq").
//
// The caller is responsible for:
//   - importing the driver for its side effects, e.g.:
//     _ "github.com/jackc/pgx/v5/stdlib"
//   - providing a DSN via sql.Open.
type PostgresStore struct {
	db     *sql.DB
	policy validate.Policy
}

var _ api.Transport = (*PostgresStore)(nil)

// NewPostgresStore initializes the required schema in the given database and
// returns a new PostgresStore.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	s := &PostgresStore{db: db, policy: validate.DefaultPolicy()}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS workflows (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			graph BYTEA,
			created_seq BIGSERIAL
		);
	`)
	return err
}

func (s *PostgresStore) GetAll(ctx context.Context, token api.Token) ([]api.WorkflowSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description
		FROM workflows
		ORDER BY created_seq`,
	)
	if err != nil {
		return nil, api.NewTransportError(api.TransportUnknown, err)
	}
	defer rows.Close()

	var out []api.WorkflowSummary
	for rows.Next() {
		var wf api.WorkflowSummary
		if err := rows.Scan(&wf.ID, &wf.Name, &wf.Description); err != nil {
			return nil, api.NewTransportError(api.TransportUnknown, err)
		}
		out = append(out, wf)
	}
	if err := rows.Err(); err != nil {
		return nil, api.NewTransportError(api.TransportUnknown, err)
	}
	return out, nil
}

func (s *PostgresStore) Create(ctx context.Context, token api.Token, name, description string) (api.WorkflowSummary, error) {
	wf := api.WorkflowSummary{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workflows (id, name, description)
		VALUES ($1, $2, $3)`,
		wf.ID, wf.Name, wf.Description,
	)
	if err != nil {
		return api.WorkflowSummary{}, api.NewTransportError(api.TransportUnknown, err)
	}
	return wf, nil
}

func (s *PostgresStore) Save(ctx context.Context, token api.Token, workflowID string, snapshot api.GraphSnapshot) (api.WorkflowSummary, error) {
	if res := validate.Graph(snapshot, s.policy); !res.Valid() {
		return api.WorkflowSummary{}, api.NewTransportError(api.Rejected, res.Err())
	}

	data, err := EncodeSnapshot(snapshot)
	if err != nil {
		return api.WorkflowSummary{}, api.NewTransportError(api.TransportUnknown, err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE workflows SET graph = $1 WHERE id = $2`,
		data, workflowID,
	)
	if err != nil {
		return api.WorkflowSummary{}, api.NewTransportError(api.TransportUnknown, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return api.WorkflowSummary{}, api.NewTransportError(api.TransportUnknown, err)
	}
	if affected == 0 {
		return api.WorkflowSummary{}, api.NewTransportError(api.Rejected,
			fmt.Errorf("%w: %s", api.ErrWorkflowNotFound, workflowID))
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description FROM workflows WHERE id = $1`, workflowID)
	var wf api.WorkflowSummary
	if err := row.Scan(&wf.ID, &wf.Name, &wf.Description); err != nil {
		return api.WorkflowSummary{}, api.NewTransportError(api.TransportUnknown, err)
	}
	return wf, nil
}

// Load returns the last persisted snapshot for a workflow.
func (s *PostgresStore) Load(ctx context.Context, token api.Token, workflowID string) (api.GraphSnapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT graph FROM workflows WHERE id = $1`, workflowID)

	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return api.GraphSnapshot{}, api.ErrWorkflowNotFound
		}
		return api.GraphSnapshot{}, err
	}
	return DecodeSnapshot(data)
}
