package transport

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/flowboard/flowboard/pkg/api"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open failed: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	store, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	return store
}

func TestSQLiteStore_CreateListOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	first, err := store.Create(ctx, "tok", "alpha", "first")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	second, err := store.Create(ctx, "tok", "beta", "second")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	all, err := store.GetAll(ctx, "tok")
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 2 || all[0].ID != first.ID || all[1].ID != second.ID {
		t.Fatalf("expected [%s %s] in creation order, got %v", first.ID, second.ID, all)
	}
	if all[0].Name != "alpha" || all[0].Description != "first" {
		t.Fatalf("summary fields lost: %+v", all[0])
	}
}

func TestSQLiteStore_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	wf, err := store.Create(ctx, "tok", "alpha", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	saved, err := store.Save(ctx, "tok", wf.ID, validSnapshot())
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved.ID != wf.ID {
		t.Fatalf("Save returned summary for %q, want %q", saved.ID, wf.ID)
	}

	got, err := store.Load(ctx, "tok", wf.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got.Nodes) != 2 || len(got.Edges) != 1 {
		t.Fatalf("loaded %d nodes / %d edges, want 2/1", len(got.Nodes), len(got.Edges))
	}
}

func TestSQLiteStore_SaveRejectsInvalidGraph(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	wf, err := store.Create(ctx, "tok", "alpha", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = store.Save(ctx, "tok", wf.ID, cyclicSnapshot())
	if kind, ok := api.TransportKind(err); !ok || kind != api.Rejected {
		t.Fatalf("expected Rejected for cyclic graph, got %v", err)
	}
	var verr *api.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation detail in chain, got %v", err)
	}
}

func TestSQLiteStore_SaveUnknownWorkflow(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	_, err := store.Save(ctx, "tok", "no-such-id", validSnapshot())
	if kind, ok := api.TransportKind(err); !ok || kind != api.Rejected {
		t.Fatalf("expected Rejected for unknown workflow, got %v", err)
	}
}

func TestSQLiteStore_LoadUnknownWorkflow(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	_, err := store.Load(ctx, "tok", "no-such-id")
	if !errors.Is(err, api.ErrWorkflowNotFound) {
		t.Fatalf("expected ErrWorkflowNotFound, got %v", err)
	}
}
