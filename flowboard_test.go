package flowboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestSessionWithObserverAndBasicMetrics verifies that:
//   - a session opened over the in-memory transport is usable from the
//     public API
//   - BasicMetrics sees the expected mutation and save counts
//   - the builder, transport and session work end-to-end without any
//     external infra.
func TestSessionWithObserverAndBasicMetrics(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := &BasicMetrics{}

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	observer := NewCompositeObserver(
		NewLoggingObserver(logger),
		metrics,
	)

	tr := NewMemoryTransport()
	sessions := StaticSession(SessionInfo{
		Token: "tok-metrics",
		User:  Identity{UserID: "u1", Name: "Metrics"},
	})

	wf, err := NewService(tr, sessions).CreateWorkflow(ctx, "metrics-wf", "")
	require.NoError(t, err, "CreateWorkflow should succeed")

	sess, err := OpenSession(ctx, SessionConfig{
		Transport: tr,
		Sessions:  sessions,
		Observer:  observer,
	}, wf, GraphSnapshot{})
	require.NoError(t, err, "OpenSession should succeed")
	defer sess.Close()

	// Two nodes, one edge: three mutations.
	first, err := sess.AddNode(ctx, NodeSpec{Type: "http_trigger"})
	require.NoError(t, err)
	second, err := sess.AddNode(ctx, NodeSpec{Type: "send_email"})
	require.NoError(t, err)
	_, err = sess.Connect(ctx, first.ID, second.ID, "")
	require.NoError(t, err)

	saved, err := sess.Save(ctx)
	require.NoError(t, err, "Save should succeed")
	require.Equal(t, wf.ID, saved.ID)
	require.Equal(t, SaveIdle, sess.SaveState(), "state should return to idle")

	snap := metrics.Snapshot()
	require.Equal(t, int64(3), snap.MutationsApplied, "expected exactly 3 mutations")
	require.Equal(t, int64(1), snap.SavesStarted, "expected exactly 1 save started")
	require.Equal(t, int64(1), snap.SavesSucceeded, "expected exactly 1 save succeeded")
	require.Equal(t, int64(0), snap.SavesFailed, "expected 0 save failures")
}

// TestSessionWithNilLoggerObserver ensures that NewLoggingObserver(nil) is
// safe to use and that editing still works.
func TestSessionWithNilLoggerObserver(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := &BasicMetrics{}
	observer := NewCompositeObserver(
		NewLoggingObserver(nil), // should not panic or misbehave
		metrics,
	)

	tr := NewMemoryTransport()
	sessions := StaticSession(SessionInfo{
		Token: "tok-nil-logger",
		User:  Identity{UserID: "u1"},
	})

	wf, err := NewService(tr, sessions).CreateWorkflow(ctx, "nil-logger-wf", "")
	require.NoError(t, err)

	sess, err := OpenSession(ctx, SessionConfig{
		Transport: tr,
		Sessions:  sessions,
		Observer:  observer,
	}, wf, GraphSnapshot{})
	require.NoError(t, err)
	defer sess.Close()

	_, err = sess.AddNode(ctx, NodeSpec{Type: "http_trigger"})
	require.NoError(t, err)
	require.Equal(t, int64(1), metrics.Snapshot().MutationsApplied)
}

// TestSaveFailureIsCountedAndClassified exercises the failure path end to
// end: a cyclic graph is declined by validation before the transport is
// touched, and the metrics record the failed save.
func TestSaveFailureIsCountedAndClassified(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := &BasicMetrics{}

	tr := NewMemoryTransport()
	sessions := StaticSession(SessionInfo{
		Token: "tok-fail",
		User:  Identity{UserID: "u1"},
	})

	wf, err := NewService(tr, sessions).CreateWorkflow(ctx, "fail-wf", "")
	require.NoError(t, err)

	sess, err := OpenSession(ctx, SessionConfig{
		Transport: tr,
		Sessions:  sessions,
		Observer:  metrics,
	}, wf, GraphSnapshot{})
	require.NoError(t, err)
	defer sess.Close()

	first, err := sess.AddNode(ctx, NodeSpec{Type: "a"})
	require.NoError(t, err)
	second, err := sess.AddNode(ctx, NodeSpec{Type: "b"})
	require.NoError(t, err)
	_, err = sess.Connect(ctx, first.ID, second.ID, "")
	require.NoError(t, err)
	_, err = sess.Connect(ctx, second.ID, first.ID, "")
	require.NoError(t, err)

	_, err = sess.Save(ctx)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr, "expected a validation error")
	require.NotEmpty(t, verr.Issues)

	snap := metrics.Snapshot()
	require.Equal(t, int64(1), snap.SavesStarted)
	require.Equal(t, int64(1), snap.SavesFailed)
	require.Equal(t, int64(0), snap.SavesSucceeded)
}

// TestOpenSessionWithoutUser verifies the signed-out path of the public API.
func TestOpenSessionWithoutUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sessions := StaticSession(SessionInfo{}) // no token: nobody signed in

	_, err := OpenSession(ctx, SessionConfig{
		Transport: NewMemoryTransport(),
		Sessions:  sessions,
	}, WorkflowSummary{ID: "wf"}, GraphSnapshot{})
	require.True(t, errors.Is(err, ErrNoSession), "got %v", err)
}
