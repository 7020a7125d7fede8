package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowstack/flowstack/internal/store"
	"github.com/flowstack/flowstack/pkg/schema"
)

func newTestDispatcher(t *testing.T, fs *fakeRunStore, registry *Registry) *Dispatcher {
	t.Helper()
	pool := NewWorkerPool(1, 2, 4)
	t.Cleanup(pool.Shutdown)
	exec := NewWorkflowExecutor(fs, registry, nil)
	return NewDispatcher(fs, exec, pool, nil)
}

func TestLaunchRunsWorkflow(t *testing.T) {
	fs := &fakeRunStore{
		definition: &store.Definition{ID: "def-1", Name: "greeter", Status: schema.WorkflowStatusActive},
		nodes: []*store.Node{
			graphNode("a", schema.NodeTypeInput, 0),
			graphNode("b", schema.NodeTypeOutput, 1),
		},
		edges: []*store.Edge{graphEdge("a", "b", "")},
	}
	d := newTestDispatcher(t, fs, echoRegistry(schema.NodeTypeInput, schema.NodeTypeOutput))

	run, err := d.Launch(context.Background(), "def-1", map[string]any{"name": "Bo"})
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "def-1", run.DefinitionID)
	assert.Equal(t, "Bo", run.TriggerPayload["name"])

	d.pool.Shutdown()

	final := fs.snapshotRun()
	assert.Equal(t, schema.RunStatusCompleted, final.Status)
	assert.Equal(t, true, final.ContextData["a::done"])
	assert.Equal(t, "Bo", final.ContextData["name"])
	assert.Equal(t, []string{"a", "b"}, fs.executedKeys())
}

func TestLaunchRejectsInactiveWorkflow(t *testing.T) {
	for _, status := range []schema.WorkflowStatus{schema.WorkflowStatusDraft, schema.WorkflowStatusArchived} {
		fs := &fakeRunStore{
			definition: &store.Definition{ID: "def-1", Name: "stale", Status: status},
		}
		d := newTestDispatcher(t, fs, NewRegistry())

		run, err := d.Launch(context.Background(), "def-1", nil)
		require.Error(t, err, string(status))
		assert.Nil(t, run)
		fe, ok := err.(*schema.FlowError)
		require.True(t, ok)
		assert.Equal(t, schema.ErrCodeConflict, fe.Code)

		// No run was persisted.
		fs.mu.Lock()
		assert.Nil(t, fs.run)
		fs.mu.Unlock()
	}
}

func TestLaunchUnknownDefinition(t *testing.T) {
	d := newTestDispatcher(t, &fakeRunStore{}, NewRegistry())

	_, err := d.Launch(context.Background(), "ghost", nil)
	require.Error(t, err)
	fe, ok := err.(*schema.FlowError)
	require.True(t, ok)
	assert.Equal(t, schema.ErrCodeNotFound, fe.Code)
}

func TestRunCreatedDetachesFromCallerContext(t *testing.T) {
	// Cancelling the request that created the run must not cancel the run.
	fs := &fakeRunStore{
		run:   pendingRun(nil),
		nodes: []*store.Node{graphNode("a", schema.NodeTypeOutput, 0)},
	}
	registry := NewRegistry()
	registry.MustRegister(&stubExecutor{
		nodeType: schema.NodeTypeOutput,
		execute: func(ctx context.Context, in ExecutionInput) (*Result, error) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(50 * time.Millisecond):
				return &Result{Output: map[string]any{"a::done": true}}, nil
			}
		},
	})
	d := newTestDispatcher(t, fs, registry)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.RunCreated(ctx, "run-1"))
	cancel()

	d.pool.Shutdown()
	assert.Equal(t, schema.RunStatusCompleted, fs.snapshotRun().Status)
}

func TestRunCreatedAfterShutdown(t *testing.T) {
	fs := &fakeRunStore{run: pendingRun(nil)}
	d := newTestDispatcher(t, fs, NewRegistry())

	d.pool.Shutdown()
	err := d.RunCreated(context.Background(), "run-1")
	assert.ErrorIs(t, err, ErrPoolShutdown)
}
