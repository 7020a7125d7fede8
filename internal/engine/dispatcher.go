package engine

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flowstack/flowstack/internal/logging"
	"github.com/flowstack/flowstack/internal/store"
	"github.com/flowstack/flowstack/pkg/schema"
)

// RunCreator is the subset of the store the dispatcher needs to launch runs.
type RunCreator interface {
	GetDefinition(ctx context.Context, id string) (*store.Definition, error)
	CreateRun(ctx context.Context, run *store.Run) error
}

// Dispatcher hands freshly created runs to the worker pool. Run creation
// and run execution are deliberately decoupled: RunCreated must only be
// called after the store write that created the run has returned, so a
// worker never starts on a run it cannot yet read back.
type Dispatcher struct {
	creator  RunCreator
	executor *WorkflowExecutor
	pool     *WorkerPool
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(creator RunCreator, executor *WorkflowExecutor, pool *WorkerPool, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{creator: creator, executor: executor, pool: pool, logger: logger}
}

// RunCreated submits a run to the pool for asynchronous execution.
// Execution is detached from the caller's context lifetime: cancelling
// the request that created the run must not cancel the run itself.
func (d *Dispatcher) RunCreated(ctx context.Context, runID string) error {
	execCtx := context.WithoutCancel(ctx)
	return d.pool.Submit(execCtx, func(ctx context.Context) error {
		return d.executor.Execute(ctx, runID)
	})
}

// Launch persists a new PENDING run for the definition and dispatches it.
// This is the single entry point used by the API layer and the scheduler.
func (d *Dispatcher) Launch(ctx context.Context, definitionID string, payload map[string]any) (*store.Run, error) {
	def, err := d.creator.GetDefinition(ctx, definitionID)
	if err != nil {
		return nil, err
	}
	if def.Status != schema.WorkflowStatusActive {
		return nil, schema.NewErrorf(schema.ErrCodeConflict,
			"workflow %s is %s, only ACTIVE workflows can run", definitionID, def.Status)
	}

	run := &store.Run{
		ID:             uuid.New().String(),
		DefinitionID:   definitionID,
		Status:         schema.RunStatusPending,
		TriggerPayload: payload,
		ContextData:    payload,
	}
	if err := d.creator.CreateRun(ctx, run); err != nil {
		return nil, err
	}

	ctx = logging.WithIDs(ctx, definitionID, run.ID)
	if err := d.RunCreated(ctx, run.ID); err != nil {
		d.logger.ErrorContext(ctx, "failed to dispatch run", "error", err)
		return run, err
	}
	d.logger.InfoContext(ctx, "run dispatched")
	return run, nil
}
