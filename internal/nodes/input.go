package nodes

import (
	"context"
	"log/slog"

	"dario.cat/mergo"

	"github.com/flowstack/flowstack/internal/engine"
	"github.com/flowstack/flowstack/pkg/schema"
)

// InputExecutor seeds the run context with defaults from the node config.
// Defaults never overwrite keys the trigger payload already provided. The
// defaults live under a "defaults" key when present, otherwise the whole
// config is treated as the defaults map.
type InputExecutor struct {
	logger *slog.Logger
}

// NewInputExecutor creates an INPUT node executor.
func NewInputExecutor(logger *slog.Logger) *InputExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &InputExecutor{logger: logger}
}

func (e *InputExecutor) Type() schema.NodeType { return schema.NodeTypeInput }

func (e *InputExecutor) Execute(ctx context.Context, in engine.ExecutionInput) (*engine.Result, error) {
	defaults := in.Config
	if d := mapParam(in.Config, "defaults"); d != nil {
		defaults = d
	}

	merged := in.Context.Snapshot()
	if len(defaults) > 0 {
		// Non-override merge: existing context keys win over defaults.
		if err := mergo.Merge(&merged, defaults); err != nil {
			return nil, schema.NewErrorf(schema.ErrCodeNodeExecution,
				"failed to merge input defaults: %s", err.Error()).WithCause(err)
		}
	}

	e.logger.InfoContext(ctx, "input node completed", "context_keys", len(merged))
	return &engine.Result{Output: merged, Message: "input merged"}, nil
}
