package nodes

import (
	"context"
	"log/slog"

	"github.com/flowstack/flowstack/internal/engine"
	"github.com/flowstack/flowstack/pkg/schema"
)

// OutputExecutor projects the configured "fields" out of the run context.
// Fields that are not present in the context are silently skipped.
type OutputExecutor struct {
	logger *slog.Logger
}

// NewOutputExecutor creates an OUTPUT node executor.
func NewOutputExecutor(logger *slog.Logger) *OutputExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &OutputExecutor{logger: logger}
}

func (e *OutputExecutor) Type() schema.NodeType { return schema.NodeTypeOutput }

func (e *OutputExecutor) Execute(ctx context.Context, in engine.ExecutionInput) (*engine.Result, error) {
	output := map[string]any{}
	if fields, ok := in.Config["fields"].([]any); ok {
		for _, field := range fields {
			key, ok := field.(string)
			if !ok {
				continue
			}
			if v, ok := in.Context.Get(key); ok {
				output[key] = v
			}
		}
	}

	e.logger.InfoContext(ctx, "output node captured fields", "count", len(output))
	return &engine.Result{Output: output, Message: "output captured"}, nil
}
