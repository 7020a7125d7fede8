package nodes

import (
	"context"
	"log/slog"
	"strings"

	"github.com/flowstack/flowstack/internal/engine"
	"github.com/flowstack/flowstack/pkg/schema"
)

// IfElseExecutor evaluates the node's condition against the run context and
// writes the boolean result. The workflow executor reads the result back to
// decide which outgoing edge to follow.
type IfElseExecutor struct {
	logger *slog.Logger
}

// NewIfElseExecutor creates an IF_ELSE node executor.
func NewIfElseExecutor(logger *slog.Logger) *IfElseExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &IfElseExecutor{logger: logger}
}

func (e *IfElseExecutor) Type() schema.NodeType { return schema.NodeTypeIfElse }

func (e *IfElseExecutor) Execute(ctx context.Context, in engine.ExecutionInput) (*engine.Result, error) {
	raw, ok := in.Config["condition"]
	if !ok || raw == nil {
		return nil, schema.NewError(schema.ErrCodeNodeExecution,
			"IF_ELSE node requires a 'condition' field in config").WithNode(in.Node.Key)
	}
	template := engine.Stringify(raw)
	if strings.TrimSpace(template) == "" {
		return nil, schema.NewError(schema.ErrCodeNodeExecution,
			"IF_ELSE node condition cannot be empty").WithNode(in.Node.Key)
	}

	snapshot := in.Context.Snapshot()
	rendered := engine.Render(template, snapshot)

	// A token surviving the render means the template itself is broken
	// (renderable tokens resolve to "" even when the key is absent).
	if strings.Contains(rendered, "{{") && strings.Contains(rendered, "}}") {
		return nil, schema.NewErrorf(schema.ErrCodeNodeExecution,
			"condition contains unresolved variables. Available context keys: [%s]. Condition: %s",
			strings.Join(in.Context.Keys(), ", "), template).WithNode(in.Node.Key)
	}

	result, err := engine.EvaluateExpression(rendered, snapshot)
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "branch condition evaluated",
		"condition", rendered, "result", result)
	return &engine.Result{
		Output: map[string]any{
			schema.ResultKey(in.Node.Key):    result,
			schema.ConditionKey(in.Node.Key): rendered,
		},
		Message: "condition evaluated",
	}, nil
}
