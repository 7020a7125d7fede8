package nodes

import (
	"context"
	"log/slog"

	"github.com/flowstack/flowstack/internal/engine"
	"github.com/flowstack/flowstack/internal/expressions"
	"github.com/flowstack/flowstack/pkg/schema"
)

// TransformExecutor reshapes the run context with a jq or expr program.
// Exactly one of the "jq" and "expr" config keys must be set; the program
// output lands under the node's result key.
type TransformExecutor struct {
	jq     expressions.Engine
	expr   expressions.Engine
	logger *slog.Logger
}

// NewTransformExecutor creates a TRANSFORM node executor.
func NewTransformExecutor(logger *slog.Logger) *TransformExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransformExecutor{
		jq:     expressions.NewGoJQEngine(),
		expr:   expressions.NewExprEngine(),
		logger: logger,
	}
}

func (e *TransformExecutor) Type() schema.NodeType { return schema.NodeTypeTransform }

func (e *TransformExecutor) Execute(ctx context.Context, in engine.ExecutionInput) (*engine.Result, error) {
	jqProgram := stringParam(in.Config, "jq", "")
	exprProgram := stringParam(in.Config, "expr", "")

	var eng expressions.Engine
	var program string
	switch {
	case jqProgram != "" && exprProgram != "":
		return nil, schema.NewError(schema.ErrCodeNodeExecution,
			"TRANSFORM node accepts either 'jq' or 'expr', not both").WithNode(in.Node.Key)
	case jqProgram != "":
		eng, program = e.jq, jqProgram
	case exprProgram != "":
		eng, program = e.expr, exprProgram
	default:
		return nil, schema.NewError(schema.ErrCodeNodeExecution,
			"TRANSFORM node requires a 'jq' or 'expr' program in config").WithNode(in.Node.Key)
	}

	value, err := eng.Evaluate(ctx, program, in.Context.Snapshot())
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "transform node evaluated", "engine", eng.Name())
	return &engine.Result{
		Output:  map[string]any{schema.ResultKey(in.Node.Key): value},
		Message: eng.Name() + " transform applied",
	}, nil
}
