package nodes

import (
	"context"
	"log/slog"

	"github.com/flowstack/flowstack/internal/engine"
	"github.com/flowstack/flowstack/pkg/schema"
)

// ScriptExecutor is the placeholder for SCRIPT_JS and SCRIPT_PY nodes: it
// echoes the configured script and its language into the context without
// running anything. Sandboxed execution is out of scope.
type ScriptExecutor struct {
	nodeType      schema.NodeType
	language      string
	defaultScript string
	logger        *slog.Logger
}

// NewJavaScriptExecutor creates the SCRIPT_JS placeholder executor.
func NewJavaScriptExecutor(logger *slog.Logger) *ScriptExecutor {
	return newScriptExecutor(schema.NodeTypeScriptJS, "javascript", "console.log('noop')", logger)
}

// NewPythonExecutor creates the SCRIPT_PY placeholder executor.
func NewPythonExecutor(logger *slog.Logger) *ScriptExecutor {
	return newScriptExecutor(schema.NodeTypeScriptPy, "python", "print('noop')", logger)
}

func newScriptExecutor(typ schema.NodeType, language, defaultScript string, logger *slog.Logger) *ScriptExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScriptExecutor{nodeType: typ, language: language, defaultScript: defaultScript, logger: logger}
}

func (e *ScriptExecutor) Type() schema.NodeType { return e.nodeType }

func (e *ScriptExecutor) Execute(ctx context.Context, in engine.ExecutionInput) (*engine.Result, error) {
	script := stringParam(in.Config, "script", e.defaultScript)

	e.logger.InfoContext(ctx, "script node executed placeholder", "language", e.language)
	return &engine.Result{
		Output: map[string]any{
			"script":   script,
			"language": e.language,
		},
		Message: e.language + " placeholder",
	}, nil
}
