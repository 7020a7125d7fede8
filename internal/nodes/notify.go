package nodes

import (
	"context"
	"log/slog"

	"github.com/flowstack/flowstack/internal/engine"
	"github.com/flowstack/flowstack/pkg/schema"
)

// NotifyExecutor renders a notification template and records its dispatch.
// Delivery is a structured log line on the configured channel; wiring real
// channels (Slack, webhooks) happens outside the engine.
type NotifyExecutor struct {
	logger *slog.Logger
}

// NewNotifyExecutor creates a NOTIFY node executor.
func NewNotifyExecutor(logger *slog.Logger) *NotifyExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotifyExecutor{logger: logger}
}

func (e *NotifyExecutor) Type() schema.NodeType { return schema.NodeTypeNotify }

func (e *NotifyExecutor) Execute(ctx context.Context, in engine.ExecutionInput) (*engine.Result, error) {
	channel := stringParam(in.Config, "channel", "log")
	template := stringParam(in.Config, "template", "Workflow completed")
	message := engine.Render(template, in.Context.Snapshot())

	e.logger.InfoContext(ctx, "notification dispatched", "channel", channel, "message", message)
	return &engine.Result{
		Output:  map[string]any{"notification": message},
		Message: "notification dispatched",
	}, nil
}
