package streaming

import (
	"context"
	"time"
)

// Event types emitted while a run executes.
const (
	EventRunStarted    = "run.started"
	EventRunCompleted  = "run.completed"
	EventRunFailed     = "run.failed"
	EventNodeStarted   = "node.started"
	EventNodeSucceeded = "node.succeeded"
	EventNodeFailed    = "node.failed"
)

// RunEvent is a real-time event emitted during run execution.
type RunEvent struct {
	RunID        string         `json:"run_id"`
	DefinitionID string         `json:"definition_id,omitempty"`
	NodeKey      string         `json:"node_key,omitempty"`
	Type         string         `json:"type"`
	Payload      map[string]any `json:"payload,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}

// EventFilter specifies which events a subscriber wants to receive.
type EventFilter struct {
	RunID string   `json:"run_id,omitempty"`
	Types []string `json:"types,omitempty"`
}

// EventHub provides pub/sub for real-time run events.
type EventHub interface {
	Publish(ctx context.Context, event RunEvent) error
	Subscribe(ctx context.Context, filter EventFilter) (<-chan RunEvent, func(), error)
}
