package store

import (
	"time"

	"github.com/flowstack/flowstack/pkg/schema"
)

// Definition is the persisted representation of a workflow definition:
// a named directed graph of typed nodes.
type Definition struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Status      schema.WorkflowStatus `json:"status"`
	Nodes       []*Node               `json:"nodes,omitempty"`
	Edges       []*Edge               `json:"edges,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// Node is a single typed node within a workflow definition. Key is unique
// within the definition; SortOrder drives sequential fallback execution.
type Node struct {
	ID           string          `json:"id"`
	DefinitionID string          `json:"definition_id"`
	Key          string          `json:"key"`
	Name         string          `json:"name,omitempty"`
	Type         schema.NodeType `json:"type"`
	Config       map[string]any  `json:"config,omitempty"`
	SortOrder    int             `json:"sort_order"`
}

// Edge is a directed connection between two nodes of a definition.
// Condition, when non-empty, gates traversal of the edge.
type Edge struct {
	ID           string `json:"id"`
	DefinitionID string `json:"definition_id"`
	SourceKey    string `json:"source_key"`
	TargetKey    string `json:"target_key"`
	Condition    string `json:"condition,omitempty"`
}

// Run is a single execution of a workflow definition.
type Run struct {
	ID             string           `json:"id"`
	DefinitionID   string           `json:"definition_id"`
	Status         schema.RunStatus `json:"status"`
	TriggerPayload map[string]any   `json:"trigger_payload,omitempty"`
	ContextData    map[string]any   `json:"context_data,omitempty"`
	LastError      string           `json:"last_error,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	StartedAt      *time.Time       `json:"started_at,omitempty"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// NodeRun records the execution of one node within a run.
type NodeRun struct {
	ID            string               `json:"id"`
	RunID         string               `json:"run_id"`
	NodeKey       string               `json:"node_key"`
	NodeType      schema.NodeType      `json:"node_type"`
	Status        schema.NodeRunStatus `json:"status"`
	InputPayload  map[string]any       `json:"input_payload,omitempty"`
	OutputPayload map[string]any       `json:"output_payload,omitempty"`
	ErrorMessage  string               `json:"error_message,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	StartedAt     *time.Time           `json:"started_at,omitempty"`
	CompletedAt   *time.Time           `json:"completed_at,omitempty"`
}

// Trigger is a cron-scheduled run factory for a workflow definition.
type Trigger struct {
	ID             string         `json:"id"`
	DefinitionID   string         `json:"definition_id"`
	CronExpression string         `json:"cron_expression"`
	Payload        map[string]any `json:"payload,omitempty"`
	Enabled        bool           `json:"enabled"`
	LastRunAt      *time.Time     `json:"last_run_at,omitempty"`
	NextRunAt      *time.Time     `json:"next_run_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// --- Filter and update types ---

// DefinitionFilter specifies criteria for listing workflow definitions.
type DefinitionFilter struct {
	Status *schema.WorkflowStatus `json:"status,omitempty"`
	Limit  int                    `json:"limit,omitempty"`
	Offset int                    `json:"offset,omitempty"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	DefinitionID string            `json:"definition_id,omitempty"`
	Status       *schema.RunStatus `json:"status,omitempty"`
	Since        *time.Time        `json:"since,omitempty"`
	Limit        int               `json:"limit,omitempty"`
	Offset       int               `json:"offset,omitempty"`
}

// RunUpdate specifies mutable fields of a run. Nil fields are left unchanged.
type RunUpdate struct {
	Status      *schema.RunStatus `json:"status,omitempty"`
	ContextData map[string]any    `json:"context_data,omitempty"`
	LastError   *string           `json:"last_error,omitempty"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// NodeRunUpdate specifies mutable fields of a node run. Nil fields are left unchanged.
type NodeRunUpdate struct {
	Status        *schema.NodeRunStatus `json:"status,omitempty"`
	OutputPayload map[string]any        `json:"output_payload,omitempty"`
	ErrorMessage  *string               `json:"error_message,omitempty"`
	StartedAt     *time.Time            `json:"started_at,omitempty"`
	CompletedAt   *time.Time            `json:"completed_at,omitempty"`
}

// TriggerFilter specifies criteria for listing triggers.
type TriggerFilter struct {
	DefinitionID string `json:"definition_id,omitempty"`
	Enabled      *bool  `json:"enabled,omitempty"`
	Limit        int    `json:"limit,omitempty"`
}

// TriggerUpdate specifies mutable fields of a trigger. Nil fields are left unchanged.
type TriggerUpdate struct {
	CronExpression string     `json:"cron_expression,omitempty"`
	Enabled        *bool      `json:"enabled,omitempty"`
	LastRunAt      *time.Time `json:"last_run_at,omitempty"`
	NextRunAt      *time.Time `json:"next_run_at,omitempty"`
}
