package store

import "context"

// Store defines the persistence layer contract.
// All implementations must be safe for concurrent use.
type Store interface {
	// Definitions
	CreateDefinition(ctx context.Context, def *Definition) error
	GetDefinition(ctx context.Context, id string) (*Definition, error)
	ListDefinitions(ctx context.Context, filter DefinitionFilter) ([]*Definition, error)
	UpdateDefinitionStatus(ctx context.Context, id string, status string) error
	DeleteDefinition(ctx context.Context, id string) error

	// Graph (nodes ordered by sort_order)
	ListNodes(ctx context.Context, definitionID string) ([]*Node, error)
	ListEdges(ctx context.Context, definitionID string) ([]*Edge, error)

	// Runs
	CreateRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	UpdateRun(ctx context.Context, id string, update RunUpdate) error
	ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error)

	// Node runs
	CreateNodeRun(ctx context.Context, nr *NodeRun) error
	UpdateNodeRun(ctx context.Context, id string, update NodeRunUpdate) error
	ListNodeRuns(ctx context.Context, runID string) ([]*NodeRun, error)

	// Triggers
	CreateTrigger(ctx context.Context, trig *Trigger) error
	GetTrigger(ctx context.Context, id string) (*Trigger, error)
	UpdateTrigger(ctx context.Context, id string, update TriggerUpdate) error
	ListTriggers(ctx context.Context, filter TriggerFilter) ([]*Trigger, error)
	DeleteTrigger(ctx context.Context, id string) error

	// Secrets (encrypted blobs; encryption happens in the vault layer)
	StoreSecret(ctx context.Context, key string, value []byte) error
	GetSecret(ctx context.Context, key string) ([]byte, error)
	DeleteSecret(ctx context.Context, key string) error
	ListSecrets(ctx context.Context) ([]string, error)

	// Maintenance
	Migrate(ctx context.Context) error
	Vacuum(ctx context.Context) error

	// Lifecycle
	Close() error
}
