package engine

import (
	"context"
	"sync"

	"github.com/flowstack/flowstack/internal/store"
	"github.com/flowstack/flowstack/pkg/schema"
)

// ExecutionInput carries everything a node executor needs for one
// invocation: the owning run, the node record, the live run context,
// and the node's decoded config map.
type ExecutionInput struct {
	Run     *store.Run
	Node    *store.Node
	Context *Context
	Config  map[string]any
}

// Result is a successful node execution outcome. Output is merged into
// the run context by the workflow executor; Message is a human summary
// recorded on the node run.
type Result struct {
	Output  map[string]any
	Message string
}

// NodeExecutor is the capability contract every node type implements.
// The engine never invokes an executor twice for the same node within a
// run; executors are free to perform non-idempotent external I/O.
type NodeExecutor interface {
	Type() schema.NodeType
	Execute(ctx context.Context, in ExecutionInput) (*Result, error)
}

// Registry maps node types to their executors. It is built once at
// process start from the statically known executor list; registering two
// executors for the same type is a startup configuration error.
type Registry struct {
	mu        sync.RWMutex
	executors map[schema.NodeType]NodeExecutor
}

// NewRegistry creates an empty executor registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[schema.NodeType]NodeExecutor)}
}

// Register adds an executor, failing on duplicate types.
func (r *Registry) Register(exec NodeExecutor) error {
	if exec == nil {
		return schema.NewError(schema.ErrCodeValidation, "cannot register nil executor")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t := exec.Type()
	if _, exists := r.executors[t]; exists {
		return schema.NewErrorf(schema.ErrCodeConflict,
			"executor already registered for node type %s", t)
	}
	r.executors[t] = exec
	return nil
}

// MustRegister registers an executor and panics on duplicates. Intended
// for process startup where a duplicate is a programming error.
func (r *Registry) MustRegister(exec NodeExecutor) {
	if err := r.Register(exec); err != nil {
		panic(err)
	}
}

// Get returns the executor for a node type. An unmapped type means a
// workflow references a type with no deployed implementation; this is a
// fatal, non-retryable per-node failure.
func (r *Registry) Get(t schema.NodeType) (NodeExecutor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exec, ok := r.executors[t]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeNodeExecution,
			"no executor registered for node type %s", t)
	}
	return exec, nil
}

// Types returns the registered node types.
func (r *Registry) Types() []schema.NodeType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]schema.NodeType, 0, len(r.executors))
	for t := range r.executors {
		types = append(types, t)
	}
	return types
}
