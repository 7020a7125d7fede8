package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flowstack/flowstack/internal/logging"
	"github.com/flowstack/flowstack/internal/store"
	"github.com/flowstack/flowstack/internal/streaming"
	"github.com/flowstack/flowstack/pkg/schema"
)

// RunStore is the subset of the persistence contract the executor needs.
type RunStore interface {
	GetRun(ctx context.Context, id string) (*store.Run, error)
	UpdateRun(ctx context.Context, id string, update store.RunUpdate) error
	ListNodes(ctx context.Context, definitionID string) ([]*store.Node, error)
	ListEdges(ctx context.Context, definitionID string) ([]*store.Edge, error)
	CreateNodeRun(ctx context.Context, nr *store.NodeRun) error
	UpdateNodeRun(ctx context.Context, id string, update store.NodeRunUpdate) error
}

// WorkflowExecutor drives one run of a workflow graph: it loads the run,
// rebuilds the execution context, traverses the node graph, dispatches
// each node to its executor, and persists run and node-run transitions
// as it goes. One run executes entirely on the worker that picked it up;
// different runs share no mutable state.
type WorkflowExecutor struct {
	store    RunStore
	registry *Registry
	logger   *slog.Logger
	events   streaming.EventHub
}

// NewWorkflowExecutor creates a WorkflowExecutor.
func NewWorkflowExecutor(s RunStore, registry *Registry, logger *slog.Logger) *WorkflowExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkflowExecutor{store: s, registry: registry, logger: logger}
}

// SetEventHub attaches an event hub for real-time run events. Optional;
// without a hub execution proceeds silently. Must be called before the
// executor starts receiving runs.
func (e *WorkflowExecutor) SetEventHub(hub streaming.EventHub) {
	e.events = hub
}

// publish emits a run event, best effort.
func (e *WorkflowExecutor) publish(ctx context.Context, run *store.Run, nodeKey, eventType string, payload map[string]any) {
	if e.events == nil {
		return
	}
	err := e.events.Publish(ctx, streaming.RunEvent{
		RunID:        run.ID,
		DefinitionID: run.DefinitionID,
		NodeKey:      nodeKey,
		Type:         eventType,
		Payload:      payload,
	})
	if err != nil {
		e.logger.WarnContext(ctx, "failed to publish run event", "type", eventType, "error", err)
	}
}

// Execute runs a workflow run to a terminal state. It is the terminal
// boundary for run execution: every exit path leaves the run persisted as
// COMPLETED or FAILED (best effort when persistence itself fails), and
// the returned error only mirrors what was already recorded.
func (e *WorkflowExecutor) Execute(ctx context.Context, runID string) (err error) {
	ctx = logging.WithRunID(ctx, runID)

	run, err := e.store.GetRun(ctx, runID)
	if err != nil {
		// Run vanished: fatal, logged, nothing to mark.
		e.logger.ErrorContext(ctx, "run not found, aborting execution", "error", err)
		return err
	}
	ctx = logging.WithWorkflowID(ctx, run.DefinitionID)

	defer func() {
		if r := recover(); r != nil {
			ferr := recoverError(r)
			e.logger.ErrorContext(ctx, "run execution panicked", "error", ferr)
			e.failRun(ctx, run, nil, ferr.Error())
			err = ferr
		}
	}()

	if IsTerminalRunStatus(run.Status) {
		return schema.NewErrorf(schema.ErrCodeConflict,
			"run %s is already %s", runID, run.Status)
	}
	if run.Status != schema.RunStatusRunning {
		if terr := CheckRunTransition(runID, run.Status, schema.RunStatusRunning); terr != nil {
			return terr
		}
		now := time.Now().UTC()
		running := schema.RunStatusRunning
		if uerr := e.store.UpdateRun(ctx, runID, store.RunUpdate{Status: &running, StartedAt: &now}); uerr != nil {
			e.logger.ErrorContext(ctx, "failed to mark run running", "error", uerr)
			return uerr
		}
		run.Status = running
		e.publish(ctx, run, "", streaming.EventRunStarted, nil)
	}

	// Rebuild the context from the persisted snapshot; a freshly created
	// run carries its trigger payload as the initial snapshot.
	var c *Context
	if len(run.ContextData) > 0 {
		c = FromPayload(run.ContextData)
	} else {
		c = FromPayload(run.TriggerPayload)
	}

	nodes, err := e.store.ListNodes(ctx, run.DefinitionID)
	if err != nil {
		e.failRun(ctx, run, c, err.Error())
		return err
	}
	edges, err := e.store.ListEdges(ctx, run.DefinitionID)
	if err != nil {
		e.failRun(ctx, run, c, err.Error())
		return err
	}

	nodeMap := make(map[string]*store.Node, len(nodes))
	for _, n := range nodes {
		nodeMap[n.Key] = n
	}
	adjacency := buildAdjacency(edges)

	// Entry nodes: keys that never appear as an edge target, in sortOrder.
	hasIncoming := make(map[string]bool, len(edges))
	for _, edge := range edges {
		hasIncoming[edge.TargetKey] = true
	}
	var entryNodes []string
	for _, n := range nodes {
		if !hasIncoming[n.Key] {
			entryNodes = append(entryNodes, n.Key)
		}
	}

	var nodeErr *NodeError
	if len(entryNodes) == 0 {
		// No entry point (including the zero-edge case): execute every
		// node once in sortOrder, ignoring edges entirely.
		nodeErr = e.executeSequentially(ctx, run, c, nodes)
	} else {
		nodeErr = e.executeGraph(ctx, run, c, nodeMap, adjacency, entryNodes)
	}
	if nodeErr != nil {
		// The failing node already persisted the FAILED state.
		return nodeErr
	}

	now := time.Now().UTC()
	completed := schema.RunStatusCompleted
	if uerr := e.store.UpdateRun(ctx, runID, store.RunUpdate{
		Status:      &completed,
		ContextData: c.Snapshot(),
		CompletedAt: &now,
	}); uerr != nil {
		e.logger.ErrorContext(ctx, "failed to mark run completed", "error", uerr)
		return uerr
	}

	e.publish(ctx, run, "", streaming.EventRunCompleted, nil)
	e.logger.InfoContext(ctx, "run completed")
	return nil
}

// executeGraph traverses the graph breadth-first from the entry nodes.
// The visited set guarantees at-most-once execution per node per run even
// for diamond-shaped fan-in. The first node failure discards the rest of
// the queue and halts the run.
func (e *WorkflowExecutor) executeGraph(ctx context.Context, run *store.Run, c *Context,
	nodeMap map[string]*store.Node, adjacency map[string][]*store.Edge, entryNodes []string) *NodeError {

	visited := make(map[string]bool, len(nodeMap))
	queue := append([]string(nil), entryNodes...)

	for len(queue) > 0 {
		currentKey := queue[0]
		queue = queue[1:]

		if visited[currentKey] {
			continue
		}

		node, ok := nodeMap[currentKey]
		if !ok {
			// Deployment drift, not this run's failure: skip and continue.
			e.logger.WarnContext(ctx, "edge references unknown node key, skipping", "node_key", currentKey)
			continue
		}

		nodeErr := e.executeNode(ctx, run, node, c)
		visited[currentKey] = true
		if nodeErr != nil {
			return nodeErr
		}

		for _, nextKey := range e.nextNodes(ctx, node, c, adjacency) {
			if !visited[nextKey] {
				queue = append(queue, nextKey)
			}
		}
	}
	return nil
}

// executeSequentially runs every node once in sortOrder, stopping at the
// first failure.
func (e *WorkflowExecutor) executeSequentially(ctx context.Context, run *store.Run, c *Context, nodes []*store.Node) *NodeError {
	for _, node := range nodes {
		if nodeErr := e.executeNode(ctx, run, node, c); nodeErr != nil {
			return nodeErr
		}
	}
	return nil
}

// nextNodes computes the successor keys of a node after it executed.
func (e *WorkflowExecutor) nextNodes(ctx context.Context, node *store.Node, c *Context, adjacency map[string][]*store.Edge) []string {
	outgoing := adjacency[node.Key]
	if len(outgoing) == 0 {
		return nil
	}

	if node.Type == schema.NodeTypeIfElse {
		return e.nextBranchNodes(ctx, node, c, outgoing)
	}

	var next []string
	for _, edge := range outgoing {
		if e.shouldFollowEdge(ctx, edge, c) {
			next = append(next, edge.TargetKey)
		}
	}
	return next
}

// nextBranchNodes routes an IF_ELSE node: each conditioned edge is
// followed when its evaluated boolean equals the node's just-written
// result; unconditioned edges are always followed as default paths. If
// nothing matched, the first unconditioned edge (or failing that the
// first edge) is taken, so a branch node never silently dead-ends.
func (e *WorkflowExecutor) nextBranchNodes(ctx context.Context, node *store.Node, c *Context, outgoing []*store.Edge) []string {
	result := false
	if v, ok := c.Get(schema.ResultKey(node.Key)); ok {
		switch rv := v.(type) {
		case bool:
			result = rv
		default:
			result, _ = EvaluateExpression(Stringify(rv), nil)
		}
	}

	snapshot := c.Snapshot()
	var next []string
	for _, edge := range outgoing {
		if edge.Condition == "" {
			next = append(next, edge.TargetKey)
			continue
		}
		edgeResult, err := Evaluate(edge.Condition, snapshot)
		if err != nil {
			e.logger.WarnContext(ctx, "failed to evaluate branch edge condition",
				"condition", edge.Condition, "target", edge.TargetKey, "error", err)
			continue
		}
		if edgeResult == result {
			next = append(next, edge.TargetKey)
		}
	}

	if len(next) == 0 {
		defaultEdge := outgoing[0]
		for _, edge := range outgoing {
			if edge.Condition == "" {
				defaultEdge = edge
				break
			}
		}
		next = append(next, defaultEdge.TargetKey)
	}
	return next
}

// shouldFollowEdge gates a non-branch edge: unconditioned edges always
// pass; a condition that fails to evaluate skips the edge with a warning
// rather than aborting the run.
func (e *WorkflowExecutor) shouldFollowEdge(ctx context.Context, edge *store.Edge, c *Context) bool {
	if edge.Condition == "" {
		return true
	}
	result, err := Evaluate(edge.Condition, c.Snapshot())
	if err != nil {
		e.logger.WarnContext(ctx, "failed to evaluate edge condition",
			"condition", edge.Condition, "target", edge.TargetKey, "error", err)
		return false
	}
	return result
}

// executeNode runs one node: node-run created PENDING with the context
// snapshot as input, moved to RUNNING, dispatched to its executor, and
// finished as SUCCESS with its output merged into the context or FAILED
// with the classified error also persisted onto the owning run.
func (e *WorkflowExecutor) executeNode(ctx context.Context, run *store.Run, node *store.Node, c *Context) *NodeError {
	ctx = logging.WithNodeKey(ctx, node.Key)

	nr := &store.NodeRun{
		ID:           uuid.New().String(),
		RunID:        run.ID,
		NodeKey:      node.Key,
		NodeType:     node.Type,
		Status:       schema.NodeRunStatusPending,
		InputPayload: c.Snapshot(),
	}
	if err := e.store.CreateNodeRun(ctx, nr); err != nil {
		e.logger.ErrorContext(ctx, "failed to create node run", "error", err)
		nerr := Classify(schema.NewError(schema.ErrCodeStore, err.Error()).WithCause(err), node.Key)
		e.failRun(ctx, run, c, nerr.Message)
		return nerr
	}

	started := time.Now().UTC()
	running := schema.NodeRunStatusRunning
	if err := e.store.UpdateNodeRun(ctx, nr.ID, store.NodeRunUpdate{Status: &running, StartedAt: &started}); err != nil {
		e.logger.ErrorContext(ctx, "failed to mark node run running", "error", err)
	}
	e.publish(ctx, run, node.Key, streaming.EventNodeStarted, nil)

	result, execErr := e.invoke(ctx, run, node, c)
	if execErr != nil {
		nerr := Classify(execErr, node.Key)
		e.logger.ErrorContext(ctx, "node execution failed",
			"code", nerr.Code, "retryable", nerr.Retryable, "error", nerr.Message)
		e.failNodeRun(ctx, nr.ID, nerr.Message)
		e.publish(ctx, run, node.Key, streaming.EventNodeFailed, map[string]any{"error": nerr.Message})
		e.failRun(ctx, run, c, nerr.Message)
		return nerr
	}

	c.Merge(result.Output)

	completed := time.Now().UTC()
	success := schema.NodeRunStatusSuccess
	if err := e.store.UpdateNodeRun(ctx, nr.ID, store.NodeRunUpdate{
		Status:        &success,
		OutputPayload: result.Output,
		CompletedAt:   &completed,
	}); err != nil {
		e.logger.ErrorContext(ctx, "failed to mark node run success", "error", err)
	}

	e.publish(ctx, run, node.Key, streaming.EventNodeSucceeded, result.Output)
	e.logger.DebugContext(ctx, "node executed", "message", result.Message)
	return nil
}

// invoke resolves the node's executor and calls it, containing panics.
func (e *WorkflowExecutor) invoke(ctx context.Context, run *store.Run, node *store.Node, c *Context) (result *Result, err error) {
	exec, err := e.registry.Get(node.Type)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = recoverError(r)
		}
	}()

	result, err = exec.Execute(ctx, ExecutionInput{
		Run:     run,
		Node:    node,
		Context: c,
		Config:  node.Config,
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &Result{}
	}
	return result, nil
}

// failNodeRun marks a node run FAILED, best effort.
func (e *WorkflowExecutor) failNodeRun(ctx context.Context, nodeRunID, message string) {
	failed := schema.NodeRunStatusFailed
	completed := time.Now().UTC()
	if err := e.store.UpdateNodeRun(ctx, nodeRunID, store.NodeRunUpdate{
		Status:       &failed,
		ErrorMessage: &message,
		CompletedAt:  &completed,
	}); err != nil {
		e.logger.ErrorContext(ctx, "failed to persist node run failure", "error", err)
	}
}

// failRun marks a run FAILED with its last error and context snapshot,
// best effort: a failure to persist the failure is logged, never raised.
func (e *WorkflowExecutor) failRun(ctx context.Context, run *store.Run, c *Context, message string) {
	failed := schema.RunStatusFailed
	completed := time.Now().UTC()
	update := store.RunUpdate{
		Status:      &failed,
		LastError:   &message,
		CompletedAt: &completed,
	}
	if c != nil {
		update.ContextData = c.Snapshot()
	}
	if err := e.store.UpdateRun(ctx, run.ID, update); err != nil {
		e.logger.ErrorContext(ctx, "failed to persist run failure", "error", err)
	}
	e.publish(ctx, run, "", streaming.EventRunFailed, map[string]any{"error": message})
}

// buildAdjacency maps each source key to its outgoing edges, preserving
// edge order.
func buildAdjacency(edges []*store.Edge) map[string][]*store.Edge {
	adjacency := make(map[string][]*store.Edge)
	for _, edge := range edges {
		adjacency[edge.SourceKey] = append(adjacency[edge.SourceKey], edge)
	}
	return adjacency
}
