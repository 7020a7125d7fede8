package engine

import (
	"github.com/flowstack/flowstack/pkg/schema"
)

// ValidRunTransitions defines the allowed state transitions for runs.
// Both lifecycles are forward-only: a run or node run never returns to
// an earlier state.
var ValidRunTransitions = map[schema.RunStatus][]schema.RunStatus{
	schema.RunStatusPending:   {schema.RunStatusRunning},
	schema.RunStatusRunning:   {schema.RunStatusCompleted, schema.RunStatusFailed},
	schema.RunStatusCompleted: {},
	schema.RunStatusFailed:    {},
}

// ValidNodeRunTransitions defines the allowed state transitions for node runs.
var ValidNodeRunTransitions = map[schema.NodeRunStatus][]schema.NodeRunStatus{
	schema.NodeRunStatusPending: {schema.NodeRunStatusRunning},
	schema.NodeRunStatusRunning: {schema.NodeRunStatusSuccess, schema.NodeRunStatusFailed},
	schema.NodeRunStatusSuccess: {},
	schema.NodeRunStatusFailed:  {},
}

// CheckRunTransition validates a run state transition.
func CheckRunTransition(runID string, from, to schema.RunStatus) error {
	if !isValidRunTransition(from, to) {
		return schema.NewErrorf(schema.ErrCodeInvalidTransition,
			"invalid run transition: %s -> %s", from, to).
			WithDetails(map[string]any{"run_id": runID, "from": string(from), "to": string(to)})
	}
	return nil
}

// CheckNodeRunTransition validates a node-run state transition.
func CheckNodeRunTransition(nodeKey string, from, to schema.NodeRunStatus) error {
	if !isValidNodeRunTransition(from, to) {
		return schema.NewErrorf(schema.ErrCodeInvalidTransition,
			"invalid node run transition: %s -> %s", from, to).
			WithNode(nodeKey).
			WithDetails(map[string]any{"from": string(from), "to": string(to)})
	}
	return nil
}

func isValidRunTransition(from, to schema.RunStatus) bool {
	allowed, ok := ValidRunTransitions[from]
	if !ok {
		return false
	}
	for _, a := range allowed {
		if a == to {
			return true
		}
	}
	return false
}

func isValidNodeRunTransition(from, to schema.NodeRunStatus) bool {
	allowed, ok := ValidNodeRunTransitions[from]
	if !ok {
		return false
	}
	for _, a := range allowed {
		if a == to {
			return true
		}
	}
	return false
}

// IsTerminalRunStatus reports whether a run status admits no further transitions.
func IsTerminalRunStatus(s schema.RunStatus) bool {
	return s == schema.RunStatusCompleted || s == schema.RunStatusFailed
}

// IsTerminalNodeRunStatus reports whether a node-run status admits no further transitions.
func IsTerminalNodeRunStatus(s schema.NodeRunStatus) bool {
	return s == schema.NodeRunStatusSuccess || s == schema.NodeRunStatusFailed
}
