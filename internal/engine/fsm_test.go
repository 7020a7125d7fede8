package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowstack/flowstack/pkg/schema"
)

func TestRunTransitions(t *testing.T) {
	valid := []struct{ from, to schema.RunStatus }{
		{schema.RunStatusPending, schema.RunStatusRunning},
		{schema.RunStatusRunning, schema.RunStatusCompleted},
		{schema.RunStatusRunning, schema.RunStatusFailed},
	}
	for _, tt := range valid {
		assert.NoError(t, CheckRunTransition("r1", tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}

	invalid := []struct{ from, to schema.RunStatus }{
		{schema.RunStatusPending, schema.RunStatusCompleted},
		{schema.RunStatusPending, schema.RunStatusFailed},
		{schema.RunStatusCompleted, schema.RunStatusRunning},
		{schema.RunStatusFailed, schema.RunStatusRunning},
		{schema.RunStatusCompleted, schema.RunStatusFailed},
		{schema.RunStatusRunning, schema.RunStatusPending},
	}
	for _, tt := range invalid {
		err := CheckRunTransition("r1", tt.from, tt.to)
		require.Error(t, err, "%s -> %s", tt.from, tt.to)
		fe, ok := err.(*schema.FlowError)
		require.True(t, ok)
		assert.Equal(t, schema.ErrCodeInvalidTransition, fe.Code)
	}
}

func TestNodeRunTransitions(t *testing.T) {
	assert.NoError(t, CheckNodeRunTransition("n1", schema.NodeRunStatusPending, schema.NodeRunStatusRunning))
	assert.NoError(t, CheckNodeRunTransition("n1", schema.NodeRunStatusRunning, schema.NodeRunStatusSuccess))
	assert.NoError(t, CheckNodeRunTransition("n1", schema.NodeRunStatusRunning, schema.NodeRunStatusFailed))

	err := CheckNodeRunTransition("n1", schema.NodeRunStatusSuccess, schema.NodeRunStatusRunning)
	require.Error(t, err)
	fe, ok := err.(*schema.FlowError)
	require.True(t, ok)
	assert.Equal(t, "n1", fe.NodeKey)

	require.Error(t, CheckNodeRunTransition("n1", schema.NodeRunStatusPending, schema.NodeRunStatusSuccess))
	require.Error(t, CheckNodeRunTransition("n1", schema.NodeRunStatusFailed, schema.NodeRunStatusRunning))
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, IsTerminalRunStatus(schema.RunStatusCompleted))
	assert.True(t, IsTerminalRunStatus(schema.RunStatusFailed))
	assert.False(t, IsTerminalRunStatus(schema.RunStatusPending))
	assert.False(t, IsTerminalRunStatus(schema.RunStatusRunning))

	assert.True(t, IsTerminalNodeRunStatus(schema.NodeRunStatusSuccess))
	assert.True(t, IsTerminalNodeRunStatus(schema.NodeRunStatusFailed))
	assert.False(t, IsTerminalNodeRunStatus(schema.NodeRunStatusRunning))
}
