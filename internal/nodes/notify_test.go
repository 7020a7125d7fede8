package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowstack/flowstack/pkg/schema"
)

func TestNotifyRendersTemplate(t *testing.T) {
	exec := NewNotifyExecutor(nil)
	in := execInput("alert", schema.NodeTypeNotify,
		map[string]any{"channel": "ops", "template": "Run for {{name}} finished"},
		map[string]any{"name": "Bo"})

	result, err := exec.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "Run for Bo finished", result.Output["notification"])
}

func TestNotifyDefaults(t *testing.T) {
	exec := NewNotifyExecutor(nil)
	in := execInput("alert", schema.NodeTypeNotify, map[string]any{}, nil)

	result, err := exec.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "Workflow completed", result.Output["notification"])
}
