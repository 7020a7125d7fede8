package expressions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowstack/flowstack/pkg/schema"
)

func TestGoJQEvaluate(t *testing.T) {
	e := NewGoJQEngine()
	assert.Equal(t, "jq", e.Name())

	data := map[string]any{
		"items": []any{
			map[string]any{"name": "a", "price": 10},
			map[string]any{"name": "b", "price": 25},
		},
		"threshold": 15,
	}

	got, err := e.Evaluate(context.Background(), `[.items[] | select(.price > .threshold // 15) | .name]`, data)
	require.NoError(t, err)
	assert.Equal(t, []any{"b"}, got)
}

func TestGoJQNormalizesNumbers(t *testing.T) {
	e := NewGoJQEngine()

	got, err := e.Evaluate(context.Background(), ".a + .b", map[string]any{"a": 2, "b": int64(3)})
	require.NoError(t, err)
	assert.Equal(t, float64(5), got)
}

func TestGoJQMultipleOutputs(t *testing.T) {
	e := NewGoJQEngine()

	got, err := e.Evaluate(context.Background(), ".xs[]", map[string]any{"xs": []any{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, []any{float64(1), float64(2)}, got)
}

func TestGoJQErrors(t *testing.T) {
	e := NewGoJQEngine()

	_, err := e.Evaluate(context.Background(), "", nil)
	require.Error(t, err)

	_, err = e.Evaluate(context.Background(), ".a |", nil)
	require.Error(t, err)
	fe, ok := err.(*schema.FlowError)
	require.True(t, ok)
	assert.Equal(t, schema.ErrCodeValidation, fe.Code)

	// Runtime failure, not a parse failure.
	_, err = e.Evaluate(context.Background(), `.a + "x"`, map[string]any{"a": 1})
	require.Error(t, err)
	fe, ok = err.(*schema.FlowError)
	require.True(t, ok)
	assert.Equal(t, schema.ErrCodeNodeExecution, fe.Code)
}

func TestGoJQCachesCompiledPrograms(t *testing.T) {
	e := NewGoJQEngine()

	_, err := e.Evaluate(context.Background(), ".a", map[string]any{"a": 1})
	require.NoError(t, err)
	_, err = e.Evaluate(context.Background(), ".a", map[string]any{"a": 2})
	require.NoError(t, err)
	assert.Len(t, e.cache, 1)
}
