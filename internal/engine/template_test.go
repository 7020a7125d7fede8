package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		template string
		ctx      map[string]any
		want     string
	}{
		{"simple token", "Hello {{name}}!", map[string]any{"name": "Bo"}, "Hello Bo!"},
		{"inner whitespace", "Hello {{ name }}!", map[string]any{"name": "Bo"}, "Hello Bo!"},
		{"missing key renders empty", "{{missing}}", map[string]any{}, ""},
		{"nil value renders empty", "v={{x}}", map[string]any{"x": nil}, "v="},
		{"no tokens pass through", "plain text", map[string]any{"a": 1}, "plain text"},
		{"multiple tokens", "{{a}}-{{b}}", map[string]any{"a": "x", "b": "y"}, "x-y"},
		{"numeric value", "n={{n}}", map[string]any{"n": float64(15)}, "n=15"},
		{"bool value", "ok={{ok}}", map[string]any{"ok": true}, "ok=true"},
		{"unclosed token passes through", "a {{b", map[string]any{"b": "x"}, "a {{b"},
		{"empty template", "", map[string]any{"a": 1}, ""},
		{"nil context unchanged", "{{a}}", nil, "{{a}}"},
		{"map value json encoded", "{{m}}", map[string]any{"m": map[string]any{"k": "v"}}, `{"k":"v"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.template, tt.ctx))
		})
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	ctx := map[string]any{"name": "Bo"}
	once := Render("Hello {{name}}!", ctx)
	twice := Render(once, ctx)
	assert.Equal(t, once, twice)

	plain := Render("no tokens here", ctx)
	assert.Equal(t, plain, Render(plain, ctx))
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "true", Stringify(true))
	assert.Equal(t, "false", Stringify(false))
	assert.Equal(t, "42", Stringify(42))
	assert.Equal(t, "3.5", Stringify(3.5))
	assert.Equal(t, "abc", Stringify("abc"))
	assert.Equal(t, `["a","b"]`, Stringify([]string{"a", "b"}))
}
