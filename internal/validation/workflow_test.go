package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowstack/flowstack/internal/store"
	"github.com/flowstack/flowstack/pkg/schema"
)

func newValidator(t *testing.T) *DefinitionValidator {
	t.Helper()
	v, err := NewDefinitionValidator()
	require.NoError(t, err)
	return v
}

func node(key string, typ schema.NodeType, config map[string]any) *store.Node {
	return &store.Node{Key: key, Name: key, Type: typ, Config: config}
}

func edge(src, tgt string) *store.Edge {
	return &store.Edge{SourceKey: src, TargetKey: tgt}
}

func validDefinition() *store.Definition {
	return &store.Definition{
		Name: "order-pipeline",
		Nodes: []*store.Node{
			node("start", schema.NodeTypeInput, nil),
			node("check", schema.NodeTypeIfElse, map[string]any{"condition": "{{total}} > 100"}),
			node("fetch", schema.NodeTypeHTTP, map[string]any{"url": "https://api.example.com/{{id}}"}),
			node("done", schema.NodeTypeOutput, map[string]any{"fields": []any{"total"}}),
		},
		Edges: []*store.Edge{
			edge("start", "check"),
			edge("check", "fetch"),
			edge("check", "done"),
			edge("fetch", "done"),
		},
	}
}

func TestValidDefinitionPasses(t *testing.T) {
	v := newValidator(t)
	require.NoError(t, v.ValidateDefinition(validDefinition()))
}

func TestDefinitionBasicRules(t *testing.T) {
	v := newValidator(t)

	require.Error(t, v.ValidateDefinition(nil))

	def := validDefinition()
	def.Name = "  "
	assertValidationError(t, v.ValidateDefinition(def), "name is required")

	def = validDefinition()
	def.Nodes = nil
	def.Edges = nil
	assertValidationError(t, v.ValidateDefinition(def), "at least one node")
}

func TestDuplicateAndBlankKeys(t *testing.T) {
	v := newValidator(t)

	def := validDefinition()
	def.Nodes = append(def.Nodes, node("start", schema.NodeTypeInput, nil))
	err := v.ValidateDefinition(def)
	assertValidationError(t, err, `duplicate node key "start"`)
	assert.Contains(t, err.Error(), "2 times")

	def = validDefinition()
	def.Nodes[0].Key = "   "
	assertValidationError(t, v.ValidateDefinition(def), "cannot be blank")
}

func TestUnknownNodeType(t *testing.T) {
	v := newValidator(t)

	def := validDefinition()
	def.Nodes[0].Type = "TELEPORT"
	assertValidationError(t, v.ValidateDefinition(def), `unknown node type "TELEPORT"`)
}

func TestEdgeEndpointRules(t *testing.T) {
	v := newValidator(t)

	def := validDefinition()
	def.Edges = append(def.Edges, edge("ghost", "done"))
	assertValidationError(t, v.ValidateDefinition(def), `unknown source node "ghost"`)

	def = validDefinition()
	def.Edges = append(def.Edges, edge("start", "ghost"))
	assertValidationError(t, v.ValidateDefinition(def), `unknown target node "ghost"`)

	def = validDefinition()
	def.Edges = append(def.Edges, edge("start", "start"))
	assertValidationError(t, v.ValidateDefinition(def), "self-loop")
}

func TestCycleDetection(t *testing.T) {
	v := newValidator(t)

	// start -> check -> fetch -> check is a cycle behind a valid entry.
	def := validDefinition()
	def.Edges = append(def.Edges, edge("fetch", "check"))
	err := v.ValidateDefinition(def)
	require.Error(t, err)
	fe, ok := err.(*schema.FlowError)
	require.True(t, ok)
	assert.Equal(t, schema.ErrCodeCycleDetected, fe.Code)
	assert.Contains(t, fe.Message, "cycle")

	// All nodes have incoming edges: no entry point.
	def = &store.Definition{
		Name: "loop",
		Nodes: []*store.Node{
			node("a", schema.NodeTypeInput, nil),
			node("b", schema.NodeTypeOutput, nil),
		},
		Edges: []*store.Edge{edge("a", "b"), edge("b", "a")},
	}
	err = v.ValidateDefinition(def)
	require.Error(t, err)
	fe, ok = err.(*schema.FlowError)
	require.True(t, ok)
	assert.Equal(t, schema.ErrCodeCycleDetected, fe.Code)
	assert.Contains(t, fe.Message, "no entry node")
}

func TestNodeConfigSchemas(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name    string
		node    *store.Node
		wantErr bool
	}{
		{"if_else missing condition", node("gate", schema.NodeTypeIfElse, map[string]any{}), true},
		{"if_else empty condition", node("gate", schema.NodeTypeIfElse, map[string]any{"condition": ""}), true},
		{"if_else valid", node("gate", schema.NodeTypeIfElse, map[string]any{"condition": "true"}), false},
		{"http missing url", node("call", schema.NodeTypeHTTP, map[string]any{"method": "GET"}), true},
		{"http valid", node("call", schema.NodeTypeHTTP, map[string]any{"url": "https://x"}), false},
		{"email missing to", node("mail", schema.NodeTypeEmail, map[string]any{"subject": "hi"}), true},
		{"email valid", node("mail", schema.NodeTypeEmail, map[string]any{"to": "a@x.io"}), false},
		{"transform missing program", node("shape", schema.NodeTypeTransform, map[string]any{}), true},
		{"transform jq", node("shape", schema.NodeTypeTransform, map[string]any{"jq": ".a"}), false},
		{"transform expr", node("shape", schema.NodeTypeTransform, map[string]any{"expr": "a + 1"}), false},
		{"chatgpt temperature out of range", node("ask", schema.NodeTypeChatGPT, map[string]any{"temperature": 9}), true},
		{"script config free-form", node("calc", schema.NodeTypeScriptJS, map[string]any{"anything": true}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := &store.Definition{Name: "wf", Nodes: []*store.Node{tt.node}}
			err := v.ValidateDefinition(def)
			if tt.wantErr {
				require.Error(t, err)
				fe, ok := err.(*schema.FlowError)
				require.True(t, ok)
				assert.Equal(t, schema.ErrCodeValidation, fe.Code)
				assert.Equal(t, tt.node.Key, fe.NodeKey)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func assertValidationError(t *testing.T, err error, contains string) {
	t.Helper()
	require.Error(t, err)
	fe, ok := err.(*schema.FlowError)
	require.True(t, ok)
	assert.Equal(t, schema.ErrCodeValidation, fe.Code)
	assert.Contains(t, fe.Message, contains)
}
