package validation

import (
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/flowstack/flowstack/internal/store"
	"github.com/flowstack/flowstack/pkg/schema"
)

// Per-type JSON Schemas for node configs. Embedded as constants to avoid
// filesystem dependencies. Types without an entry accept any object.
var nodeConfigSchemaJSON = map[schema.NodeType]string{
	schema.NodeTypeIfElse: `{
	  "type": "object",
	  "required": ["condition"],
	  "properties": {
	    "condition": {"type": "string", "minLength": 1}
	  }
	}`,
	schema.NodeTypeHTTP: `{
	  "type": "object",
	  "required": ["url"],
	  "properties": {
	    "url": {"type": "string", "minLength": 1},
	    "method": {"type": "string"},
	    "headers": {"type": "object"},
	    "body": {}
	  }
	}`,
	schema.NodeTypeEmail: `{
	  "type": "object",
	  "required": ["to"],
	  "properties": {
	    "to": {},
	    "cc": {},
	    "bcc": {},
	    "from": {"type": "string"},
	    "subject": {"type": "string"},
	    "body": {"type": "string"}
	  }
	}`,
	schema.NodeTypeTransform: `{
	  "type": "object",
	  "oneOf": [
	    {"required": ["jq"]},
	    {"required": ["expr"]}
	  ],
	  "properties": {
	    "jq": {"type": "string", "minLength": 1},
	    "expr": {"type": "string", "minLength": 1}
	  }
	}`,
	schema.NodeTypeChatGPT: `{
	  "type": "object",
	  "properties": {
	    "prompt": {"type": "string"},
	    "model": {"type": "string"},
	    "temperature": {"type": "number", "minimum": 0, "maximum": 2}
	  }
	}`,
	schema.NodeTypeOllama: `{
	  "type": "object",
	  "properties": {
	    "prompt": {"type": "string"},
	    "model": {"type": "string"}
	  }
	}`,
	schema.NodeTypeOutput: `{
	  "type": "object",
	  "properties": {
	    "fields": {"type": "array", "items": {"type": "string"}}
	  }
	}`,
}

// DefinitionValidator checks workflow definitions before they are stored:
// structural graph rules plus per-type config JSON Schema validation
// (Draft 2020-12). Safe for concurrent use once constructed.
type DefinitionValidator struct {
	configSchemas map[schema.NodeType]*jsonschema.Schema
}

// NewDefinitionValidator compiles all node config schemas up front so that a
// schema typo is a startup error, not a request-time one.
func NewDefinitionValidator() (*DefinitionValidator, error) {
	compiled := make(map[schema.NodeType]*jsonschema.Schema, len(nodeConfigSchemaJSON))
	for nodeType, schemaJSON := range nodeConfigSchemaJSON {
		c := jsonschema.NewCompiler()
		c.AssertFormat()

		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schemaJSON))
		if err != nil {
			return nil, fmt.Errorf("unmarshal %s config schema: %w", nodeType, err)
		}
		url := fmt.Sprintf("flowstack://schemas/node/%s.json", strings.ToLower(string(nodeType)))
		if err := c.AddResource(url, doc); err != nil {
			return nil, fmt.Errorf("add %s config schema resource: %w", nodeType, err)
		}
		s, err := c.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("compile %s config schema: %w", nodeType, err)
		}
		compiled[nodeType] = s
	}
	return &DefinitionValidator{configSchemas: compiled}, nil
}

// ValidateDefinition runs every definition-time check. The first violation
// is returned as a VALIDATION_ERROR (CYCLE_DETECTED for cycles).
func (v *DefinitionValidator) ValidateDefinition(def *store.Definition) error {
	if def == nil {
		return schema.NewError(schema.ErrCodeValidation, "workflow definition is nil")
	}
	if strings.TrimSpace(def.Name) == "" {
		return schema.NewError(schema.ErrCodeValidation, "workflow name is required")
	}
	if len(def.Nodes) == 0 {
		return schema.NewError(schema.ErrCodeValidation, "workflow requires at least one node")
	}

	if err := v.checkNodes(def.Nodes); err != nil {
		return err
	}
	if err := checkEdges(def.Nodes, def.Edges); err != nil {
		return err
	}
	return checkAcyclic(def.Nodes, def.Edges)
}

// checkNodes validates keys, types, and per-type configs.
func (v *DefinitionValidator) checkNodes(nodes []*store.Node) error {
	counts := make(map[string]int, len(nodes))
	for _, n := range nodes {
		if strings.TrimSpace(n.Key) == "" {
			return schema.NewError(schema.ErrCodeValidation, "node key cannot be blank")
		}
		counts[n.Key]++
	}
	for key, count := range counts {
		if count > 1 {
			return schema.NewErrorf(schema.ErrCodeValidation,
				"duplicate node key %q appears %d times", key, count)
		}
	}

	for _, n := range nodes {
		if _, known := schema.KnownNodeTypes[n.Type]; !known {
			return schema.NewErrorf(schema.ErrCodeValidation,
				"unknown node type %q", n.Type).WithNode(n.Key)
		}
		if err := v.validateConfig(n); err != nil {
			return err
		}
	}
	return nil
}

// validateConfig checks a node's config against its type schema.
func (v *DefinitionValidator) validateConfig(n *store.Node) error {
	compiled, ok := v.configSchemas[n.Type]
	if !ok {
		return nil
	}

	config := n.Config
	if config == nil {
		config = map[string]any{}
	}
	doc, err := toJSONValue(config)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation,
			"failed to serialize node config").WithNode(n.Key).WithCause(err)
	}
	if err := compiled.Validate(doc); err != nil {
		return toFlowError(err).WithNode(n.Key)
	}
	return nil
}

// checkEdges validates edge endpoints against the node set.
func checkEdges(nodes []*store.Node, edges []*store.Edge) error {
	keys := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		keys[n.Key] = struct{}{}
	}

	for _, e := range edges {
		if _, ok := keys[e.SourceKey]; !ok {
			return schema.NewErrorf(schema.ErrCodeValidation,
				"edge references unknown source node %q", e.SourceKey)
		}
		if _, ok := keys[e.TargetKey]; !ok {
			return schema.NewErrorf(schema.ErrCodeValidation,
				"edge references unknown target node %q", e.TargetKey)
		}
		if e.SourceKey == e.TargetKey {
			return schema.NewErrorf(schema.ErrCodeValidation,
				"self-loop on node %q", e.SourceKey).WithNode(e.SourceKey)
		}
	}
	return nil
}

// checkAcyclic runs Kahn's algorithm over the edge set. Failing to consume
// every node means a cycle; a graph with edges but no zero-indegree node has
// no entry point, which is the degenerate form of the same defect.
func checkAcyclic(nodes []*store.Node, edges []*store.Edge) error {
	if len(edges) == 0 {
		return nil
	}

	indegree := make(map[string]int, len(nodes))
	successors := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		indegree[n.Key] = 0
	}
	for _, e := range edges {
		successors[e.SourceKey] = append(successors[e.SourceKey], e.TargetKey)
		indegree[e.TargetKey]++
	}

	var queue []string
	for _, n := range nodes {
		if indegree[n.Key] == 0 {
			queue = append(queue, n.Key)
		}
	}
	if len(queue) == 0 {
		return schema.NewError(schema.ErrCodeCycleDetected,
			"workflow has no entry node, every node has an incoming edge")
	}

	processed := 0
	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		processed++
		for _, next := range successors[key] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	if processed != len(nodes) {
		remaining := make([]string, 0)
		for _, n := range nodes {
			if indegree[n.Key] > 0 {
				remaining = append(remaining, n.Key)
			}
		}
		return schema.NewErrorf(schema.ErrCodeCycleDetected,
			"workflow contains a cycle involving nodes: %s", strings.Join(remaining, ", "))
	}
	return nil
}
