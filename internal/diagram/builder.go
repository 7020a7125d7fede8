package diagram

import (
	"strings"

	"github.com/flowstack/flowstack/internal/store"
	"github.com/flowstack/flowstack/pkg/schema"
)

// Build constructs a diagram Model from a workflow definition and optional
// node runs. Node runs, when given, become status overlays: the most recent
// run per node key wins. Virtual start and end nodes frame the graph.
func Build(def *store.Definition, nodeRuns []*store.NodeRun) *Model {
	runMap := make(map[string]*store.NodeRun, len(nodeRuns))
	for _, nr := range nodeRuns {
		runMap[nr.NodeKey] = nr // ListNodeRuns is creation-ordered, last wins
	}

	nodes := make([]*Node, 0, len(def.Nodes)+2)
	nodes = append(nodes, &Node{ID: "__start__", Label: "Start", Kind: NodeKindStart})
	for _, n := range def.Nodes {
		node := &Node{
			ID:    n.Key,
			Label: nodeLabel(n),
			Kind:  typeToKind(n.Type),
		}
		if nr, ok := runMap[n.Key]; ok {
			node.Status = overlayFromRun(nr)
		}
		nodes = append(nodes, node)
	}
	nodes = append(nodes, &Node{ID: "__end__", Label: "End", Kind: NodeKindEnd})

	hasIncoming := make(map[string]bool, len(def.Edges))
	hasOutgoing := make(map[string]bool, len(def.Edges))
	edges := make([]Edge, 0, len(def.Edges)+2)
	for _, e := range def.Edges {
		hasIncoming[e.TargetKey] = true
		hasOutgoing[e.SourceKey] = true
		edges = append(edges, Edge{From: e.SourceKey, To: e.TargetKey, Label: e.Condition})
	}
	for _, n := range def.Nodes {
		if !hasIncoming[n.Key] {
			edges = append(edges, Edge{From: "__start__", To: n.Key})
		}
		if !hasOutgoing[n.Key] {
			edges = append(edges, Edge{From: n.Key, To: "__end__"})
		}
	}

	return &Model{
		Title: def.Name,
		Nodes: nodes,
		Edges: edges,
	}
}

func typeToKind(t schema.NodeType) NodeKind {
	switch t {
	case schema.NodeTypeIfElse:
		return NodeKindCondition
	case schema.NodeTypeChatGPT, schema.NodeTypeOllama:
		return NodeKindLLM
	case schema.NodeTypeEmail, schema.NodeTypeNotify:
		return NodeKindMessage
	default:
		return NodeKindAction
	}
}

func nodeLabel(n *store.Node) string {
	if n.Name != "" && n.Name != n.Key {
		return n.Key + "\n(" + n.Name + ")"
	}
	return n.Key
}

func overlayFromRun(nr *store.NodeRun) *StatusOverlay {
	o := &StatusOverlay{
		Status: strings.ToLower(string(nr.Status)),
		Error:  nr.ErrorMessage,
	}
	if nr.StartedAt != nil && nr.CompletedAt != nil {
		o.DurationMs = nr.CompletedAt.Sub(*nr.StartedAt).Milliseconds()
	}
	return o
}

// firstLine truncates a label to its first line for compact renderings.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
