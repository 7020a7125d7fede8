package diagram

// NodeKind classifies a diagram node by its workflow node type.
type NodeKind string

const (
	NodeKindAction    NodeKind = "action"
	NodeKindCondition NodeKind = "condition"
	NodeKindLLM       NodeKind = "llm"
	NodeKindMessage   NodeKind = "message"
	NodeKindStart     NodeKind = "start"
	NodeKindEnd       NodeKind = "end"
)

// Model is the intermediate representation used by all renderers.
type Model struct {
	Title string
	Nodes []*Node
	Edges []Edge
}

// Node represents a single workflow node in the diagram.
type Node struct {
	ID     string
	Label  string
	Kind   NodeKind
	Status *StatusOverlay
}

// StatusOverlay carries runtime state for a node taken from its node run.
type StatusOverlay struct {
	Status     string
	DurationMs int64
	Error      string
}

// Edge represents a directed connection between two nodes.
// Label carries the edge condition, when present.
type Edge struct {
	From  string
	To    string
	Label string
}
