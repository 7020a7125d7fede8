package schema

// WorkflowStatus is the lifecycle state of a workflow definition.
type WorkflowStatus string

const (
	WorkflowStatusDraft    WorkflowStatus = "DRAFT"
	WorkflowStatusActive   WorkflowStatus = "ACTIVE"
	WorkflowStatusArchived WorkflowStatus = "ARCHIVED"
)

// RunStatus is the lifecycle state of a workflow run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "PENDING"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

// NodeRunStatus is the lifecycle state of a single node execution within a run.
type NodeRunStatus string

const (
	NodeRunStatusPending NodeRunStatus = "PENDING"
	NodeRunStatusRunning NodeRunStatus = "RUNNING"
	NodeRunStatusSuccess NodeRunStatus = "SUCCESS"
	NodeRunStatusFailed  NodeRunStatus = "FAILED"
)

// NodeType identifies the executor responsible for a node. The set is
// closed: every type maps to exactly one registered executor.
type NodeType string

const (
	NodeTypeInput     NodeType = "INPUT"
	NodeTypeScriptJS  NodeType = "SCRIPT_JS"
	NodeTypeScriptPy  NodeType = "SCRIPT_PY"
	NodeTypeHTTP      NodeType = "HTTP"
	NodeTypeEmail     NodeType = "EMAIL"
	NodeTypeChatGPT   NodeType = "CHATGPT"
	NodeTypeOllama    NodeType = "OLLAMA"
	NodeTypeIfElse    NodeType = "IF_ELSE"
	NodeTypeTransform NodeType = "TRANSFORM"
	NodeTypeOutput    NodeType = "OUTPUT"
	NodeTypeNotify    NodeType = "NOTIFY"
)

// KnownNodeTypes lists every recognized node type.
var KnownNodeTypes = map[NodeType]struct{}{
	NodeTypeInput:     {},
	NodeTypeScriptJS:  {},
	NodeTypeScriptPy:  {},
	NodeTypeHTTP:      {},
	NodeTypeEmail:     {},
	NodeTypeChatGPT:   {},
	NodeTypeOllama:    {},
	NodeTypeIfElse:    {},
	NodeTypeTransform: {},
	NodeTypeOutput:    {},
	NodeTypeNotify:    {},
}

// ResultKey is the context key a node writes its primary outcome under.
// The executor reads this back when selecting IF_ELSE successors.
func ResultKey(nodeKey string) string { return nodeKey + "::result" }

// ConditionKey is the context key an IF_ELSE node records its rendered
// condition string under.
func ConditionKey(nodeKey string) string { return nodeKey + "::condition" }
