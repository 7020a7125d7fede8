package schema

import "fmt"

// Error codes used across the engine, store, validation, and API layers.
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNodeExecution     = "NODE_EXECUTION_ERROR"
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeNullReference     = "NULL_REFERENCE"
	ErrCodeUnknown           = "UNKNOWN_ERROR"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeCycleDetected     = "CYCLE_DETECTED"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeStore             = "STORE_ERROR"
	ErrCodeVault             = "VAULT_ERROR"
)

// FlowError is the structured error type used throughout FlowStack.
// It carries a machine-readable code, an optional node key for errors
// raised during node execution, and an optional wrapped cause.
type FlowError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	NodeKey string         `json:"node_key,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *FlowError) Error() string {
	if e.NodeKey != "" {
		return fmt.Sprintf("[%s] node %q: %s", e.Code, e.NodeKey, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *FlowError) Unwrap() error {
	return e.Cause
}

// NewError creates a FlowError with the given code and message.
func NewError(code, message string) *FlowError {
	return &FlowError{Code: code, Message: message}
}

// NewErrorf creates a FlowError with a formatted message.
func NewErrorf(code, format string, args ...any) *FlowError {
	return &FlowError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithNode attaches the key of the node the error originated from.
func (e *FlowError) WithNode(nodeKey string) *FlowError {
	e.NodeKey = nodeKey
	return e
}

// WithCause attaches the underlying error.
func (e *FlowError) WithCause(err error) *FlowError {
	e.Cause = err
	return e
}

// WithDetails attaches structured detail values.
func (e *FlowError) WithDetails(details map[string]any) *FlowError {
	e.Details = details
	return e
}
