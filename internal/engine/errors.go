package engine

import (
	"errors"
	"fmt"
	"net"
	"runtime/debug"
	"strings"
	"time"

	"github.com/flowstack/flowstack/pkg/schema"
)

// NodeError is a classified node-execution failure. The engine never acts
// on Retryable itself (no automatic retry loop exists); the flag is
// surfaced so operators and API consumers can decide on resubmission.
type NodeError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	NodeKey   string    `json:"node_key"`
	Timestamp time.Time `json:"timestamp"`
	Retryable bool      `json:"retryable"`
	Stack     string    `json:"stack,omitempty"`
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("[%s] node %q: %s", e.Code, e.NodeKey, e.Message)
}

// Classify converts an arbitrary execution error into a NodeError with a
// short code, a retryable flag, and a captured stack for diagnostics.
// Deliberate node failures and validation errors keep their FlowError
// codes; recovered panics land on NULL_REFERENCE via recoverError.
func Classify(err error, nodeKey string) *NodeError {
	if err == nil {
		return nil
	}

	code := schema.ErrCodeUnknown
	var fe *schema.FlowError
	if errors.As(err, &fe) {
		switch fe.Code {
		case schema.ErrCodeNodeExecution, schema.ErrCodeNullReference:
			code = fe.Code
		case schema.ErrCodeValidation, schema.ErrCodeInvalidInput:
			code = schema.ErrCodeInvalidInput
		}
	}

	return &NodeError{
		Code:      code,
		Message:   err.Error(),
		NodeKey:   nodeKey,
		Timestamp: time.Now().UTC(),
		Retryable: IsRetryableError(err),
		Stack:     string(debug.Stack()),
	}
}

// IsRetryableError reports whether an error looks transient: its message
// mentions a timeout, connection, or network problem, or it is a net.Error
// timeout / connect failure. Everything else is non-retryable.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "connection") ||
		strings.Contains(msg, "network") {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial" || opErr.Op == "read"
	}

	return false
}

// recoverError converts a recovered panic value into a FlowError so a
// misbehaving executor cannot take down the worker.
func recoverError(r any) *schema.FlowError {
	switch v := r.(type) {
	case error:
		msg := v.Error()
		if strings.Contains(msg, "nil pointer") || strings.Contains(msg, "nil map") {
			return schema.NewError(schema.ErrCodeNullReference, msg).WithCause(v)
		}
		return schema.NewError(schema.ErrCodeUnknown, msg).WithCause(v)
	default:
		return schema.NewErrorf(schema.ErrCodeUnknown, "panic: %v", r)
	}
}
