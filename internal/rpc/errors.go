package rpc

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreachable wraps transport-level failures: connection refused,
	// timeouts, unparseable responses.
	ErrUnreachable = errors.New("node unreachable")
	// ErrAuthFailed is returned when the node rejects the RPC credentials.
	ErrAuthFailed = errors.New("node authentication failed")
)

// NodeError is a structured error reported by the node itself, either as a
// JSON-RPC error or inside a failed operation.
type NodeError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node rejected request (code %d): %s", e.Code, e.Message)
}
