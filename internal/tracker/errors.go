package tracker

import (
	"errors"
	"fmt"

	"github.com/Numi2/zcash-numi-sdk/internal/rpc"
)

// ErrTimedOut is returned by Wait when the operation did not reach a terminal
// state within the configured maximum wait.
var ErrTimedOut = errors.New("tracker: timed out waiting for operation")

// SubmissionError wraps a failure to hand the payment to the node. Nothing
// was accepted; the request can be resubmitted as-is.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("tracker: submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// OperationError reports that the node finished the operation unsuccessfully.
// State is the node's terminal state (failed or cancelled) and Reason is the
// node's own failure message when it gave one.
type OperationError struct {
	OperationID string
	State       rpc.OperationState
	Reason      string
}

func (e *OperationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("tracker: operation %s %s", e.OperationID, e.State)
	}
	return fmt.Sprintf("tracker: operation %s %s: %s", e.OperationID, e.State, e.Reason)
}
