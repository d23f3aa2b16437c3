// Package rpc speaks the Zcash Payment API: the zcashd JSON-RPC surface that
// accepts z_sendmany submissions and exposes the asynchronous operations they
// create. The Gateway interface is the seam the rest of the SDK depends on;
// Client is its HTTP implementation.
package rpc

import (
	"context"
	"encoding/json"
)

// OperationState is the node-side lifecycle of a z_sendmany operation. The
// node is authoritative; clients only observe.
type OperationState string

const (
	OpQueued    OperationState = "queued"
	OpExecuting OperationState = "executing"
	OpSuccess   OperationState = "success"
	OpFailed    OperationState = "failed"
	OpCancelled OperationState = "cancelled"
)

// Terminal reports whether the state can no longer change.
func (s OperationState) Terminal() bool {
	return s == OpSuccess || s == OpFailed || s == OpCancelled
}

// Recipient is one z_sendmany destination in wire form: the amount is a
// decimal ZEC number and the memo, when present, is hex-encoded.
type Recipient struct {
	Address string      `json:"address"`
	Amount  json.Number `json:"amount"`
	Memo    string      `json:"memo,omitempty"`
}

// OperationStatus is one entry of a z_getoperationstatus or
// z_getoperationresult response.
type OperationStatus struct {
	ID           string           `json:"id"`
	Status       OperationState   `json:"status"`
	CreationTime int64            `json:"creation_time"`
	Method       string           `json:"method"`
	Error        *NodeError       `json:"error,omitempty"`
	Result       *OperationResult `json:"result,omitempty"`
}

// OperationResult carries the transaction id of a successful operation.
type OperationResult struct {
	TxID string `json:"txid"`
}

// AddressCheck is the node's view of an address, used as a secondary check
// after local parsing, never instead of it.
type AddressCheck struct {
	IsValid     bool   `json:"isvalid"`
	Address     string `json:"address"`
	AddressType string `json:"address_type"`
	IsMine      bool   `json:"ismine"`
}

// BlockchainInfo is the typed subset of getblockchaininfo the SDK uses.
type BlockchainInfo struct {
	Chain                string  `json:"chain"`
	Blocks               uint64  `json:"blocks"`
	Headers              uint64  `json:"headers"`
	BestBlockHash        string  `json:"bestblockhash"`
	Difficulty           float64 `json:"difficulty"`
	VerificationProgress float64 `json:"verificationprogress"`
	Pruned               bool    `json:"pruned"`
}

// TotalBalance is the z_gettotalbalance response; amounts are decimal ZEC
// strings as the node renders them.
type TotalBalance struct {
	Transparent string `json:"transparent"`
	Private     string `json:"private"`
	Total       string `json:"total"`
}

// Gateway is the node contract the SDK's core depends on. Implementations
// must keep each call independently atomic: no state or lock spans calls.
type Gateway interface {
	// SubmitPayment maps to z_sendmany and returns the operation id.
	// fee is in zatoshi; nil lets the node pick the ZIP-317 fee itself.
	SubmitPayment(ctx context.Context, from string, recipients []Recipient, minconf uint32, fee *uint64) (string, error)
	// GetOperationStatus maps to z_getoperationstatus for a single id.
	GetOperationStatus(ctx context.Context, operationID string) (*OperationStatus, error)
	// GetOperationResult maps to z_getoperationresult for a single id; the
	// node forgets finished operations once they are fetched this way.
	GetOperationResult(ctx context.Context, operationID string) (*OperationStatus, error)
	// ValidateAddress maps to z_validateaddress.
	ValidateAddress(ctx context.Context, addr string) (*AddressCheck, error)
}
