package rpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Numi2/zcash-numi-sdk/internal/metrics"
	"github.com/Numi2/zcash-numi-sdk/internal/util"
)

const defaultTimeout = 30 * time.Second

// Client talks JSON-RPC over HTTP to a zcashd-compatible node, with optional
// basic auth (the node's standard authentication).
type Client struct {
	endpoint string
	http     *http.Client
	auth     string // base64 credentials, empty when unauthenticated
	metrics  *metrics.RPCMetrics
}

var _ Gateway = (*Client)(nil)

// NewClient creates a client without authentication.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// NewClientWithAuth creates a client using HTTP basic authentication.
func NewClientWithAuth(endpoint, username, password string) *Client {
	c := NewClient(endpoint)
	c.auth = base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return c
}

// WithMetrics attaches Prometheus instrumentation to every call.
func (c *Client) WithMetrics(m *metrics.RPCMetrics) *Client {
	c.metrics = m
	return c
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *NodeError      `json:"error"`
	ID     string          `json:"id"`
}

// Call invokes a JSON-RPC method and decodes the result into out (which may
// be nil to discard it). Typed convenience methods should be preferred.
func (c *Client) Call(ctx context.Context, method string, params []any, out any) error {
	start := time.Now()
	err := c.call(ctx, method, params, out)

	status := "success"
	if err != nil {
		status = "transport_error"
		var nodeErr *NodeError
		if errors.As(err, &nodeErr) {
			status = "node_error"
		}
	}
	c.metrics.RecordCall(method, status, time.Since(start))
	return err
}

func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.New().String(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("rpc: failed to marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("rpc: failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.auth != "" {
		req.Header.Set("Authorization", "Basic "+c.auth)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnreachable, method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: %s", ErrAuthFailed, method)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %s: reading response: %v", ErrUnreachable, method, err)
	}

	// The node returns JSON-RPC error bodies with non-2xx status codes;
	// decode before judging the status line.
	var rpcResp rpcResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%w: %s: http status %d", ErrUnreachable, method, resp.StatusCode)
		}
		return fmt.Errorf("%w: %s: invalid response: %v", ErrUnreachable, method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("rpc: %s: %w", method, rpcResp.Error)
	}
	if out == nil {
		return nil
	}
	if len(rpcResp.Result) == 0 || string(rpcResp.Result) == "null" {
		return fmt.Errorf("%w: %s: response missing result", ErrUnreachable, method)
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("%w: %s: decoding result: %v", ErrUnreachable, method, err)
	}
	return nil
}

// SubmitPayment sends a z_sendmany request and returns the operation id the
// node created for it.
func (c *Client) SubmitPayment(
	ctx context.Context,
	from string,
	recipients []Recipient,
	minconf uint32,
	fee *uint64,
) (string, error) {
	params := []any{from, recipients, minconf}
	if fee != nil {
		params = append(params, json.Number(util.FormatZEC(*fee)))
	}

	var operationID string
	if err := c.Call(ctx, "z_sendmany", params, &operationID); err != nil {
		return "", err
	}
	if operationID == "" {
		return "", fmt.Errorf("%w: z_sendmany: empty operation id", ErrUnreachable)
	}
	return operationID, nil
}

// GetOperationStatus fetches the status of one operation without consuming
// it on the node.
func (c *Client) GetOperationStatus(ctx context.Context, operationID string) (*OperationStatus, error) {
	return c.operationQuery(ctx, "z_getoperationstatus", operationID)
}

// GetOperationResult fetches the terminal result of one operation; the node
// removes the operation from its memory once returned.
func (c *Client) GetOperationResult(ctx context.Context, operationID string) (*OperationStatus, error) {
	return c.operationQuery(ctx, "z_getoperationresult", operationID)
}

func (c *Client) operationQuery(ctx context.Context, method, operationID string) (*OperationStatus, error) {
	var statuses []OperationStatus
	if err := c.Call(ctx, method, []any{[]string{operationID}}, &statuses); err != nil {
		return nil, err
	}
	for i := range statuses {
		if statuses[i].ID == operationID {
			return &statuses[i], nil
		}
	}
	return nil, &NodeError{Code: -1, Message: fmt.Sprintf("unknown operation id %q", operationID)}
}

// ValidateAddress asks the node's opinion of an address. This is a secondary
// check; local parsing remains the source of truth for validation.
func (c *Client) ValidateAddress(ctx context.Context, addr string) (*AddressCheck, error) {
	var check AddressCheck
	if err := c.Call(ctx, "z_validateaddress", []any{addr}, &check); err != nil {
		return nil, err
	}
	return &check, nil
}

// GetBlockchainInfo returns the node's chain state.
func (c *Client) GetBlockchainInfo(ctx context.Context) (*BlockchainInfo, error) {
	var info BlockchainInfo
	if err := c.Call(ctx, "getblockchaininfo", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetBlockCount returns the current chain height.
func (c *Client) GetBlockCount(ctx context.Context) (uint64, error) {
	var count uint64
	if err := c.Call(ctx, "getblockcount", nil, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// GetBalance returns an address balance in zatoshi via z_getbalance.
func (c *Client) GetBalance(ctx context.Context, addr string, minconf uint32) (uint64, error) {
	var amount json.Number
	if err := c.Call(ctx, "z_getbalance", []any{addr, minconf}, &amount); err != nil {
		return 0, err
	}
	zatoshi, err := util.ParseZEC(amount.String())
	if err != nil {
		return 0, fmt.Errorf("%w: z_getbalance: %v", ErrUnreachable, err)
	}
	return zatoshi, nil
}

// GetTotalBalance returns the wallet-wide balances via z_gettotalbalance.
func (c *Client) GetTotalBalance(ctx context.Context, minconf uint32) (*TotalBalance, error) {
	var balance TotalBalance
	if err := c.Call(ctx, "z_gettotalbalance", []any{minconf}, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

// ListOperationIDs returns the ids of operations the node is still holding.
func (c *Client) ListOperationIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := c.Call(ctx, "z_listoperationids", nil, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// ListReceivedByAddress passes through z_listreceivedbyaddress; history
// indexing is out of scope, so the raw node response is returned.
func (c *Client) ListReceivedByAddress(ctx context.Context, addr string, minconf uint32) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.Call(ctx, "z_listreceivedbyaddress", []any{addr, minconf}, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// ViewTransaction passes through z_viewtransaction for a txid.
func (c *Client) ViewTransaction(ctx context.Context, txid string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.Call(ctx, "z_viewtransaction", []any{txid}, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
