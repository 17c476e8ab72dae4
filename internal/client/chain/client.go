package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Receipt statuses as seen by the reconciler.
const (
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
	StatusNotFound  = "not_found"
	StatusPending   = "pending"
	StatusUnknown   = "unknown"
)

// TxStatus is the normalized answer to "what happened to this hash".
// BlockNumber and GasUsed are base-16 strings as returned by the node.
type TxStatus struct {
	Status      string
	BlockNumber string
	GasUsed     string
	Error       string
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

type rpcReceipt struct {
	Status      string `json:"status"`
	BlockNumber string `json:"blockNumber"`
	GasUsed     string `json:"gasUsed"`
}

type rpcResponse struct {
	Result *rpcReceipt `json:"result"`
}

// Client resolves transaction hashes against an Ethereum-style JSON-RPC node
// via eth_getTransactionReceipt.
type Client struct {
	http *resty.Client
}

func NewClient(rpcURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	http := resty.New().
		SetBaseURL(rpcURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &Client{http: http}
}

func (c *Client) TransactionStatus(ctx context.Context, txHash string) (TxStatus, error) {
	var out rpcResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(rpcRequest{
			JSONRPC: "2.0",
			Method:  "eth_getTransactionReceipt",
			Params:  []any{txHash},
			ID:      1,
		}).
		SetResult(&out).
		Post("")
	if err != nil {
		return TxStatus{Status: StatusUnknown, Error: err.Error()}, err
	}
	if resp.IsError() {
		return TxStatus{
			Status: StatusUnknown,
			Error:  fmt.Sprintf("rpc error: %d", resp.StatusCode()),
		}, nil
	}
	if out.Result == nil {
		return TxStatus{Status: StatusNotFound}, nil
	}
	if out.Result.Status == "0x1" {
		return TxStatus{
			Status:      StatusConfirmed,
			BlockNumber: out.Result.BlockNumber,
			GasUsed:     out.Result.GasUsed,
		}, nil
	}
	return TxStatus{Status: StatusFailed, Error: "transaction reverted"}, nil
}
