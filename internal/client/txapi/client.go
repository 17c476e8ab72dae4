package txapi

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// SwapRequest is the payload sent to the transaction broadcast API.
type SwapRequest struct {
	WalletAddress string          `json:"wallet_address"`
	Asset         string          `json:"asset"`
	Amount        decimal.Decimal `json:"amount"`
	Slippage      float64         `json:"slippage"`
	ExecutionID   uint64          `json:"execution_id"`
	StrategyID    uint64          `json:"strategy_id"`
}

type swapResponse struct {
	TransactionHash string `json:"transaction_hash"`
}

// Client talks to the external broadcast API. The API signs and submits the
// swap; this service only receives the resulting hash.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")
	return &Client{http: http}
}

func (c *Client) Submit(ctx context.Context, req SwapRequest) (string, error) {
	var out swapResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("")
	if err != nil {
		return "", fmt.Errorf("transaction api call failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("transaction api returned status %d: %s", resp.StatusCode(), resp.String())
	}
	if out.TransactionHash == "" {
		return "", fmt.Errorf("transaction api returned no transaction hash")
	}
	return out.TransactionHash, nil
}
