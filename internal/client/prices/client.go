package prices

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

type simplePriceResponse map[string]map[string]float64

// Client fetches spot prices from a CoinGecko-style simple-price endpoint.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("accept", "application/json")
	if apiKey != "" {
		http.SetHeader("x-cg-demo-api-key", apiKey)
	}
	return &Client{http: http}
}

func (c *Client) LatestPrice(ctx context.Context, asset string) (decimal.Decimal, error) {
	var out simplePriceResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("ids", asset).
		SetQueryParam("vs_currencies", "usd").
		SetResult(&out).
		Get("/simple/price")
	if err != nil {
		return decimal.Zero, fmt.Errorf("price fetch failed for %s: %w", asset, err)
	}
	if resp.IsError() {
		return decimal.Zero, fmt.Errorf("price api returned status %d for %s", resp.StatusCode(), asset)
	}
	quote, ok := out[asset]
	if !ok {
		return decimal.Zero, fmt.Errorf("no price returned for %s", asset)
	}
	usd, ok := quote["usd"]
	if !ok {
		return decimal.Zero, fmt.Errorf("no usd quote returned for %s", asset)
	}
	return decimal.NewFromFloat(usd), nil
}
