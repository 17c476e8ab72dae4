package secrets

import (
	"context"
	"os"
	"strings"
)

// Well-known secret names.
const (
	DBDSN             = "db-dsn"
	TransactionAPIURL = "transaction-api-url"
	TransactionAPIKey = "transaction-api-key"
	BlockchainRPCURL  = "blockchain-rpc-url"
	PricesAPIKey      = "prices-api-key"
	AlertWebhookURL   = "alert-webhook-url"
)

// Resolver looks up named secrets. A missing secret is not an error: Resolve
// returns an empty string and callers fall back to their configured value or
// to a simulated collaborator.
type Resolver interface {
	Resolve(ctx context.Context, name string) string
}

// EnvResolver maps secret names to environment variables:
// "transaction-api-url" becomes <prefix>TRANSACTION_API_URL.
type EnvResolver struct {
	Prefix string
}

func (r EnvResolver) Resolve(_ context.Context, name string) string {
	key := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	return strings.TrimSpace(os.Getenv(r.Prefix + key))
}

// StaticResolver serves secrets from a fixed map, used in tests and for
// config-file-provided values.
type StaticResolver map[string]string

func (r StaticResolver) Resolve(_ context.Context, name string) string {
	return strings.TrimSpace(r[name])
}

// FirstOf returns the first non-empty value among the resolved secret and the
// given fallbacks.
func FirstOf(ctx context.Context, r Resolver, name string, fallbacks ...string) string {
	if r != nil {
		if v := r.Resolve(ctx, name); v != "" {
			return v
		}
	}
	for _, f := range fallbacks {
		if strings.TrimSpace(f) != "" {
			return strings.TrimSpace(f)
		}
	}
	return ""
}
