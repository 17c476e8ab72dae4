package secrets

import (
	"context"
	"testing"
)

func TestEnvResolver_MapsNameToPrefixedVar(t *testing.T) {
	t.Setenv("SPOTMF_TRANSACTION_API_URL", "https://tx.example.com")
	t.Setenv("SPOTMF_ALERT_WEBHOOK_URL", "  https://hooks.example.com  ")

	r := EnvResolver{Prefix: "SPOTMF_"}
	ctx := context.Background()

	if got := r.Resolve(ctx, TransactionAPIURL); got != "https://tx.example.com" {
		t.Fatalf("resolved=%q want=https://tx.example.com", got)
	}
	if got := r.Resolve(ctx, AlertWebhookURL); got != "https://hooks.example.com" {
		t.Fatalf("resolved=%q want trimmed webhook url", got)
	}
	if got := r.Resolve(ctx, BlockchainRPCURL); got != "" {
		t.Fatalf("unset secret resolved=%q want empty", got)
	}
}

func TestStaticResolver_ServesFixedValues(t *testing.T) {
	r := StaticResolver{
		DBDSN:        "postgres://localhost/spotmf",
		PricesAPIKey: "  key-123  ",
	}
	ctx := context.Background()

	if got := r.Resolve(ctx, DBDSN); got != "postgres://localhost/spotmf" {
		t.Fatalf("resolved=%q want dsn", got)
	}
	if got := r.Resolve(ctx, PricesAPIKey); got != "key-123" {
		t.Fatalf("resolved=%q want trimmed key", got)
	}
	if got := r.Resolve(ctx, TransactionAPIKey); got != "" {
		t.Fatalf("missing secret resolved=%q want empty", got)
	}
}

func TestFirstOf_ResolverWinsThenFallbacks(t *testing.T) {
	ctx := context.Background()

	r := StaticResolver{TransactionAPIURL: "https://resolved.example.com"}
	if got := FirstOf(ctx, r, TransactionAPIURL, "https://config.example.com"); got != "https://resolved.example.com" {
		t.Fatalf("got=%q want resolver value", got)
	}

	// Missing secret: first non-empty fallback wins.
	if got := FirstOf(ctx, r, BlockchainRPCURL, "", "  https://rpc.example.com "); got != "https://rpc.example.com" {
		t.Fatalf("got=%q want trimmed fallback", got)
	}

	// Nil resolver is tolerated.
	if got := FirstOf(ctx, nil, DBDSN, "postgres://fallback"); got != "postgres://fallback" {
		t.Fatalf("got=%q want fallback with nil resolver", got)
	}

	// Nothing anywhere: empty selects simulation mode at the call site.
	if got := FirstOf(ctx, r, PricesAPIKey); got != "" {
		t.Fatalf("got=%q want empty", got)
	}
}
