package chain

import (
	"context"
	"strings"
)

// Simulator stands in for the blockchain RPC when no endpoint is configured.
// The outcome is a deterministic function of the hash so repeated queries for
// the same transaction agree: hashes ending in "0" revert, hashes ending in
// "f" are never found, everything else confirms with a fixed gas value.
type Simulator struct{}

func (Simulator) TransactionStatus(_ context.Context, txHash string) (TxStatus, error) {
	h := strings.ToLower(strings.TrimSpace(txHash))
	switch {
	case strings.HasSuffix(h, "0"):
		return TxStatus{Status: StatusFailed, Error: "transaction reverted"}, nil
	case strings.HasSuffix(h, "f"):
		return TxStatus{Status: StatusNotFound}, nil
	default:
		return TxStatus{
			Status:      StatusConfirmed,
			BlockNumber: "0x123456",
			GasUsed:     "0x5208",
		}, nil
	}
}
