package txapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Simulator stands in for the broadcast API when no endpoint is configured.
// It is deterministic: the hash is derived from the request, and every fifth
// execution id fails so failure paths stay exercised end to end.
type Simulator struct{}

func (Simulator) Submit(_ context.Context, req SwapRequest) (string, error) {
	if req.ExecutionID%5 == 0 {
		return "", fmt.Errorf("simulated broadcast failure for execution %d", req.ExecutionID)
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%d:%s", req.StrategyID, req.ExecutionID, req.Asset)))
	return "0x" + hex.EncodeToString(sum[:]), nil
}
