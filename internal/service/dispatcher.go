package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/deval2498/Spotmf/internal/alert"
	"github.com/deval2498/Spotmf/internal/client/txapi"
	"github.com/deval2498/Spotmf/internal/models"
	"github.com/deval2498/Spotmf/internal/repository"
)

// Broadcaster submits a swap to the external transaction API and returns the
// transaction hash. Implemented by txapi.Client and txapi.Simulator.
type Broadcaster interface {
	Submit(ctx context.Context, req txapi.SwapRequest) (string, error)
}

// Per-strategy outcome actions.
const (
	ActionExecuted = "executed"
	ActionFailed   = "failed"
	ActionError    = "error"
	ActionSkipped  = "skipped"
	ActionClaimed  = "claimed_elsewhere"
)

// StrategyOutcome is one row of a dispatch summary.
type StrategyOutcome struct {
	StrategyID  uint64 `json:"strategy_id"`
	Action      string `json:"action"`
	Reason      string `json:"reason,omitempty"`
	ExecutionID uint64 `json:"execution_id,omitempty"`
	TxHash      string `json:"tx_hash,omitempty"`
	Error       string `json:"error,omitempty"`
}

// DispatchSummary is the structured result of one scan+dispatch cycle.
type DispatchSummary struct {
	Scanned    int               `json:"scanned"`
	Submitted  int               `json:"submitted"`
	Failed     int               `json:"failed"`
	Skipped    int               `json:"skipped"`
	Results    []StrategyOutcome `json:"results"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
}

// Dispatcher runs the eligibility scan and submits one execution per firing
// strategy. Each strategy is claimed before dispatch and processed in
// isolation: a failure or panic in one never aborts the rest of the batch.
type Dispatcher struct {
	Repo         repository.Repository
	Scanner      *Scanner
	Broadcast    Broadcaster
	Alerts       alert.Sender
	Logger       *zap.Logger
	ClaimTimeout time.Duration

	Now func() time.Time
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}

func (d *Dispatcher) claimTimeout() time.Duration {
	if d.ClaimTimeout > 0 {
		return d.ClaimTimeout
	}
	return 15 * time.Minute
}

// RunCycle executes one full dispatch pass. A failure to even start the scan
// is returned as an error and alerted; per-strategy failures are folded into
// the summary.
func (d *Dispatcher) RunCycle(ctx context.Context) (DispatchSummary, error) {
	started := d.now()
	scan, err := d.Scanner.Scan(ctx, started)
	if err != nil {
		if d.Alerts != nil {
			d.Alerts.Send(ctx, fmt.Sprintf("Spot buyer cycle failed to start: %v", err))
		}
		return DispatchSummary{}, fmt.Errorf("eligibility scan failed: %w", err)
	}

	summary := DispatchSummary{
		Scanned:   len(scan.Candidates) + len(scan.Skipped),
		StartedAt: started,
	}
	for _, skip := range scan.Skipped {
		summary.Skipped++
		summary.Results = append(summary.Results, StrategyOutcome{
			StrategyID: skip.StrategyID,
			Action:     ActionSkipped,
			Reason:     skip.Reason,
		})
	}

	for _, cand := range scan.Candidates {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		outcome := d.processCandidate(ctx, cand)
		switch outcome.Action {
		case ActionExecuted:
			summary.Submitted++
		case ActionFailed, ActionError:
			summary.Failed++
		}
		summary.Results = append(summary.Results, outcome)
	}

	summary.FinishedAt = d.now()
	d.recordCycle(ctx, summary)
	if d.Logger != nil {
		d.Logger.Info("dispatch cycle completed",
			zap.Int("scanned", summary.Scanned),
			zap.Int("submitted", summary.Submitted),
			zap.Int("failed", summary.Failed),
			zap.Int("skipped", summary.Skipped),
		)
	}
	return summary, nil
}

// processCandidate isolates one strategy: panics and unexpected errors become
// an "error" outcome rather than aborting the batch.
func (d *Dispatcher) processCandidate(ctx context.Context, cand Candidate) (outcome StrategyOutcome) {
	strat := cand.Strategy
	outcome = StrategyOutcome{StrategyID: strat.ID, Reason: cand.Reason}

	defer func() {
		if r := recover(); r != nil {
			outcome.Action = ActionError
			outcome.Error = fmt.Sprintf("panic while processing strategy: %v", r)
			if d.Logger != nil {
				d.Logger.Error("strategy processing panicked",
					zap.Uint64("strategy_id", strat.ID),
					zap.Any("panic", r),
				)
			}
		}
	}()

	now := d.now()
	claimed, err := d.Repo.ClaimStrategy(ctx, strat.ID, now, now.Add(-d.claimTimeout()))
	if err != nil {
		outcome.Action = ActionError
		outcome.Error = err.Error()
		return outcome
	}
	if !claimed {
		outcome.Action = ActionClaimed
		return outcome
	}
	defer func() {
		if err := d.Repo.ReleaseStrategyClaim(ctx, strat.ID); err != nil && d.Logger != nil {
			d.Logger.Warn("claim release failed", zap.Uint64("strategy_id", strat.ID), zap.Error(err))
		}
	}()

	exec := &models.Execution{
		StrategyID: strat.ID,
		Amount:     strat.Amount,
		Status:     models.ExecutionStatusPending,
	}
	if err := d.Repo.CreateExecution(ctx, exec); err != nil {
		outcome.Action = ActionError
		outcome.Error = err.Error()
		return outcome
	}
	outcome.ExecutionID = exec.ID

	txHash, err := d.Broadcast.Submit(ctx, txapi.SwapRequest{
		WalletAddress: strat.WalletAddress,
		Asset:         strat.Asset,
		Amount:        strat.Amount,
		Slippage:      strat.AcceptedSlippage,
		ExecutionID:   exec.ID,
		StrategyID:    strat.ID,
	})
	if err != nil {
		d.recordFailure(ctx, strat, exec, err.Error())
		outcome.Action = ActionFailed
		outcome.Error = err.Error()
		return outcome
	}

	// Hash first, then advance the strategy. If the process dies between the
	// two writes the strategy stays eligible and the reconciler owns the
	// orphaned execution; the reverse order could skip a day's buy entirely.
	if err := d.Repo.MarkExecutionSubmitted(ctx, exec.ID, txHash); err != nil {
		outcome.Action = ActionError
		outcome.Error = err.Error()
		return outcome
	}
	if err := d.Repo.MarkStrategyExecuted(ctx, strat.ID, d.now()); err != nil {
		outcome.Action = ActionError
		outcome.Error = err.Error()
		return outcome
	}

	if d.Logger != nil {
		d.Logger.Info("strategy dispatched",
			zap.Uint64("strategy_id", strat.ID),
			zap.Uint64("execution_id", exec.ID),
			zap.String("tx_hash", txHash),
			zap.String("reason", cand.Reason),
		)
	}
	outcome.Action = ActionExecuted
	outcome.TxHash = txHash
	return outcome
}

func (d *Dispatcher) recordFailure(ctx context.Context, strat models.UserStrategy, exec *models.Execution, message string) {
	if err := d.Repo.MarkExecutionFailed(ctx, exec.ID, message); err != nil && d.Logger != nil {
		d.Logger.Error("failed to mark execution failed", zap.Uint64("execution_id", exec.ID), zap.Error(err))
	}
	inserted, err := d.Repo.InsertFailedLogIfAbsent(ctx, &models.FailedTransactionLog{
		WalletAddress: strat.WalletAddress,
		StrategyID:    strat.ID,
		ExecutionID:   exec.ID,
		Asset:         strat.Asset,
		Amount:        exec.Amount,
		StrategyType:  strat.StrategyType,
		ErrorMessage:  message,
		FailedAt:      d.now(),
	})
	if err != nil {
		if d.Logger != nil {
			d.Logger.Error("failed transaction log insert failed", zap.Uint64("execution_id", exec.ID), zap.Error(err))
		}
		return
	}
	if inserted && d.Alerts != nil {
		d.Alerts.Send(ctx, fmt.Sprintf(
			"Transaction failed for wallet %s (strategy %d, execution %d): %s",
			strat.WalletAddress, strat.ID, exec.ID, message,
		))
	}
}

func (d *Dispatcher) recordCycle(ctx context.Context, summary DispatchSummary) {
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	run := &models.CycleRun{
		Kind:       models.CycleKindDispatch,
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
		Summary:    datatypes.JSON(raw),
	}
	if err := d.Repo.InsertCycleRun(ctx, run); err != nil && d.Logger != nil {
		d.Logger.Warn("cycle run insert failed", zap.Error(err))
	}
}
