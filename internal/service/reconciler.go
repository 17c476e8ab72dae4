package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/deval2498/Spotmf/internal/alert"
	"github.com/deval2498/Spotmf/internal/client/chain"
	"github.com/deval2498/Spotmf/internal/models"
	"github.com/deval2498/Spotmf/internal/repository"
)

// StatusChecker resolves a transaction hash to a receipt status. Implemented
// by chain.Client and chain.Simulator.
type StatusChecker interface {
	TransactionStatus(ctx context.Context, txHash string) (chain.TxStatus, error)
}

// Terminal failure messages written by the reconciler.
const (
	errTimeout     = "Transaction timeout - over 24 hours old"
	errNotFound    = "Transaction not found on blockchain"
	errNoHash      = "no transaction hash recorded"
	errChainFailed = "Transaction failed on blockchain"
)

// ReconcileSummary is the structured result of one reconciliation pass.
type ReconcileSummary struct {
	Monitored  int       `json:"monitored"`
	Confirmed  int       `json:"confirmed"`
	Failed     int       `json:"failed"`
	Pending    int       `json:"pending"`
	Swept      int       `json:"swept"`
	Cleaned    int64     `json:"cleaned"`
	AlertsSent int       `json:"alerts_sent"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Reconciler drives every open execution to a terminal state using the
// blockchain status collaborator, then runs retention cleanup and the alert
// pass. Terminal rows are never touched again: the repository guards every
// status update on the current status, so re-processing is a no-op.
type Reconciler struct {
	Repo   repository.Repository
	Chain  StatusChecker
	Alerts alert.Sender
	Logger *zap.Logger

	// ExecutionTimeout forces FAILED regardless of what the chain reports.
	ExecutionTimeout time.Duration
	// NotFoundGrace is how long a hash may stay unknown to the chain before
	// not_found becomes terminal.
	NotFoundGrace  time.Duration
	LogRetention   time.Duration
	AlertBatchSize int
	BatchLimit     int

	Now func() time.Time
}

func (r *Reconciler) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}

func (r *Reconciler) executionTimeout() time.Duration {
	if r.ExecutionTimeout > 0 {
		return r.ExecutionTimeout
	}
	return 24 * time.Hour
}

func (r *Reconciler) notFoundGrace() time.Duration {
	if r.NotFoundGrace > 0 {
		return r.NotFoundGrace
	}
	return 2 * time.Hour
}

func (r *Reconciler) logRetention() time.Duration {
	if r.LogRetention > 0 {
		return r.LogRetention
	}
	return 14 * 24 * time.Hour
}

func (r *Reconciler) alertBatchSize() int {
	if r.AlertBatchSize > 0 {
		return r.AlertBatchSize
	}
	return 10
}

// RunCycle executes one reconciliation pass. Housekeeping (cleanup and the
// alert pass) runs even when no executions were open.
func (r *Reconciler) RunCycle(ctx context.Context) (ReconcileSummary, error) {
	started := r.now()
	summary := ReconcileSummary{StartedAt: started}

	open, err := r.Repo.ListOpenExecutions(ctx, r.BatchLimit)
	if err != nil {
		if r.Alerts != nil {
			r.Alerts.Send(ctx, fmt.Sprintf("Transaction reconciler failed to start: %v", err))
		}
		return summary, fmt.Errorf("listing open executions failed: %w", err)
	}
	summary.Monitored = len(open)

	for _, exec := range open {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		switch r.resolve(ctx, exec) {
		case models.ExecutionStatusSuccess:
			summary.Confirmed++
		case models.ExecutionStatusFailed:
			summary.Failed++
		default:
			summary.Pending++
		}
	}

	summary.Swept = r.sweepHashless(ctx)

	cleaned, err := r.Repo.DeleteFailedLogsBefore(ctx, r.now().Add(-r.logRetention()))
	if err != nil && r.Logger != nil {
		r.Logger.Warn("failed log cleanup failed", zap.Error(err))
	}
	summary.Cleaned = cleaned

	summary.AlertsSent = r.sendPendingAlerts(ctx)

	summary.FinishedAt = r.now()
	r.recordCycle(ctx, summary)
	if r.Logger != nil {
		r.Logger.Info("reconcile cycle completed",
			zap.Int("monitored", summary.Monitored),
			zap.Int("confirmed", summary.Confirmed),
			zap.Int("failed", summary.Failed),
			zap.Int("pending", summary.Pending),
			zap.Int("swept", summary.Swept),
			zap.Int64("cleaned", summary.Cleaned),
			zap.Int("alerts_sent", summary.AlertsSent),
		)
	}
	return summary, nil
}

// resolve advances one execution and returns the status it ended the pass
// with. The timeout check deliberately precedes the chain query: an execution
// past the timeout fails even if the chain would report it confirmed.
func (r *Reconciler) resolve(ctx context.Context, exec models.Execution) string {
	age := r.now().Sub(exec.CreatedAt)

	if age >= r.executionTimeout() {
		r.fail(ctx, exec, errTimeout)
		return models.ExecutionStatusFailed
	}

	if exec.TransactionHash == nil {
		return exec.Status
	}
	status, err := r.Chain.TransactionStatus(ctx, *exec.TransactionHash)
	if err != nil {
		if r.Logger != nil {
			r.Logger.Warn("chain status query failed",
				zap.Uint64("execution_id", exec.ID),
				zap.String("tx_hash", *exec.TransactionHash),
				zap.Error(err),
			)
		}
		return exec.Status
	}

	switch status.Status {
	case chain.StatusConfirmed:
		gas := parseHexGas(status.GasUsed)
		if err := r.Repo.MarkExecutionConfirmed(ctx, exec.ID, gas); err != nil {
			if r.Logger != nil {
				r.Logger.Error("confirm update failed", zap.Uint64("execution_id", exec.ID), zap.Error(err))
			}
			return exec.Status
		}
		return models.ExecutionStatusSuccess
	case chain.StatusFailed:
		message := status.Error
		if message == "" {
			message = errChainFailed
		}
		r.fail(ctx, exec, message)
		return models.ExecutionStatusFailed
	case chain.StatusNotFound:
		if age > r.notFoundGrace() {
			r.fail(ctx, exec, errNotFound)
			return models.ExecutionStatusFailed
		}
		return exec.Status
	default:
		// pending, unknown, or anything unexpected: re-check next cycle.
		return exec.Status
	}
}

func (r *Reconciler) fail(ctx context.Context, exec models.Execution, message string) {
	if err := r.Repo.MarkExecutionFailed(ctx, exec.ID, message); err != nil {
		if r.Logger != nil {
			r.Logger.Error("fail update failed", zap.Uint64("execution_id", exec.ID), zap.Error(err))
		}
		return
	}
	r.logFailure(ctx, exec, message)
}

// logFailure writes the deduplicated failed-transaction log row, pulling
// wallet and asset from the owning strategy.
func (r *Reconciler) logFailure(ctx context.Context, exec models.Execution, message string) {
	strat, err := r.Repo.GetStrategyByID(ctx, exec.StrategyID)
	if err != nil || strat == nil {
		if r.Logger != nil {
			r.Logger.Warn("strategy lookup failed for failed log",
				zap.Uint64("execution_id", exec.ID),
				zap.Uint64("strategy_id", exec.StrategyID),
				zap.Error(err),
			)
		}
		return
	}
	_, err = r.Repo.InsertFailedLogIfAbsent(ctx, &models.FailedTransactionLog{
		WalletAddress:   strat.WalletAddress,
		StrategyID:      strat.ID,
		ExecutionID:     exec.ID,
		Asset:           strat.Asset,
		Amount:          exec.Amount,
		StrategyType:    strat.StrategyType,
		TransactionHash: exec.TransactionHash,
		ErrorMessage:    message,
		FailedAt:        r.now(),
	})
	if err != nil && r.Logger != nil {
		r.Logger.Error("failed transaction log insert failed", zap.Uint64("execution_id", exec.ID), zap.Error(err))
	}
}

// sweepHashless times out executions that never received a hash, e.g. when
// the process died between broadcast acceptance and the hash write.
func (r *Reconciler) sweepHashless(ctx context.Context) int {
	cutoff := r.now().Add(-r.executionTimeout())
	stale, err := r.Repo.ListStaleHashlessExecutions(ctx, cutoff, r.BatchLimit)
	if err != nil {
		if r.Logger != nil {
			r.Logger.Warn("stale hashless scan failed", zap.Error(err))
		}
		return 0
	}
	for _, exec := range stale {
		r.fail(ctx, exec, errNoHash)
	}
	return len(stale)
}

// sendPendingAlerts alerts a bounded batch of un-alerted failures, oldest
// first, marking each row immediately so a crash mid-batch cannot lose or
// duplicate more than the in-flight batch.
func (r *Reconciler) sendPendingAlerts(ctx context.Context) int {
	logs, err := r.Repo.ListUnalertedFailedLogs(ctx, r.alertBatchSize())
	if err != nil {
		if r.Logger != nil {
			r.Logger.Warn("unalerted log scan failed", zap.Error(err))
		}
		return 0
	}
	sent := 0
	for _, entry := range logs {
		if r.Alerts != nil {
			r.Alerts.Send(ctx, formatFailureAlert(entry))
		}
		if err := r.Repo.MarkFailedLogAlerted(ctx, entry.ID); err != nil {
			if r.Logger != nil {
				r.Logger.Error("marking alert sent failed", zap.Uint64("log_id", entry.ID), zap.Error(err))
			}
			continue
		}
		sent++
	}
	return sent
}

func formatFailureAlert(entry models.FailedTransactionLog) string {
	hash := "none"
	if entry.TransactionHash != nil {
		hash = *entry.TransactionHash
	}
	return fmt.Sprintf(
		"Transaction failed for wallet %s (strategy %d, execution %d, tx %s): %s",
		entry.WalletAddress, entry.StrategyID, entry.ExecutionID, hash, entry.ErrorMessage,
	)
}

func parseHexGas(raw string) *int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseInt(strings.TrimPrefix(strings.ToLower(raw), "0x"), 16, 64)
	if err != nil {
		return nil
	}
	return &value
}

func (r *Reconciler) recordCycle(ctx context.Context, summary ReconcileSummary) {
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	run := &models.CycleRun{
		Kind:       models.CycleKindReconcile,
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
		Summary:    datatypes.JSON(raw),
	}
	if err := r.Repo.InsertCycleRun(ctx, run); err != nil && r.Logger != nil {
		r.Logger.Warn("cycle run insert failed", zap.Error(err))
	}
}
