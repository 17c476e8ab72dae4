package repository

import (
	"context"
	"time"

	"github.com/deval2498/Spotmf/internal/models"
)

// Repository is the persistence surface shared by the scanner, dispatcher and
// reconciler. All operations are single-row or small-batch; no cross-table
// transactions are required beyond per-call atomicity.
type Repository interface {
	// Strategies. ListActiveStrategies orders by last_executed_at ascending
	// with NULLs (never executed) first.
	ListActiveStrategies(ctx context.Context) ([]models.UserStrategy, error)
	GetStrategyByID(ctx context.Context, id uint64) (*models.UserStrategy, error)
	ListStrategies(ctx context.Context, params ListStrategiesParams) ([]models.UserStrategy, error)
	CountStrategies(ctx context.Context, params ListStrategiesParams) (int64, error)

	// ClaimStrategy conditionally marks a strategy in-flight: it succeeds only
	// if the strategy is unclaimed or its claim is older than staleBefore.
	// Returns false when another dispatch holds a fresh claim.
	ClaimStrategy(ctx context.Context, strategyID uint64, now time.Time, staleBefore time.Time) (bool, error)
	ReleaseStrategyClaim(ctx context.Context, strategyID uint64) error

	// MarkStrategyExecuted advances last_executed_at and increments
	// total_executions. Called only after the broadcast API returned a hash.
	MarkStrategyExecuted(ctx context.Context, strategyID uint64, executedAt time.Time) error

	// Moving averages.
	GetLatestMovingAverage(ctx context.Context, asset string) (*models.MovingAverageStatus, error)
	InsertMovingAverage(ctx context.Context, item *models.MovingAverageStatus) error
	UpsertPricePoint(ctx context.Context, item *models.PricePoint) error
	ListRecentPricePoints(ctx context.Context, asset string, limit int) ([]models.PricePoint, error)

	// Executions. Status updates on terminal rows are no-ops: every update
	// guards on the current status so re-processing an already terminal
	// execution never resurrects it.
	CreateExecution(ctx context.Context, item *models.Execution) error
	GetExecutionByID(ctx context.Context, id uint64) (*models.Execution, error)
	ListExecutions(ctx context.Context, params ListExecutionsParams) ([]models.Execution, error)
	CountExecutions(ctx context.Context, params ListExecutionsParams) (int64, error)
	// ListOpenExecutions returns PENDING/EXECUTING rows with a non-null hash,
	// oldest created first.
	ListOpenExecutions(ctx context.Context, limit int) ([]models.Execution, error)
	// ListStaleHashlessExecutions returns PENDING/EXECUTING rows that never
	// received a hash and were created before the cutoff.
	ListStaleHashlessExecutions(ctx context.Context, before time.Time, limit int) ([]models.Execution, error)
	MarkExecutionSubmitted(ctx context.Context, id uint64, txHash string) error
	MarkExecutionConfirmed(ctx context.Context, id uint64, gasUsed *int64) error
	MarkExecutionFailed(ctx context.Context, id uint64, errorMessage string) error

	// Failed transaction logs. Insert is deduplicated per execution id.
	InsertFailedLogIfAbsent(ctx context.Context, item *models.FailedTransactionLog) (bool, error)
	ListUnalertedFailedLogs(ctx context.Context, limit int) ([]models.FailedTransactionLog, error)
	MarkFailedLogAlerted(ctx context.Context, id uint64) error
	DeleteFailedLogsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	ListFailedLogs(ctx context.Context, params ListFailedLogsParams) ([]models.FailedTransactionLog, error)
	CountFailedLogs(ctx context.Context, params ListFailedLogsParams) (int64, error)

	// Cycle audit.
	InsertCycleRun(ctx context.Context, item *models.CycleRun) error
	ListCycleRuns(ctx context.Context, params ListCycleRunsParams) ([]models.CycleRun, error)
}

type ListStrategiesParams struct {
	Limit  int
	Offset int
	Wallet *string
	Asset  *string
	Active *bool
}

type ListExecutionsParams struct {
	Limit      int
	Offset     int
	StrategyID *uint64
	Status     *string
}

type ListFailedLogsParams struct {
	Limit  int
	Offset int
	Wallet *string
	Since  *time.Time
}

type ListCycleRunsParams struct {
	Limit  int
	Offset int
	Kind   *string
}
