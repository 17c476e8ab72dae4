package service

import (
	"context"
	"sort"
	"time"

	"github.com/deval2498/Spotmf/internal/models"
	"github.com/deval2498/Spotmf/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
// It mirrors the SQL semantics the services rely on: claim conditionality,
// status-guarded execution updates and per-execution failed-log dedup.
type stubRepo struct {
	strategies map[uint64]*models.UserStrategy
	averages   map[string]*models.MovingAverageStatus
	executions map[uint64]*models.Execution
	failedLogs map[uint64]*models.FailedTransactionLog
	prices     map[string][]models.PricePoint
	cycleRuns  []models.CycleRun

	nextExecutionID uint64
	nextLogID       uint64

	listActiveErr error
	claimErr      error
	listOpenErr   error
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		strategies: map[uint64]*models.UserStrategy{},
		averages:   map[string]*models.MovingAverageStatus{},
		executions: map[uint64]*models.Execution{},
		failedLogs: map[uint64]*models.FailedTransactionLog{},
		prices:     map[string][]models.PricePoint{},
	}
}

func (s *stubRepo) addStrategy(item models.UserStrategy) *models.UserStrategy {
	cp := item
	s.strategies[cp.ID] = &cp
	return &cp
}

func (s *stubRepo) addExecution(item models.Execution) *models.Execution {
	cp := item
	s.executions[cp.ID] = &cp
	if cp.ID >= s.nextExecutionID {
		s.nextExecutionID = cp.ID
	}
	return &cp
}

func (s *stubRepo) ListActiveStrategies(ctx context.Context) ([]models.UserStrategy, error) {
	if s.listActiveErr != nil {
		return nil, s.listActiveErr
	}
	var out []models.UserStrategy
	for _, strat := range s.strategies {
		if strat.Active {
			out = append(out, *strat)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].LastExecutedAt, out[j].LastExecutedAt
		if a == nil || b == nil {
			return a == nil && b != nil
		}
		return a.Before(*b)
	})
	return out, nil
}

func (s *stubRepo) GetStrategyByID(ctx context.Context, id uint64) (*models.UserStrategy, error) {
	strat, ok := s.strategies[id]
	if !ok {
		return nil, nil
	}
	cp := *strat
	return &cp, nil
}

func (s *stubRepo) ListStrategies(ctx context.Context, params repository.ListStrategiesParams) ([]models.UserStrategy, error) {
	return nil, nil
}

func (s *stubRepo) CountStrategies(ctx context.Context, params repository.ListStrategiesParams) (int64, error) {
	return 0, nil
}

func (s *stubRepo) ClaimStrategy(ctx context.Context, strategyID uint64, now time.Time, staleBefore time.Time) (bool, error) {
	if s.claimErr != nil {
		return false, s.claimErr
	}
	strat, ok := s.strategies[strategyID]
	if !ok {
		return false, nil
	}
	if strat.ClaimedAt != nil && !strat.ClaimedAt.Before(staleBefore) {
		return false, nil
	}
	t := now
	strat.ClaimedAt = &t
	return true, nil
}

func (s *stubRepo) ReleaseStrategyClaim(ctx context.Context, strategyID uint64) error {
	if strat, ok := s.strategies[strategyID]; ok {
		strat.ClaimedAt = nil
	}
	return nil
}

func (s *stubRepo) MarkStrategyExecuted(ctx context.Context, strategyID uint64, executedAt time.Time) error {
	strat, ok := s.strategies[strategyID]
	if !ok {
		return nil
	}
	t := executedAt
	strat.LastExecutedAt = &t
	strat.TotalExecutions++
	return nil
}

func (s *stubRepo) GetLatestMovingAverage(ctx context.Context, asset string) (*models.MovingAverageStatus, error) {
	status, ok := s.averages[asset]
	if !ok {
		return nil, nil
	}
	cp := *status
	return &cp, nil
}

func (s *stubRepo) InsertMovingAverage(ctx context.Context, item *models.MovingAverageStatus) error {
	cp := *item
	s.averages[item.Asset] = &cp
	return nil
}

func (s *stubRepo) UpsertPricePoint(ctx context.Context, item *models.PricePoint) error {
	points := s.prices[item.Asset]
	for i, p := range points {
		if p.Day.Equal(item.Day) {
			points[i].Price = item.Price
			return nil
		}
	}
	s.prices[item.Asset] = append(points, *item)
	return nil
}

func (s *stubRepo) ListRecentPricePoints(ctx context.Context, asset string, limit int) ([]models.PricePoint, error) {
	points := append([]models.PricePoint(nil), s.prices[asset]...)
	sort.Slice(points, func(i, j int) bool { return points[i].Day.After(points[j].Day) })
	if limit > 0 && len(points) > limit {
		points = points[:limit]
	}
	return points, nil
}

func (s *stubRepo) CreateExecution(ctx context.Context, item *models.Execution) error {
	s.nextExecutionID++
	item.ID = s.nextExecutionID
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	cp := *item
	s.executions[item.ID] = &cp
	return nil
}

func (s *stubRepo) GetExecutionByID(ctx context.Context, id uint64) (*models.Execution, error) {
	exec, ok := s.executions[id]
	if !ok {
		return nil, nil
	}
	cp := *exec
	return &cp, nil
}

func (s *stubRepo) ListExecutions(ctx context.Context, params repository.ListExecutionsParams) ([]models.Execution, error) {
	return nil, nil
}

func (s *stubRepo) CountExecutions(ctx context.Context, params repository.ListExecutionsParams) (int64, error) {
	return 0, nil
}

func (s *stubRepo) ListOpenExecutions(ctx context.Context, limit int) ([]models.Execution, error) {
	if s.listOpenErr != nil {
		return nil, s.listOpenErr
	}
	var out []models.Execution
	for _, exec := range s.executions {
		if models.TerminalExecutionStatus(exec.Status) || exec.TransactionHash == nil {
			continue
		}
		out = append(out, *exec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubRepo) ListStaleHashlessExecutions(ctx context.Context, before time.Time, limit int) ([]models.Execution, error) {
	var out []models.Execution
	for _, exec := range s.executions {
		if models.TerminalExecutionStatus(exec.Status) || exec.TransactionHash != nil {
			continue
		}
		if !exec.CreatedAt.Before(before) {
			continue
		}
		out = append(out, *exec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubRepo) MarkExecutionSubmitted(ctx context.Context, id uint64, txHash string) error {
	exec, ok := s.executions[id]
	if !ok || exec.Status != models.ExecutionStatusPending {
		return nil
	}
	hash := txHash
	exec.TransactionHash = &hash
	exec.Status = models.ExecutionStatusExecuting
	return nil
}

func (s *stubRepo) MarkExecutionConfirmed(ctx context.Context, id uint64, gasUsed *int64) error {
	exec, ok := s.executions[id]
	if !ok || models.TerminalExecutionStatus(exec.Status) {
		return nil
	}
	exec.Status = models.ExecutionStatusSuccess
	exec.GasUsed = gasUsed
	return nil
}

func (s *stubRepo) MarkExecutionFailed(ctx context.Context, id uint64, errorMessage string) error {
	exec, ok := s.executions[id]
	if !ok || models.TerminalExecutionStatus(exec.Status) {
		return nil
	}
	exec.Status = models.ExecutionStatusFailed
	msg := errorMessage
	exec.ErrorMessage = &msg
	return nil
}

func (s *stubRepo) InsertFailedLogIfAbsent(ctx context.Context, item *models.FailedTransactionLog) (bool, error) {
	for _, existing := range s.failedLogs {
		if existing.ExecutionID == item.ExecutionID {
			return false, nil
		}
	}
	s.nextLogID++
	item.ID = s.nextLogID
	cp := *item
	s.failedLogs[item.ID] = &cp
	return true, nil
}

func (s *stubRepo) ListUnalertedFailedLogs(ctx context.Context, limit int) ([]models.FailedTransactionLog, error) {
	var out []models.FailedTransactionLog
	for _, entry := range s.failedLogs {
		if !entry.AlertSent {
			out = append(out, *entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FailedAt.Before(out[j].FailedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubRepo) MarkFailedLogAlerted(ctx context.Context, id uint64) error {
	if entry, ok := s.failedLogs[id]; ok {
		entry.AlertSent = true
	}
	return nil
}

func (s *stubRepo) DeleteFailedLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	for id, entry := range s.failedLogs {
		if entry.FailedAt.Before(cutoff) {
			delete(s.failedLogs, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *stubRepo) ListFailedLogs(ctx context.Context, params repository.ListFailedLogsParams) ([]models.FailedTransactionLog, error) {
	return nil, nil
}

func (s *stubRepo) CountFailedLogs(ctx context.Context, params repository.ListFailedLogsParams) (int64, error) {
	return 0, nil
}

func (s *stubRepo) InsertCycleRun(ctx context.Context, item *models.CycleRun) error {
	s.cycleRuns = append(s.cycleRuns, *item)
	return nil
}

func (s *stubRepo) ListCycleRuns(ctx context.Context, params repository.ListCycleRunsParams) ([]models.CycleRun, error) {
	return append([]models.CycleRun(nil), s.cycleRuns...), nil
}
