package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/deval2498/Spotmf/internal/models"
	"github.com/deval2498/Spotmf/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- strategies -------------------------------------------------------------

func (s *Store) ListActiveStrategies(ctx context.Context) ([]models.UserStrategy, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.UserStrategy
	err := s.db.WithContext(ctx).
		Model(&models.UserStrategy{}).
		Where("active = ?", true).
		Order("last_executed_at ASC NULLS FIRST").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetStrategyByID(ctx context.Context, id uint64) (*models.UserStrategy, error) {
	if s == nil || s.db == nil || id == 0 {
		return nil, nil
	}
	var item models.UserStrategy
	err := s.db.WithContext(ctx).First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListStrategies(ctx context.Context, params repository.ListStrategiesParams) ([]models.UserStrategy, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.applyStrategyFilters(ctx, params)
	var items []models.UserStrategy
	err := query.
		Order("created_at DESC").
		Limit(normalizeLimit(params.Limit, 50)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountStrategies(ctx context.Context, params repository.ListStrategiesParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := s.applyStrategyFilters(ctx, params).Count(&total).Error
	return total, err
}

func (s *Store) applyStrategyFilters(ctx context.Context, params repository.ListStrategiesParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.UserStrategy{})
	if params.Wallet != nil && strings.TrimSpace(*params.Wallet) != "" {
		query = query.Where("wallet_address = ?", strings.TrimSpace(*params.Wallet))
	}
	if params.Asset != nil && strings.TrimSpace(*params.Asset) != "" {
		query = query.Where("asset = ?", strings.TrimSpace(*params.Asset))
	}
	if params.Active != nil {
		query = query.Where("active = ?", *params.Active)
	}
	return query
}

func (s *Store) ClaimStrategy(ctx context.Context, strategyID uint64, now time.Time, staleBefore time.Time) (bool, error) {
	if s == nil || s.db == nil || strategyID == 0 {
		return false, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.UserStrategy{}).
		Where("id = ?", strategyID).
		Where("active = ?", true).
		Where("claimed_at IS NULL OR claimed_at < ?", staleBefore).
		Updates(map[string]any{
			"claimed_at": now,
			"updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) ReleaseStrategyClaim(ctx context.Context, strategyID uint64) error {
	if s == nil || s.db == nil || strategyID == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.UserStrategy{}).
		Where("id = ?", strategyID).
		Update("claimed_at", nil).Error
}

func (s *Store) MarkStrategyExecuted(ctx context.Context, strategyID uint64, executedAt time.Time) error {
	if s == nil || s.db == nil || strategyID == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.UserStrategy{}).
		Where("id = ?", strategyID).
		Updates(map[string]any{
			"last_executed_at": executedAt,
			"total_executions": gorm.Expr("total_executions + 1"),
			"updated_at":       executedAt,
		}).Error
}

// --- moving averages --------------------------------------------------------

func (s *Store) GetLatestMovingAverage(ctx context.Context, asset string) (*models.MovingAverageStatus, error) {
	if s == nil || s.db == nil || strings.TrimSpace(asset) == "" {
		return nil, nil
	}
	var item models.MovingAverageStatus
	err := s.db.WithContext(ctx).
		Where("asset = ?", strings.TrimSpace(asset)).
		Order("calculated_at DESC").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) InsertMovingAverage(ctx context.Context, item *models.MovingAverageStatus) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) UpsertPricePoint(ctx context.Context, item *models.PricePoint) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "asset"}, {Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "source"}),
	}).Create(item).Error
}

func (s *Store) ListRecentPricePoints(ctx context.Context, asset string, limit int) ([]models.PricePoint, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.PricePoint
	err := s.db.WithContext(ctx).
		Where("asset = ?", strings.TrimSpace(asset)).
		Order("day DESC").
		Limit(normalizeLimit(limit, 200)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- executions -------------------------------------------------------------

func (s *Store) CreateExecution(ctx context.Context, item *models.Execution) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetExecutionByID(ctx context.Context, id uint64) (*models.Execution, error) {
	if s == nil || s.db == nil || id == 0 {
		return nil, nil
	}
	var item models.Execution
	err := s.db.WithContext(ctx).First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListExecutions(ctx context.Context, params repository.ListExecutionsParams) ([]models.Execution, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Execution
	err := s.applyExecutionFilters(ctx, params).
		Order("created_at DESC").
		Limit(normalizeLimit(params.Limit, 50)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountExecutions(ctx context.Context, params repository.ListExecutionsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := s.applyExecutionFilters(ctx, params).Count(&total).Error
	return total, err
}

func (s *Store) applyExecutionFilters(ctx context.Context, params repository.ListExecutionsParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Execution{})
	if params.StrategyID != nil && *params.StrategyID > 0 {
		query = query.Where("strategy_id = ?", *params.StrategyID)
	}
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	return query
}

func (s *Store) ListOpenExecutions(ctx context.Context, limit int) ([]models.Execution, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Execution
	err := s.db.WithContext(ctx).
		Where("status IN ?", []string{models.ExecutionStatusPending, models.ExecutionStatusExecuting}).
		Where("transaction_hash IS NOT NULL").
		Order("created_at ASC").
		Limit(normalizeLimit(limit, 500)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListStaleHashlessExecutions(ctx context.Context, before time.Time, limit int) ([]models.Execution, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Execution
	err := s.db.WithContext(ctx).
		Where("status IN ?", []string{models.ExecutionStatusPending, models.ExecutionStatusExecuting}).
		Where("transaction_hash IS NULL").
		Where("created_at < ?", before).
		Order("created_at ASC").
		Limit(normalizeLimit(limit, 500)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) MarkExecutionSubmitted(ctx context.Context, id uint64, txHash string) error {
	if s == nil || s.db == nil || id == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Execution{}).
		Where("id = ?", id).
		Where("status = ?", models.ExecutionStatusPending).
		Updates(map[string]any{
			"status":           models.ExecutionStatusExecuting,
			"transaction_hash": txHash,
			"updated_at":       time.Now().UTC(),
		}).Error
}

func (s *Store) MarkExecutionConfirmed(ctx context.Context, id uint64, gasUsed *int64) error {
	if s == nil || s.db == nil || id == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Execution{}).
		Where("id = ?", id).
		Where("status IN ?", []string{models.ExecutionStatusPending, models.ExecutionStatusExecuting}).
		Updates(map[string]any{
			"status":     models.ExecutionStatusSuccess,
			"gas_used":   gasUsed,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (s *Store) MarkExecutionFailed(ctx context.Context, id uint64, errorMessage string) error {
	if s == nil || s.db == nil || id == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Execution{}).
		Where("id = ?", id).
		Where("status IN ?", []string{models.ExecutionStatusPending, models.ExecutionStatusExecuting}).
		Updates(map[string]any{
			"status":        models.ExecutionStatusFailed,
			"error_message": errorMessage,
			"updated_at":    time.Now().UTC(),
		}).Error
}

// --- failed transaction logs ------------------------------------------------

func (s *Store) InsertFailedLogIfAbsent(ctx context.Context, item *models.FailedTransactionLog) (bool, error) {
	if s == nil || s.db == nil || item == nil {
		return false, nil
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "execution_id"}},
		DoNothing: true,
	}).Create(item)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) ListUnalertedFailedLogs(ctx context.Context, limit int) ([]models.FailedTransactionLog, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.FailedTransactionLog
	err := s.db.WithContext(ctx).
		Where("alert_sent = ?", false).
		Order("failed_at ASC").
		Limit(normalizeLimit(limit, 10)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) MarkFailedLogAlerted(ctx context.Context, id uint64) error {
	if s == nil || s.db == nil || id == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.FailedTransactionLog{}).
		Where("id = ?", id).
		Update("alert_sent", true).Error
}

func (s *Store) DeleteFailedLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if s == nil || s.db == nil || cutoff.IsZero() {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("failed_at < ?", cutoff).
		Delete(&models.FailedTransactionLog{})
	return res.RowsAffected, res.Error
}

func (s *Store) ListFailedLogs(ctx context.Context, params repository.ListFailedLogsParams) ([]models.FailedTransactionLog, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.applyFailedLogFilters(ctx, params)
	var items []models.FailedTransactionLog
	err := query.
		Order("failed_at DESC").
		Limit(normalizeLimit(params.Limit, 50)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountFailedLogs(ctx context.Context, params repository.ListFailedLogsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := s.applyFailedLogFilters(ctx, params).Count(&total).Error
	return total, err
}

func (s *Store) applyFailedLogFilters(ctx context.Context, params repository.ListFailedLogsParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.FailedTransactionLog{})
	if params.Wallet != nil && strings.TrimSpace(*params.Wallet) != "" {
		query = query.Where("wallet_address = ?", strings.TrimSpace(*params.Wallet))
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("failed_at >= ?", *params.Since)
	}
	return query
}

// --- cycle runs -------------------------------------------------------------

func (s *Store) InsertCycleRun(ctx context.Context, item *models.CycleRun) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListCycleRuns(ctx context.Context, params repository.ListCycleRunsParams) ([]models.CycleRun, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.CycleRun{})
	if params.Kind != nil && strings.TrimSpace(*params.Kind) != "" {
		query = query.Where("kind = ?", strings.TrimSpace(*params.Kind))
	}
	var items []models.CycleRun
	err := query.
		Order("started_at DESC").
		Limit(normalizeLimit(params.Limit, 50)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- helpers ----------------------------------------------------------------

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
