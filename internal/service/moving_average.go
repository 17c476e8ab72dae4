package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/deval2498/Spotmf/internal/models"
	"github.com/deval2498/Spotmf/internal/repository"
)

// PriceSource provides the current spot price for an asset. Implemented by
// prices.Client and prices.Simulator.
type PriceSource interface {
	LatestPrice(ctx context.Context, asset string) (decimal.Decimal, error)
}

// MovingAverageRefresher records a daily price point per tracked asset and
// recomputes the simple moving average over the configured window. Assets are
// tracked when at least one active DCA-with-DMA strategy references them.
type MovingAverageRefresher struct {
	Repo   repository.Repository
	Prices PriceSource
	Logger *zap.Logger

	// WindowDays is the averaging window; MinSamples is how many daily closes
	// must exist before a status row is written at all.
	WindowDays int
	MinSamples int

	Now func() time.Time
}

func (m *MovingAverageRefresher) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now().UTC()
}

func (m *MovingAverageRefresher) windowDays() int {
	if m.WindowDays > 0 {
		return m.WindowDays
	}
	return 200
}

func (m *MovingAverageRefresher) minSamples() int {
	if m.MinSamples > 0 {
		return m.MinSamples
	}
	return m.windowDays()
}

// RunCycle refreshes every tracked asset. One asset failing does not stop the
// others; the first error is returned after the full pass.
func (m *MovingAverageRefresher) RunCycle(ctx context.Context) error {
	assets, err := m.trackedAssets(ctx)
	if err != nil {
		return fmt.Errorf("listing tracked assets failed: %w", err)
	}

	var firstErr error
	for _, asset := range assets {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := m.RefreshAsset(ctx, asset); err != nil {
			if m.Logger != nil {
				m.Logger.Warn("moving average refresh failed", zap.String("asset", asset), zap.Error(err))
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (m *MovingAverageRefresher) trackedAssets(ctx context.Context) ([]string, error) {
	strategies, err := m.Repo.ListActiveStrategies(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var assets []string
	for _, strat := range strategies {
		if strat.StrategyType != models.StrategyTypeDCAWithDMA {
			continue
		}
		if _, ok := seen[strat.Asset]; ok {
			continue
		}
		seen[strat.Asset] = struct{}{}
		assets = append(assets, strat.Asset)
	}
	return assets, nil
}

// RefreshAsset fetches the spot price, upserts today's price point and, when
// enough history exists, appends a fresh moving-average status row.
func (m *MovingAverageRefresher) RefreshAsset(ctx context.Context, asset string) error {
	price, err := m.Prices.LatestPrice(ctx, asset)
	if err != nil {
		return err
	}

	now := m.now()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if err := m.Repo.UpsertPricePoint(ctx, &models.PricePoint{
		Asset:  asset,
		Price:  price,
		Source: "spot",
		Day:    day,
	}); err != nil {
		return fmt.Errorf("price point upsert failed for %s: %w", asset, err)
	}

	points, err := m.Repo.ListRecentPricePoints(ctx, asset, m.windowDays())
	if err != nil {
		return fmt.Errorf("price history read failed for %s: %w", asset, err)
	}
	if len(points) < m.minSamples() {
		if m.Logger != nil {
			m.Logger.Info("insufficient price history for moving average",
				zap.String("asset", asset),
				zap.Int("have", len(points)),
				zap.Int("need", m.minSamples()),
			)
		}
		return nil
	}

	average := averagePrice(points)
	status := models.MovingAverageAbove
	if price.LessThan(average) {
		status = models.MovingAverageBelow
	}
	if err := m.Repo.InsertMovingAverage(ctx, &models.MovingAverageStatus{
		Asset:        asset,
		CurrentPrice: price,
		AverageValue: average,
		Status:       status,
		CalculatedAt: now,
	}); err != nil {
		return fmt.Errorf("moving average insert failed for %s: %w", asset, err)
	}

	if m.Logger != nil {
		m.Logger.Info("moving average refreshed",
			zap.String("asset", asset),
			zap.String("price", price.String()),
			zap.String("average", average.String()),
			zap.String("status", status),
		)
	}
	return nil
}

func averagePrice(points []models.PricePoint) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range points {
		sum = sum.Add(p.Price)
	}
	return sum.Div(decimal.NewFromInt(int64(len(points))))
}
