package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/deval2498/Spotmf/internal/models"
	"github.com/deval2498/Spotmf/internal/repository"
)

// Trigger reasons reported per strategy each cycle.
const (
	ReasonDCAInterval         = "DCA_INTERVAL"
	ReasonDMABelow            = "DMA_BELOW"
	ReasonDMAAbove            = "DMA_ABOVE"
	ReasonNoDMAData           = "NO_DMA_DATA"
	ReasonUnknownStrategyType = "UNKNOWN_STRATEGY_TYPE"
)

// Candidate is a strategy the scanner selected for dispatch this cycle,
// together with why it fires.
type Candidate struct {
	Strategy models.UserStrategy
	Reason   string
}

// Skip is an interval-eligible strategy whose trigger declined to fire. Its
// last_executed_at is untouched, so it is re-evaluated next cycle.
type Skip struct {
	StrategyID uint64
	Reason     string
}

// Scanner decides which active strategies fire this cycle. Interval
// eligibility comes first, then the per-type trigger rule.
type Scanner struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

// ScanResult preserves the repository's oldest-first ordering for candidates.
type ScanResult struct {
	Candidates []Candidate
	Skipped    []Skip
}

func (s *Scanner) Scan(ctx context.Context, now time.Time) (ScanResult, error) {
	strategies, err := s.Repo.ListActiveStrategies(ctx)
	if err != nil {
		return ScanResult{}, err
	}

	var result ScanResult
	for _, strat := range strategies {
		if !IntervalElapsed(now, strat.LastExecutedAt, strat.IntervalDays) {
			continue
		}
		fire, reason, err := s.trigger(ctx, strat)
		if err != nil {
			return ScanResult{}, err
		}
		if fire {
			result.Candidates = append(result.Candidates, Candidate{Strategy: strat, Reason: reason})
		} else {
			result.Skipped = append(result.Skipped, Skip{StrategyID: strat.ID, Reason: reason})
			if s.Logger != nil {
				s.Logger.Info("strategy skipped",
					zap.Uint64("strategy_id", strat.ID),
					zap.String("reason", reason),
				)
			}
		}
	}
	return result, nil
}

func (s *Scanner) trigger(ctx context.Context, strat models.UserStrategy) (bool, string, error) {
	switch strat.StrategyType {
	case models.StrategyTypeDCA:
		return true, ReasonDCAInterval, nil
	case models.StrategyTypeDCAWithDMA:
		status, err := s.Repo.GetLatestMovingAverage(ctx, strat.Asset)
		if err != nil {
			return false, "", err
		}
		return EvaluateDMATrigger(status)
	default:
		return false, ReasonUnknownStrategyType, nil
	}
}

// IntervalElapsed reports whether enough whole days have passed since the
// last execution. Never-executed strategies are always due; partial days do
// not count.
func IntervalElapsed(now time.Time, lastExecutedAt *time.Time, intervalDays int) bool {
	if lastExecutedAt == nil {
		return true
	}
	elapsed := now.Sub(*lastExecutedAt)
	if elapsed < 0 {
		return false
	}
	days := int(elapsed.Hours() / 24)
	return days >= intervalDays
}

// EvaluateDMATrigger applies the moving-average entry rule: fire only when
// the latest known status says the price is below the average. A missing
// status row is a non-fire outcome, not an error.
func EvaluateDMATrigger(status *models.MovingAverageStatus) (bool, string, error) {
	if status == nil {
		return false, ReasonNoDMAData, nil
	}
	if status.Status == models.MovingAverageBelow {
		return true, ReasonDMABelow, nil
	}
	return false, ReasonDMAAbove, nil
}
