package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/deval2498/Spotmf/internal/models"
)

func TestIntervalElapsed_NeverExecuted(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	if !IntervalElapsed(now, nil, 7) {
		t.Fatalf("never-executed strategy must always be due")
	}
}

func TestIntervalElapsed_WholeDayTruncation(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// 23h59m elapsed: zero whole days, a 1-day interval is not due yet.
	last := now.Add(-(24*time.Hour - time.Minute))
	if IntervalElapsed(now, &last, 1) {
		t.Fatalf("23h59m must not satisfy a 1-day interval")
	}

	// Exactly 24h: one whole day.
	last = now.Add(-24 * time.Hour)
	if !IntervalElapsed(now, &last, 1) {
		t.Fatalf("exactly 24h must satisfy a 1-day interval")
	}

	// 6 days and 23 hours against a 7-day interval.
	last = now.Add(-(6*24 + 23) * time.Hour)
	if IntervalElapsed(now, &last, 7) {
		t.Fatalf("6d23h must not satisfy a 7-day interval")
	}

	last = now.Add(-7 * 24 * time.Hour)
	if !IntervalElapsed(now, &last, 7) {
		t.Fatalf("7d must satisfy a 7-day interval")
	}
}

func TestIntervalElapsed_FutureLastExecution(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	last := now.Add(time.Hour)
	if IntervalElapsed(now, &last, 1) {
		t.Fatalf("a future last execution must not be due")
	}
}

func TestEvaluateDMATrigger(t *testing.T) {
	fire, reason, err := EvaluateDMATrigger(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fire || reason != ReasonNoDMAData {
		t.Fatalf("missing status: fire=%v reason=%s, want no-fire %s", fire, reason, ReasonNoDMAData)
	}

	fire, reason, err = EvaluateDMATrigger(&models.MovingAverageStatus{Status: models.MovingAverageBelow})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fire || reason != ReasonDMABelow {
		t.Fatalf("below status: fire=%v reason=%s, want fire %s", fire, reason, ReasonDMABelow)
	}

	fire, reason, err = EvaluateDMATrigger(&models.MovingAverageStatus{Status: models.MovingAverageAbove})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fire || reason != ReasonDMAAbove {
		t.Fatalf("above status: fire=%v reason=%s, want no-fire %s", fire, reason, ReasonDMAAbove)
	}
}

func TestScan_SplitsCandidatesAndSkips(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	old := now.Add(-48 * time.Hour)
	recent := now.Add(-time.Hour)

	repo := newStubRepo()
	repo.addStrategy(models.UserStrategy{
		ID: 1, StrategyType: models.StrategyTypeDCA, Asset: "bitcoin",
		Amount: decimal.NewFromInt(100), IntervalDays: 1, Active: true,
		LastExecutedAt: &old,
	})
	repo.addStrategy(models.UserStrategy{
		ID: 2, StrategyType: models.StrategyTypeDCA, Asset: "bitcoin",
		Amount: decimal.NewFromInt(100), IntervalDays: 1, Active: true,
		LastExecutedAt: &recent,
	})
	repo.addStrategy(models.UserStrategy{
		ID: 3, StrategyType: models.StrategyTypeDCAWithDMA, Asset: "ethereum",
		Amount: decimal.NewFromInt(50), IntervalDays: 1, Active: true,
	})
	repo.addStrategy(models.UserStrategy{
		ID: 4, StrategyType: "GRID", Asset: "bitcoin",
		Amount: decimal.NewFromInt(50), IntervalDays: 1, Active: true,
	})
	repo.addStrategy(models.UserStrategy{
		ID: 5, StrategyType: models.StrategyTypeDCA, Asset: "bitcoin",
		Amount: decimal.NewFromInt(50), IntervalDays: 1, Active: false,
	})

	scanner := &Scanner{Repo: repo}
	result, err := scanner.Scan(context.Background(), now)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if len(result.Candidates) != 1 {
		t.Fatalf("candidates=%d want=1", len(result.Candidates))
	}
	if result.Candidates[0].Strategy.ID != 1 || result.Candidates[0].Reason != ReasonDCAInterval {
		t.Fatalf("candidate=%+v want strategy 1 with %s", result.Candidates[0], ReasonDCAInterval)
	}

	// Strategy 3 has no moving-average data; strategy 4 has an unknown type.
	// Strategy 2 is inside its interval and strategy 5 inactive: neither appears.
	if len(result.Skipped) != 2 {
		t.Fatalf("skipped=%d want=2", len(result.Skipped))
	}
	reasons := map[uint64]string{}
	for _, skip := range result.Skipped {
		reasons[skip.StrategyID] = skip.Reason
	}
	if reasons[3] != ReasonNoDMAData {
		t.Fatalf("strategy 3 reason=%s want=%s", reasons[3], ReasonNoDMAData)
	}
	if reasons[4] != ReasonUnknownStrategyType {
		t.Fatalf("strategy 4 reason=%s want=%s", reasons[4], ReasonUnknownStrategyType)
	}
}

func TestScan_DMAFiresOnBelow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newStubRepo()
	repo.addStrategy(models.UserStrategy{
		ID: 1, StrategyType: models.StrategyTypeDCAWithDMA, Asset: "ethereum",
		Amount: decimal.NewFromInt(25), IntervalDays: 1, Active: true,
	})
	repo.averages["ethereum"] = &models.MovingAverageStatus{
		Asset:  "ethereum",
		Status: models.MovingAverageBelow,
	}

	scanner := &Scanner{Repo: repo}
	result, err := scanner.Scan(context.Background(), now)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(result.Candidates) != 1 || result.Candidates[0].Reason != ReasonDMABelow {
		t.Fatalf("result=%+v want one candidate with %s", result, ReasonDMABelow)
	}
}
