package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Price-vs-average relationship values.
const (
	MovingAverageBelow = "BELOW"
	MovingAverageAbove = "ABOVE"
)

// MovingAverageStatus is the latest known relationship between an asset's
// price and its 200-day moving average. The scanner only ever reads the most
// recent row per asset; the refresher appends new rows.
type MovingAverageStatus struct {
	ID    uint64 `gorm:"primaryKey;autoIncrement"`
	Asset string `gorm:"type:varchar(40);not null;index:idx_ma_asset_calculated,priority:1"`

	CurrentPrice decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	AverageValue decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	Status       string          `gorm:"type:varchar(10);not null"`

	CalculatedAt time.Time `gorm:"type:timestamptz;not null;index:idx_ma_asset_calculated,priority:2"`
	CreatedAt    time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (MovingAverageStatus) TableName() string {
	return "moving_average_statuses"
}
