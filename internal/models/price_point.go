package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one daily close used to compute the 200-day moving average.
// Day is the UTC midnight of the observation.
type PricePoint struct {
	ID    uint64 `gorm:"primaryKey;autoIncrement"`
	Asset string `gorm:"type:varchar(40);not null;uniqueIndex:idx_price_asset_day,priority:1"`

	Price  decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	Source string          `gorm:"type:varchar(20);not null"`

	Day       time.Time `gorm:"type:timestamptz;not null;uniqueIndex:idx_price_asset_day,priority:2"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (PricePoint) TableName() string {
	return "price_points"
}
