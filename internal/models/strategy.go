package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Strategy types.
const (
	StrategyTypeDCA        = "DCA"
	StrategyTypeDCAWithDMA = "DCA_WITH_DMA"
)

// UserStrategy is a recurring buy plan owned by a wallet. The dispatcher is
// the only writer in this service: it advances LastExecutedAt and
// TotalExecutions after a successful submission, and holds ClaimedAt while a
// dispatch for the strategy is in flight. Creation and deactivation happen
// upstream.
type UserStrategy struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	WalletAddress string `gorm:"type:varchar(64);not null;index"`
	StrategyType  string `gorm:"type:varchar(20);not null"`
	Asset         string `gorm:"type:varchar(40);not null;index"`

	Amount           decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	IntervalDays     int             `gorm:"not null"`
	AcceptedSlippage float64         `gorm:"not null;default:0"`

	Active          bool       `gorm:"not null;default:true;index"`
	LastExecutedAt  *time.Time `gorm:"type:timestamptz;index"`
	TotalExecutions int        `gorm:"not null;default:0"`

	// ClaimedAt marks the strategy as in-flight for one dispatch attempt.
	// Claims older than the configured claim timeout are considered stale
	// and may be taken over.
	ClaimedAt *time.Time `gorm:"type:timestamptz"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (UserStrategy) TableName() string {
	return "user_strategies"
}
