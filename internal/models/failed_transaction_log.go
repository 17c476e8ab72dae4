package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FailedTransactionLog is an audit and alerting record for a failed
// execution. The unique index on ExecutionID enforces at most one row per
// execution. Rows are deleted after a 14-day retention window.
type FailedTransactionLog struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	WalletAddress string `gorm:"type:varchar(64);not null;index"`
	StrategyID    uint64 `gorm:"not null;index"`
	ExecutionID   uint64 `gorm:"not null;uniqueIndex"`

	Asset           string          `gorm:"type:varchar(40);not null"`
	Amount          decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	StrategyType    string          `gorm:"type:varchar(20);not null"`
	TransactionHash *string         `gorm:"type:varchar(80)"`
	ErrorMessage    string          `gorm:"type:text;not null"`

	FailedAt  time.Time `gorm:"type:timestamptz;not null;index"`
	AlertSent bool      `gorm:"not null;default:false;index"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (FailedTransactionLog) TableName() string {
	return "failed_transaction_logs"
}
