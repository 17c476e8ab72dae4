package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Execution statuses. Transitions only move forward:
// PENDING -> EXECUTING -> {SUCCESS, FAILED}. SUCCESS and FAILED are terminal.
const (
	ExecutionStatusPending   = "PENDING"
	ExecutionStatusExecuting = "EXECUTING"
	ExecutionStatusSuccess   = "SUCCESS"
	ExecutionStatusFailed    = "FAILED"
)

// TerminalExecutionStatus reports whether no further transition is allowed.
func TerminalExecutionStatus(status string) bool {
	return status == ExecutionStatusSuccess || status == ExecutionStatusFailed
}

// Execution is one concrete attempt to carry out a strategy. Created PENDING
// by the dispatcher; the hash is stored once the broadcast API accepts the
// request, gas once the receipt confirms.
type Execution struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	StrategyID uint64 `gorm:"not null;index"`

	Amount decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	Status string          `gorm:"type:varchar(20);not null;default:'PENDING';index"`

	TransactionHash *string `gorm:"type:varchar(80);index"`
	GasUsed         *int64
	ErrorMessage    *string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Execution) TableName() string {
	return "strategy_executions"
}
