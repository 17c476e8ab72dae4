package models

import (
	"time"

	"gorm.io/datatypes"
)

// Cycle kinds.
const (
	CycleKindDispatch  = "dispatch"
	CycleKindReconcile = "reconcile"
)

// CycleRun records one dispatch or reconciliation pass with its structured
// summary, so cycle outcomes stay queryable after the HTTP response is gone.
type CycleRun struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement"`
	Kind string `gorm:"type:varchar(20);not null;index"`

	StartedAt  time.Time `gorm:"type:timestamptz;not null;index"`
	FinishedAt time.Time `gorm:"type:timestamptz;not null"`

	Summary datatypes.JSON `gorm:"type:jsonb;not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (CycleRun) TableName() string {
	return "cycle_runs"
}
