package db

import (
	"github.com/deval2498/Spotmf/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.UserStrategy{},
		&models.MovingAverageStatus{},
		&models.PricePoint{},
		&models.Execution{},
		&models.FailedTransactionLog{},
		&models.CycleRun{},
	)
}
