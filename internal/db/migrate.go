package db

import (
	"fairness/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.UserProfile{},
		&models.Position{},
		&models.Activity{},
		&models.AlphaMetric{},
		&models.RewardTransaction{},
	)
}
