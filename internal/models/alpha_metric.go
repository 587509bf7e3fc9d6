package models

import (
	"time"
)

// AlphaMetric is the persisted reputation row for one wallet. It is fully
// recomputed on every refresh; concurrent recomputes race to upsert and the
// last write wins.
type AlphaMetric struct {
	WalletAddress string `gorm:"type:varchar(64);primaryKey"`

	TotalPositions  int `gorm:"not null"`
	ClosedPositions int `gorm:"not null"`
	Wins            int `gorm:"not null"`
	Losses          int `gorm:"not null"`

	// ROI aggregates over normalized (clamped) ROIs; nil when the wallet has
	// no closed positions.
	AvgROI   *float64 `gorm:"column:avg_roi;type:numeric(20,10)"`
	BestROI  *float64 `gorm:"column:best_roi;type:numeric(20,10)"`
	WorstROI *float64 `gorm:"column:worst_roi;type:numeric(20,10)"`

	AlphaScore float64 `gorm:"type:numeric(6,2);not null;index:idx_alpha_metrics_score,sort:desc"`

	UpdatedAt time.Time `gorm:"type:timestamptz;not null;index"`
}

func (AlphaMetric) TableName() string {
	return "alpha_metrics"
}
