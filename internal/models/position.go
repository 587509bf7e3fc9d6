package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is a trading position row, read-only to this subsystem.
// A position with a non-nil ROI is closed for scoring purposes even if
// ClosedAt was never written.
type Position struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	WalletAddress string `gorm:"type:varchar(64);not null;index"`
	Side          string `gorm:"type:varchar(10);not null"`

	// ROI is the realized return in percent, signed.
	ROI *float64         `gorm:"column:roi;type:numeric(20,10)"`
	PnL *decimal.Decimal `gorm:"column:pnl;type:numeric(30,10)"`

	ClosedAt  *time.Time `gorm:"type:timestamptz"`
	CreatedAt time.Time  `gorm:"type:timestamptz;autoCreateTime"`
}

func (Position) TableName() string {
	return "positions"
}

// Closed reports whether the position carries a realized ROI.
func (p Position) Closed() bool {
	return p.ROI != nil
}
