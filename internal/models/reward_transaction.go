package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reward metrics.
const (
	RewardReferral = "referral"
	RewardBadge    = "badge"
	RewardTask     = "task"
)

// RewardTransaction records a granted payout: the amount the caller proposed
// and the fairness-adjusted amount actually credited.
type RewardTransaction struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	WalletAddress string `gorm:"type:varchar(64);not null;index"`
	Metric        string `gorm:"type:varchar(20);not null"`

	RawAmount        decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	NormalizedAmount decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	Reason string `gorm:"type:varchar(200)"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (RewardTransaction) TableName() string {
	return "reward_transactions"
}
