package models

import (
	"time"
)

// UserProfile is account metadata keyed by wallet address. The scoring
// subsystem reads it for sybil checks; registration writes it.
type UserProfile struct {
	WalletAddress string `gorm:"type:varchar(64);primaryKey"`
	Username      string `gorm:"type:varchar(100)"`
	IPAddress     string `gorm:"type:varchar(45);index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}
