package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Action types recorded in the activity log.
const (
	ActionPost     = "post"
	ActionComment  = "comment"
	ActionLike     = "like"
	ActionTrade    = "trade"
	ActionFollow   = "follow"
	ActionReferral = "referral"
	ActionGeneral  = "general"
)

// Activity is one user action. Rate limits and fair averages are derived
// from count/sum queries over this table; nothing else stores window state.
type Activity struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	WalletAddress string `gorm:"type:varchar(64);not null;index:idx_activities_wallet_action_time,priority:1"`
	ActionType    string `gorm:"type:varchar(20);not null;index:idx_activities_wallet_action_time,priority:2"`

	// Amount is the action's monetary size where it has one (trade volume,
	// granted reward). Zero for posts/likes.
	Amount decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`

	Metadata datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index:idx_activities_wallet_action_time,priority:3;index"`
}

func (Activity) TableName() string {
	return "activities"
}
