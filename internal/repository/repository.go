package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fairness/internal/models"
)

// WalletRef is a lightweight wallet row returned by clustering lookups.
type WalletRef struct {
	WalletAddress string
	CreatedAt     time.Time
}

// ActivityAggregate is the result of an aggregate query over the activity
// log. Count carries count-style metrics, Sum carries volume-style metrics;
// the unused field is zero.
type ActivityAggregate struct {
	Count int64
	Sum   decimal.Decimal
}

// Aggregate metric names accepted by AggregateActivitySince.
const (
	MetricPosts     = "posts"
	MetricTrades    = "trades"
	MetricVolume    = "volume"
	MetricFollowers = "followers"
	MetricRewards   = "rewards"
)

type PositionStore interface {
	ListPositionsByWallet(ctx context.Context, wallet string) ([]models.Position, error)
}

type ProfileStore interface {
	GetProfile(ctx context.Context, wallet string) (*models.UserProfile, error)
	ListWalletsBySharedIP(ctx context.Context, ip string, limit int) ([]WalletRef, error)
	ListWalletsByAddressPrefix(ctx context.Context, prefix string, limit int) ([]WalletRef, error)
}

type ActivityStore interface {
	InsertActivity(ctx context.Context, item *models.Activity) error
	CountActivitiesSince(ctx context.Context, wallet string, actionType string, since time.Time) (int64, error)
	ListRecentActivities(ctx context.Context, wallet string, actionType string, limit int) ([]models.Activity, error)
	AggregateActivitySince(ctx context.Context, metric string, since time.Time) (ActivityAggregate, error)
	CountActiveWalletsSince(ctx context.Context, since time.Time) (int64, error)
	DeleteActivitiesBefore(ctx context.Context, before time.Time) (int64, error)
}

type MetricsStore interface {
	UpsertAlphaMetric(ctx context.Context, item *models.AlphaMetric) error
	GetAlphaMetric(ctx context.Context, wallet string) (*models.AlphaMetric, error)
	ListTopAlphaMetrics(ctx context.Context, limit int) ([]models.AlphaMetric, error)
	ListStaleAlphaMetrics(ctx context.Context, before time.Time, limit int) ([]models.AlphaMetric, error)
}

type RewardStore interface {
	InsertRewardTransaction(ctx context.Context, item *models.RewardTransaction) error
	ListRewardTransactionsByWallet(ctx context.Context, wallet string, limit int) ([]models.RewardTransaction, error)
	SumRewardsSince(ctx context.Context, wallet string, since time.Time) (decimal.Decimal, error)
}

// ReputationStore is what the reputation scorer needs.
type ReputationStore interface {
	PositionStore
	MetricsStore
}

// AbuseStore is what the abuse detector needs.
type AbuseStore interface {
	ProfileStore
	ActivityStore
}

// Repository is the unified store surface the scoring components depend on.
type Repository interface {
	PositionStore
	ProfileStore
	ActivityStore
	MetricsStore
	RewardStore
}
