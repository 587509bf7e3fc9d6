package reward

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fairness/internal/config"
	"fairness/internal/models"
	"fairness/internal/repository"
)

// Aggregation periods for fair averages.
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// Badge rarities.
const (
	RarityCommon    = "common"
	RarityRare      = "rare"
	RarityEpic      = "epic"
	RarityLegendary = "legendary"
)

// Metric cap names for CapMetric.
const (
	CapVolume = "volume"
	CapCount  = "count"
	CapReward = "reward"
)

var badgeMultipliers = map[string]int64{
	RarityCommon:    1,
	RarityRare:      2,
	RarityEpic:      5,
	RarityLegendary: 10,
}

// Validation is the outcome of a per-action fairness check.
type Validation struct {
	Allowed         bool             `json:"allowed"`
	Reason          string           `json:"reason,omitempty"`
	NormalizedValue *decimal.Decimal `json:"normalized_value,omitempty"`
}

// Normalizer converts raw proposed rewards into fairness-adjusted amounts.
// All methods are pure given their store reads; callers persist the
// resulting transaction.
type Normalizer struct {
	Repo   repository.ActivityStore
	Logger *zap.Logger
	Config config.RewardConfig

	// Now is overridable for window tests; nil means time.Now.
	Now func() time.Time
}

func (n *Normalizer) now() time.Time {
	if n != nil && n.Now != nil {
		return n.Now().UTC()
	}
	return time.Now().UTC()
}

func periodDuration(period string) (time.Duration, error) {
	switch period {
	case PeriodDay:
		return 24 * time.Hour, nil
	case PeriodWeek:
		return 7 * 24 * time.Hour, nil
	case PeriodMonth:
		return 30 * 24 * time.Hour, nil
	default:
		return 0, errors.New("unknown period: " + period)
	}
}

// FairAverage is the platform-wide mean of a metric per active wallet over
// the period. Dividing by active wallets (not total) keeps small cohorts
// from looking artificially rich. Store errors fail open to zero.
func (n *Normalizer) FairAverage(ctx context.Context, metric string, period string) float64 {
	if n == nil || n.Repo == nil {
		return 0
	}
	window, err := periodDuration(period)
	if err != nil {
		if n.Logger != nil {
			n.Logger.Warn("reward: bad fair-average period", zap.String("period", period))
		}
		return 0
	}
	since := n.now().Add(-window)
	agg, err := n.Repo.AggregateActivitySince(ctx, metric, since)
	if err != nil {
		return n.averageFailOpen(metric, err)
	}
	active, err := n.Repo.CountActiveWalletsSince(ctx, since)
	if err != nil {
		return n.averageFailOpen(metric, err)
	}
	if active == 0 {
		return 0
	}
	total := float64(agg.Count)
	if metric == repository.MetricVolume || metric == repository.MetricRewards {
		total = agg.Sum.InexactFloat64()
	}
	return total / float64(active)
}

func (n *Normalizer) averageFailOpen(metric string, err error) float64 {
	if n.Logger != nil {
		n.Logger.Warn("reward: fair average failed open",
			zap.String("metric", metric),
			zap.Error(err),
		)
	}
	return 0
}

func (n *Normalizer) baseAndMax(metric string) (base float64, max float64, err error) {
	switch metric {
	case models.RewardReferral:
		return n.Config.ReferralBase, n.Config.ReferralMax, nil
	case models.RewardBadge:
		return n.Config.BadgeBase, n.Config.BadgeMax, nil
	case models.RewardTask:
		return n.Config.TaskBase, n.Config.TaskMax, nil
	default:
		return 0, 0, errors.New("unknown reward metric: " + metric)
	}
}

// NormalizeReward dampens an inflated proposal back toward the metric's
// base reward. The ratio is floored at 1 before the log, so the scale
// factor is always >= 1 and the result never exceeds the base; the
// configured maximum is a second ceiling on top.
func (n *Normalizer) NormalizeReward(amount decimal.Decimal, metric string) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, errors.New("reward amount must be non-negative")
	}
	base, max, err := n.baseAndMax(metric)
	if err != nil {
		return decimal.Zero, err
	}
	if base <= 0 {
		return decimal.Zero, nil
	}
	ratio := math.Max(amount.InexactFloat64()/base, 1)
	scale := math.Log10(ratio+1) / math.Log10(2)
	normalized := base / scale
	if normalized > max {
		normalized = max
	}
	return decimal.NewFromFloat(normalized), nil
}

// FairReferralReward scales the referral base down by up to the configured
// dampening share as platform-wide posting activity grows, floored at the
// referral floor.
func (n *Normalizer) FairReferralReward(ctx context.Context) decimal.Decimal {
	base := n.Config.ReferralBase
	avgPosts := n.FairAverage(ctx, repository.MetricPosts, PeriodWeek)
	activityFactor := math.Min(avgPosts/10, 1)
	reward := base * (1 - activityFactor*n.Config.ActivityDampening)
	if reward < n.Config.ReferralFloor {
		reward = n.Config.ReferralFloor
	}
	return decimal.NewFromFloat(reward)
}

func (n *Normalizer) dailyActionLimit(action string) (int64, error) {
	switch action {
	case models.ActionPost:
		return int64(n.Config.DailyPostLimit), nil
	case models.ActionTrade:
		return int64(n.Config.DailyTradeLimit), nil
	case models.ActionReferral:
		return int64(n.Config.DailyReferralLimit), nil
	default:
		return 0, errors.New("unknown action: " + action)
	}
}

// ValidateUserAction enforces daily fair limits and value sanity for one
// action. Referral values are replaced wholesale by the fair referral
// reward; trade values are rejected as dust or outliers against the weekly
// average volume.
func (n *Normalizer) ValidateUserAction(ctx context.Context, wallet string, action string, value *decimal.Decimal) Validation {
	limit, err := n.dailyActionLimit(action)
	if err != nil {
		return Validation{Allowed: false, Reason: err.Error()}
	}
	if value != nil && value.IsNegative() {
		return Validation{Allowed: false, Reason: "value must be non-negative"}
	}

	count, err := n.Repo.CountActivitiesSince(ctx, wallet, action, n.now().Add(-24*time.Hour))
	if err != nil {
		if n.Logger != nil {
			n.Logger.Warn("reward: action count failed open",
				zap.String("wallet", wallet),
				zap.String("action", action),
				zap.Error(err),
			)
		}
		count = 0
	}
	if count >= limit {
		return Validation{
			Allowed: false,
			Reason:  fmt.Sprintf("Daily fair limit reached (%d %ss/day)", limit, action),
		}
	}

	out := Validation{Allowed: true}
	if value == nil {
		return out
	}

	switch action {
	case models.ActionReferral:
		fair := n.FairReferralReward(ctx)
		out.NormalizedValue = &fair
	case models.ActionTrade:
		weeklyAvg := n.FairAverage(ctx, repository.MetricVolume, PeriodWeek)
		if weeklyAvg > 0 {
			v := value.InexactFloat64()
			if v < weeklyAvg*0.01 {
				return Validation{Allowed: false, Reason: "trade value below fair minimum"}
			}
			if v > weeklyAvg*10 {
				return Validation{Allowed: false, Reason: "trade value exceeds fair maximum"}
			}
		}
		out.NormalizedValue = value
	default:
		out.NormalizedValue = value
	}
	return out
}

// Distribution is an equal split of a pot, truncated to cents, with the
// rounding dust returned as the remainder.
type Distribution struct {
	PerRecipient decimal.Decimal `json:"per_recipient"`
	Remainder    decimal.Decimal `json:"remainder"`
}

// FairRewardDistribution splits total equally among recipients. The guard
// on recipients <= 0 is an invariant, not incidental: a zero cohort gets a
// zero split, never a division error.
func FairRewardDistribution(total decimal.Decimal, recipients int) Distribution {
	if recipients <= 0 || total.IsNegative() {
		return Distribution{PerRecipient: decimal.Zero, Remainder: decimal.Zero}
	}
	n := decimal.NewFromInt(int64(recipients))
	per := total.Div(n).RoundFloor(2)
	return Distribution{
		PerRecipient: per,
		Remainder:    total.Sub(per.Mul(n)),
	}
}

// BadgeReward prices a badge payout by rarity.
func (n *Normalizer) BadgeReward(rarity string) (decimal.Decimal, error) {
	mult, ok := badgeMultipliers[rarity]
	if !ok {
		return decimal.Zero, errors.New("unknown badge rarity: " + rarity)
	}
	return decimal.NewFromFloat(n.Config.BadgeBase).Mul(decimal.NewFromInt(mult)), nil
}

// CapMetric applies the per-day hard ceiling for a metric. Last line of
// defense regardless of what upstream computed.
func (n *Normalizer) CapMetric(value decimal.Decimal, metric string) decimal.Decimal {
	var limit float64
	switch metric {
	case CapVolume:
		limit = n.Config.DailyVolumeCap
	case CapCount:
		limit = n.Config.DailyCountCap
	case CapReward:
		limit = n.Config.DailyRewardCap
	default:
		return value
	}
	ceiling := decimal.NewFromFloat(limit)
	if value.GreaterThan(ceiling) {
		return ceiling
	}
	return value
}
