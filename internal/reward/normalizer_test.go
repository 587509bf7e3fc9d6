package reward

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fairness/internal/config"
	"fairness/internal/models"
	"fairness/internal/repository"
)

const wallet = "0xabcdefabcdefabcdefabcdefabcdefabcdefabcd"

// fakeActivityStore implements repository.ActivityStore with canned
// aggregates.
type fakeActivityStore struct {
	counts    map[string]int64 // wallet/action
	countErr  error
	aggregate map[string]repository.ActivityAggregate
	aggErr    error
	active    int64
	activeErr error
}

func newFakeActivityStore() *fakeActivityStore {
	return &fakeActivityStore{
		counts:    map[string]int64{},
		aggregate: map[string]repository.ActivityAggregate{},
	}
}

func (f *fakeActivityStore) InsertActivity(ctx context.Context, item *models.Activity) error {
	return nil
}

func (f *fakeActivityStore) CountActivitiesSince(ctx context.Context, wallet string, actionType string, since time.Time) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.counts[wallet+"/"+actionType], nil
}

func (f *fakeActivityStore) ListRecentActivities(ctx context.Context, wallet string, actionType string, limit int) ([]models.Activity, error) {
	return nil, nil
}

func (f *fakeActivityStore) AggregateActivitySince(ctx context.Context, metric string, since time.Time) (repository.ActivityAggregate, error) {
	if f.aggErr != nil {
		return repository.ActivityAggregate{}, f.aggErr
	}
	return f.aggregate[metric], nil
}

func (f *fakeActivityStore) CountActiveWalletsSince(ctx context.Context, since time.Time) (int64, error) {
	if f.activeErr != nil {
		return 0, f.activeErr
	}
	return f.active, nil
}

func (f *fakeActivityStore) DeleteActivitiesBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func defaultRewardConfig(t *testing.T) config.RewardConfig {
	t.Helper()
	cfg, err := config.Load("", true)
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	return cfg.Reward
}

func newNormalizer(t *testing.T, store *fakeActivityStore) *Normalizer {
	t.Helper()
	return &Normalizer{Repo: store, Config: defaultRewardConfig(t)}
}

func TestNormalizeReward_BadgeProposal(t *testing.T) {
	// 100 proposed against base 5: ratio=20, scale=log10(21)/log10(2),
	// normalized = 5/4.392... ≈ 1.138.
	n := newNormalizer(t, newFakeActivityStore())

	got, err := n.NormalizeReward(decimal.NewFromInt(100), models.RewardBadge)
	if err != nil {
		t.Fatal(err)
	}
	want := 5 / (math.Log10(21) / math.Log10(2))
	if diff := math.Abs(got.InexactFloat64() - want); diff > 1e-9 {
		t.Fatalf("normalized=%v want=%v", got, want)
	}
}

func TestNormalizeReward_NonIncreasingAndBounded(t *testing.T) {
	n := newNormalizer(t, newFakeActivityStore())

	prev := math.Inf(1)
	for _, amount := range []int64{0, 5, 10, 100, 1000, 1000000} {
		got, err := n.NormalizeReward(decimal.NewFromInt(amount), models.RewardTask)
		if err != nil {
			t.Fatal(err)
		}
		v := got.InexactFloat64()
		if v > prev {
			t.Fatalf("amount=%d normalized=%v increased from %v", amount, v, prev)
		}
		if v > n.Config.TaskMax || v < 0 {
			t.Fatalf("amount=%d normalized=%v out of bounds", amount, v)
		}
		prev = v
	}

	// At or below the base the ratio floors at 1 and the payout is the
	// base itself.
	got, err := n.NormalizeReward(decimal.NewFromInt(3), models.RewardTask)
	if err != nil {
		t.Fatal(err)
	}
	if got.InexactFloat64() != n.Config.TaskBase {
		t.Fatalf("below-base proposal: got %v want base %v", got, n.Config.TaskBase)
	}
}

func TestNormalizeReward_Rejections(t *testing.T) {
	n := newNormalizer(t, newFakeActivityStore())

	if _, err := n.NormalizeReward(decimal.NewFromInt(-1), models.RewardTask); err == nil {
		t.Fatal("negative amount must be rejected")
	}
	if _, err := n.NormalizeReward(decimal.NewFromInt(10), "jackpot"); err == nil {
		t.Fatal("unknown metric must be rejected")
	}
}

func TestFairAverage(t *testing.T) {
	store := newFakeActivityStore()
	store.aggregate[repository.MetricPosts] = repository.ActivityAggregate{Count: 50}
	store.aggregate[repository.MetricVolume] = repository.ActivityAggregate{Sum: decimal.NewFromInt(1000)}
	store.active = 10
	n := newNormalizer(t, store)
	ctx := context.Background()

	if got := n.FairAverage(ctx, repository.MetricPosts, PeriodWeek); got != 5 {
		t.Fatalf("posts average=%v want=5", got)
	}
	// Volume is a sum metric, averaged over the same active cohort.
	if got := n.FairAverage(ctx, repository.MetricVolume, PeriodWeek); got != 100 {
		t.Fatalf("volume average=%v want=100", got)
	}
	if got := n.FairAverage(ctx, repository.MetricPosts, "fortnight"); got != 0 {
		t.Fatalf("unknown period average=%v want=0", got)
	}

	store.active = 0
	if got := n.FairAverage(ctx, repository.MetricPosts, PeriodWeek); got != 0 {
		t.Fatalf("empty cohort average=%v want=0", got)
	}

	store.active = 10
	store.aggErr = errors.New("db down")
	if got := n.FairAverage(ctx, repository.MetricPosts, PeriodWeek); got != 0 {
		t.Fatalf("store failure must fail open to 0, got %v", got)
	}
}

func TestFairReferralReward_DampensWithActivity(t *testing.T) {
	store := newFakeActivityStore()
	n := newNormalizer(t, store)
	ctx := context.Background()

	// Quiet platform: no dampening, full base.
	if got := n.FairReferralReward(ctx); got.InexactFloat64() != 10 {
		t.Fatalf("quiet platform reward=%v want=10", got)
	}

	// 5 posts per wallet per week: half the dampening applies.
	store.aggregate[repository.MetricPosts] = repository.ActivityAggregate{Count: 50}
	store.active = 10
	if got := n.FairReferralReward(ctx); got.InexactFloat64() != 8.5 {
		t.Fatalf("half-dampened reward=%v want=8.5", got)
	}

	// Saturated activity: full dampening, still above the floor.
	store.aggregate[repository.MetricPosts] = repository.ActivityAggregate{Count: 1000}
	if got := n.FairReferralReward(ctx); got.InexactFloat64() != 7 {
		t.Fatalf("fully dampened reward=%v want=7", got)
	}
}

func TestFairReferralReward_Floor(t *testing.T) {
	store := newFakeActivityStore()
	store.aggregate[repository.MetricPosts] = repository.ActivityAggregate{Count: 1000}
	store.active = 10
	n := &Normalizer{
		Repo: store,
		Config: config.RewardConfig{
			ReferralBase:      6,
			ReferralFloor:     5,
			ActivityDampening: 0.3,
		},
	}

	// 6 * 0.7 = 4.2 would undercut the floor.
	if got := n.FairReferralReward(context.Background()); got.InexactFloat64() != 5 {
		t.Fatalf("reward=%v want floor 5", got)
	}
}

func TestValidateUserAction_DailyLimit(t *testing.T) {
	store := newFakeActivityStore()
	store.counts[wallet+"/"+models.ActionPost] = 10
	n := newNormalizer(t, store)

	out := n.ValidateUserAction(context.Background(), wallet, models.ActionPost, nil)
	if out.Allowed {
		t.Fatalf("expected rejection: %+v", out)
	}
	if out.Reason != "Daily fair limit reached (10 posts/day)" {
		t.Fatalf("reason=%q", out.Reason)
	}
}

func TestValidateUserAction_UnknownActionRejected(t *testing.T) {
	n := newNormalizer(t, newFakeActivityStore())
	if out := n.ValidateUserAction(context.Background(), wallet, "vote", nil); out.Allowed {
		t.Fatalf("unknown action must be rejected: %+v", out)
	}
}

func TestValidateUserAction_ReferralValueReplaced(t *testing.T) {
	store := newFakeActivityStore()
	store.aggregate[repository.MetricPosts] = repository.ActivityAggregate{Count: 1000}
	store.active = 10
	n := newNormalizer(t, store)

	proposed := decimal.NewFromInt(500)
	out := n.ValidateUserAction(context.Background(), wallet, models.ActionReferral, &proposed)
	if !out.Allowed || out.NormalizedValue == nil {
		t.Fatalf("expected allowed with replaced value: %+v", out)
	}
	// The caller's proposal is ignored entirely.
	if out.NormalizedValue.InexactFloat64() != 7 {
		t.Fatalf("normalized=%v want fair referral reward 7", out.NormalizedValue)
	}
}

func TestValidateUserAction_TradeDustAndOutlier(t *testing.T) {
	store := newFakeActivityStore()
	store.aggregate[repository.MetricVolume] = repository.ActivityAggregate{Sum: decimal.NewFromInt(10000)}
	store.active = 10 // weekly average volume 1000
	n := newNormalizer(t, store)
	ctx := context.Background()

	dust := decimal.NewFromInt(5)
	if out := n.ValidateUserAction(ctx, wallet, models.ActionTrade, &dust); out.Allowed {
		t.Fatalf("dust trade must be rejected: %+v", out)
	}

	outlier := decimal.NewFromInt(20000)
	if out := n.ValidateUserAction(ctx, wallet, models.ActionTrade, &outlier); out.Allowed {
		t.Fatalf("outlier trade must be rejected: %+v", out)
	}

	ok := decimal.NewFromInt(500)
	out := n.ValidateUserAction(ctx, wallet, models.ActionTrade, &ok)
	if !out.Allowed || out.NormalizedValue == nil || !out.NormalizedValue.Equal(ok) {
		t.Fatalf("in-band trade should pass unchanged: %+v", out)
	}

	// With no volume history there is no band to enforce.
	store.aggregate[repository.MetricVolume] = repository.ActivityAggregate{}
	if out := n.ValidateUserAction(ctx, wallet, models.ActionTrade, &dust); !out.Allowed {
		t.Fatalf("no-history trade should pass: %+v", out)
	}
}

func TestValidateUserAction_CountErrorFailsOpen(t *testing.T) {
	store := newFakeActivityStore()
	store.countErr = errors.New("db down")
	n := newNormalizer(t, store)

	if out := n.ValidateUserAction(context.Background(), wallet, models.ActionPost, nil); !out.Allowed {
		t.Fatalf("count failure must fail open: %+v", out)
	}
}

func TestFairRewardDistribution(t *testing.T) {
	cases := []struct {
		total      string
		recipients int
		per        string
		remainder  string
	}{
		{"100", 3, "33.33", "0.01"},
		{"100", 4, "25", "0"},
		{"0.05", 10, "0", "0.05"},
		{"10", 1, "10", "0"},
	}
	for _, tc := range cases {
		total := decimal.RequireFromString(tc.total)
		got := FairRewardDistribution(total, tc.recipients)
		if !got.PerRecipient.Equal(decimal.RequireFromString(tc.per)) {
			t.Errorf("total=%s n=%d per=%s want=%s", tc.total, tc.recipients, got.PerRecipient, tc.per)
		}
		if !got.Remainder.Equal(decimal.RequireFromString(tc.remainder)) {
			t.Errorf("total=%s n=%d remainder=%s want=%s", tc.total, tc.recipients, got.Remainder, tc.remainder)
		}
		// Identity: per*n + remainder reconstructs the pot exactly.
		back := got.PerRecipient.Mul(decimal.NewFromInt(int64(tc.recipients))).Add(got.Remainder)
		if !back.Equal(total) {
			t.Errorf("total=%s n=%d reconstructed=%s", tc.total, tc.recipients, back)
		}
	}

	zero := FairRewardDistribution(decimal.NewFromInt(100), 0)
	if !zero.PerRecipient.IsZero() || !zero.Remainder.IsZero() {
		t.Fatalf("zero recipients must yield a zero split: %+v", zero)
	}
	neg := FairRewardDistribution(decimal.NewFromInt(-10), 3)
	if !neg.PerRecipient.IsZero() || !neg.Remainder.IsZero() {
		t.Fatalf("negative pot must yield a zero split: %+v", neg)
	}
}

func TestBadgeReward(t *testing.T) {
	n := newNormalizer(t, newFakeActivityStore())
	cases := []struct {
		rarity string
		want   int64
	}{
		{RarityCommon, 5},
		{RarityRare, 10},
		{RarityEpic, 25},
		{RarityLegendary, 50},
	}
	for _, tc := range cases {
		got, err := n.BadgeReward(tc.rarity)
		if err != nil {
			t.Fatal(err)
		}
		if !got.Equal(decimal.NewFromInt(tc.want)) {
			t.Errorf("BadgeReward(%s)=%s want=%d", tc.rarity, got, tc.want)
		}
	}
	if _, err := n.BadgeReward("mythic"); err == nil {
		t.Fatal("unknown rarity must be rejected")
	}
}

func TestCapMetric(t *testing.T) {
	n := newNormalizer(t, newFakeActivityStore())
	cases := []struct {
		value  int64
		metric string
		want   int64
	}{
		{2_000_000, CapVolume, 1_000_000},
		{500, CapVolume, 500},
		{5_000, CapCount, 1_000},
		{50_000, CapReward, 10_000},
		{50_000, "unknown", 50_000},
	}
	for _, tc := range cases {
		got := n.CapMetric(decimal.NewFromInt(tc.value), tc.metric)
		if !got.Equal(decimal.NewFromInt(tc.want)) {
			t.Errorf("CapMetric(%d,%s)=%s want=%d", tc.value, tc.metric, got, tc.want)
		}
	}
}
