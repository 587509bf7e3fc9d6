package abuse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fairness/internal/config"
	"fairness/internal/models"
	"fairness/internal/repository"
)

const (
	goodWallet  = "0xabcdefabcdefabcdefabcdefabcdefabcdefabcd"
	otherWallet = "0x9999999999999999999999999999999999999999"
)

// fakeAbuseStore implements repository.AbuseStore in memory.
type fakeAbuseStore struct {
	profiles map[string]*models.UserProfile
	byIP     map[string][]repository.WalletRef
	byPrefix map[string][]repository.WalletRef

	activities map[string][]models.Activity // newest first, per wallet+action

	profileErr  error
	countErr    error
	listErr     error
	countCalls  int
	activityErr error
}

func newFakeAbuseStore() *fakeAbuseStore {
	return &fakeAbuseStore{
		profiles:   map[string]*models.UserProfile{},
		byIP:       map[string][]repository.WalletRef{},
		byPrefix:   map[string][]repository.WalletRef{},
		activities: map[string][]models.Activity{},
	}
}

func (f *fakeAbuseStore) GetProfile(ctx context.Context, wallet string) (*models.UserProfile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profiles[wallet], nil
}

func (f *fakeAbuseStore) ListWalletsBySharedIP(ctx context.Context, ip string, limit int) ([]repository.WalletRef, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.byIP[ip], nil
}

func (f *fakeAbuseStore) ListWalletsByAddressPrefix(ctx context.Context, prefix string, limit int) ([]repository.WalletRef, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.byPrefix[prefix], nil
}

func (f *fakeAbuseStore) InsertActivity(ctx context.Context, item *models.Activity) error {
	key := item.WalletAddress + "/" + item.ActionType
	f.activities[key] = append([]models.Activity{*item}, f.activities[key]...)
	return nil
}

func (f *fakeAbuseStore) CountActivitiesSince(ctx context.Context, wallet string, actionType string, since time.Time) (int64, error) {
	f.countCalls++
	if f.countErr != nil {
		return 0, f.countErr
	}
	var n int64
	for _, a := range f.activities[wallet+"/"+actionType] {
		if a.CreatedAt.After(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeAbuseStore) ListRecentActivities(ctx context.Context, wallet string, actionType string, limit int) ([]models.Activity, error) {
	if f.activityErr != nil {
		return nil, f.activityErr
	}
	items := f.activities[wallet+"/"+actionType]
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (f *fakeAbuseStore) AggregateActivitySince(ctx context.Context, metric string, since time.Time) (repository.ActivityAggregate, error) {
	return repository.ActivityAggregate{}, nil
}

func (f *fakeAbuseStore) CountActiveWalletsSince(ctx context.Context, since time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeAbuseStore) DeleteActivitiesBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeAbuseStore) addPosts(wallet string, times ...time.Time) {
	key := wallet + "/" + models.ActionPost
	for _, ts := range times {
		f.activities[key] = append(f.activities[key], models.Activity{
			WalletAddress: wallet,
			ActionType:    models.ActionPost,
			Amount:        decimal.Zero,
			CreatedAt:     ts,
		})
	}
}

func defaultAbuseConfig(t *testing.T) config.AbuseConfig {
	t.Helper()
	cfg, err := config.Load("", true)
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	return cfg.Abuse
}

func newDetector(t *testing.T, store *fakeAbuseStore, now time.Time) *Detector {
	t.Helper()
	return &Detector{
		Repo:   store,
		Config: defaultAbuseConfig(t),
		Now:    func() time.Time { return now },
	}
}

func TestAssessRisk_CleanWallet(t *testing.T) {
	now := time.Now().UTC()
	store := newFakeAbuseStore()
	store.profiles[goodWallet] = &models.UserProfile{
		WalletAddress: goodWallet,
		IPAddress:     "10.0.0.1",
		CreatedAt:     now.Add(-30 * 24 * time.Hour),
	}
	store.byIP["10.0.0.1"] = []repository.WalletRef{{WalletAddress: goodWallet}}

	out := newDetector(t, store, now).AssessRisk(context.Background(), goodWallet, "")
	if out.RiskScore != 0 || out.Decision != DecisionAllow || out.Suspicious {
		t.Fatalf("clean wallet: %+v", out)
	}
	if len(out.Reasons) != 0 {
		t.Fatalf("expected no reasons, got %v", out.Reasons)
	}
}

func TestAssessRisk_SharedIPAndCadence(t *testing.T) {
	// Shared IP (+30) and rapid cadence (+25) sum to 55, which lands in
	// the warn band but below the block threshold.
	now := time.Now().UTC()
	store := newFakeAbuseStore()
	store.profiles[goodWallet] = &models.UserProfile{
		WalletAddress: goodWallet,
		IPAddress:     "10.0.0.1",
		CreatedAt:     now.Add(-30 * 24 * time.Hour),
	}
	store.byIP["10.0.0.1"] = []repository.WalletRef{
		{WalletAddress: goodWallet},
		{WalletAddress: otherWallet},
		{WalletAddress: "0x8888888888888888888888888888888888888888"},
	}
	store.addPosts(goodWallet,
		now,
		now.Add(-30*time.Second),
		now.Add(-60*time.Second),
		now.Add(-90*time.Second),
		now.Add(-120*time.Second),
	)

	out := newDetector(t, store, now).AssessRisk(context.Background(), goodWallet, "")
	if out.RiskScore != 55 {
		t.Fatalf("riskScore=%d want=55 (reasons=%v)", out.RiskScore, out.Reasons)
	}
	if out.Decision != DecisionWarn {
		t.Fatalf("decision=%s want=%s", out.Decision, DecisionWarn)
	}
	if out.Suspicious {
		t.Fatal("55 is below the suspicious threshold")
	}
	if len(out.Reasons) != 2 {
		t.Fatalf("reasons=%v want two entries", out.Reasons)
	}
}

func TestAssessRisk_MalformedAddress(t *testing.T) {
	now := time.Now().UTC()
	store := newFakeAbuseStore()

	out := newDetector(t, store, now).AssessRisk(context.Background(), "not-a-wallet", "")
	if out.RiskScore != 15 {
		t.Fatalf("riskScore=%d want=15", out.RiskScore)
	}
	if out.Decision != DecisionAllow {
		t.Fatalf("decision=%s want=%s", out.Decision, DecisionAllow)
	}

	// The zero-prefix placeholder is shape-valid hex but still flagged.
	out = newDetector(t, store, now).AssessRisk(context.Background(),
		"0x0000000000000000000000000000000000000001", "")
	if out.RiskScore != 15 {
		t.Fatalf("placeholder riskScore=%d want=15", out.RiskScore)
	}
}

func TestAssessRisk_BurstFromFreshAccount(t *testing.T) {
	now := time.Now().UTC()
	created := now.Add(-20 * time.Minute)
	store := newFakeAbuseStore()
	store.profiles[goodWallet] = &models.UserProfile{
		WalletAddress: goodWallet,
		CreatedAt:     created,
	}
	store.addPosts(goodWallet,
		now.Add(-1*time.Minute),
		now.Add(-4*time.Minute),
		now.Add(-8*time.Minute),
		now.Add(-15*time.Minute),
	)

	out := newDetector(t, store, now).AssessRisk(context.Background(), goodWallet, "")
	// 4 posts at a 20 minute account age: burst (+25). The same posts are
	// too few for the cadence check, which needs five.
	if out.RiskScore != 25 {
		t.Fatalf("riskScore=%d want=25 (reasons=%v)", out.RiskScore, out.Reasons)
	}
	if out.Decision != DecisionAllow {
		t.Fatalf("decision=%s want=%s", out.Decision, DecisionAllow)
	}
}

func TestAssessRisk_PrefixCluster(t *testing.T) {
	now := time.Now().UTC()
	store := newFakeAbuseStore()
	store.byPrefix[goodWallet[:10]] = []repository.WalletRef{
		{WalletAddress: goodWallet},
		{WalletAddress: goodWallet[:10] + "11111111111111111111111111111111"},
		{WalletAddress: goodWallet[:10] + "22222222222222222222222222222222"},
	}

	out := newDetector(t, store, now).AssessRisk(context.Background(), goodWallet, "")
	if out.RiskScore != 20 {
		t.Fatalf("riskScore=%d want=20 (reasons=%v)", out.RiskScore, out.Reasons)
	}
}

func TestAssessRisk_BlockAndSuspicious(t *testing.T) {
	// Shared IP (+30), prefix cluster (+20), cadence (+25) = 75: block.
	now := time.Now().UTC()
	store := newFakeAbuseStore()
	store.profiles[goodWallet] = &models.UserProfile{
		WalletAddress: goodWallet,
		IPAddress:     "10.0.0.1",
		CreatedAt:     now.Add(-30 * 24 * time.Hour),
	}
	store.byIP["10.0.0.1"] = []repository.WalletRef{
		{WalletAddress: goodWallet},
		{WalletAddress: otherWallet},
		{WalletAddress: "0x8888888888888888888888888888888888888888"},
	}
	store.byPrefix[goodWallet[:10]] = []repository.WalletRef{
		{WalletAddress: goodWallet},
		{WalletAddress: goodWallet[:10] + "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"},
		{WalletAddress: goodWallet[:10] + "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"},
	}
	store.addPosts(goodWallet, now, now, now, now, now)

	out := newDetector(t, store, now).AssessRisk(context.Background(), goodWallet, "")
	if out.RiskScore != 75 {
		t.Fatalf("riskScore=%d want=75 (reasons=%v)", out.RiskScore, out.Reasons)
	}
	if out.Decision != DecisionBlock || !out.Suspicious {
		t.Fatalf("decision=%s suspicious=%v want block/true", out.Decision, out.Suspicious)
	}
}

func TestAssessRisk_StoreErrorFailsOpen(t *testing.T) {
	now := time.Now().UTC()
	store := newFakeAbuseStore()
	store.profileErr = errors.New("db down")

	out := newDetector(t, store, now).AssessRisk(context.Background(), goodWallet, "1.2.3.4")
	if out.RiskScore != 0 || out.Decision != DecisionAllow || out.Suspicious {
		t.Fatalf("expected zero assessment on store failure, got %+v", out)
	}
}

func TestValidWallet(t *testing.T) {
	cases := []struct {
		addr string
		want bool
	}{
		{goodWallet, true},
		{"0xABCDEFabcdefABCDEFabcdefABCDEFabcdefABCD", true},
		{"", false},
		{"0x123", false},
		{"abcdefabcdefabcdefabcdefabcdefabcdefabcdef", false},
		{"0xzzzdefabcdefabcdefabcdefabcdefabcdefabcd", false},
	}
	for _, tc := range cases {
		if got := ValidWallet(tc.addr); got != tc.want {
			t.Errorf("ValidWallet(%q)=%v want=%v", tc.addr, got, tc.want)
		}
	}
}
