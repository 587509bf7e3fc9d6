package abuse

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fairness/internal/models"
)

// RateLimitResult is the outcome of one rate-limit check. Remaining and
// ResetAt are computed from raw activity counts each call; no window state
// is stored, so blocks expire on their own.
type RateLimitResult struct {
	Allowed   bool      `json:"allowed"`
	Remaining int64     `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
	Reason    string    `json:"reason,omitempty"`
}

func (d *Detector) limitsFor(actionType string) (hourly int64, daily int64) {
	if actionType == models.ActionPost {
		return int64(d.Config.PostHourlyLimit), int64(d.Config.PostDailyLimit)
	}
	return int64(d.Config.DefaultHourlyLimit), int64(d.Config.DefaultDailyLimit)
}

// CheckRateLimit enforces the hourly then daily ceiling for one wallet and
// action type. The hourly window is checked first: it is the cheaper query
// and the tighter limit. Collaborator errors fail open with a generous
// remaining count.
func (d *Detector) CheckRateLimit(ctx context.Context, wallet string, actionType string) RateLimitResult {
	now := d.now()
	if d == nil || d.Repo == nil {
		return RateLimitResult{Allowed: true, Remaining: 1, ResetAt: now.Add(time.Hour)}
	}
	hourlyLimit, dailyLimit := d.limitsFor(actionType)

	cacheKey := "ratelimit:" + wallet + ":" + actionType
	if cached, ok := d.cachedDenial(ctx, cacheKey, now); ok {
		return cached
	}

	hourCount, err := d.Repo.CountActivitiesSince(ctx, wallet, actionType, now.Add(-time.Hour))
	if err != nil {
		return d.rateLimitFailOpen(wallet, actionType, hourlyLimit, now, err)
	}
	if hourCount >= hourlyLimit {
		denied := RateLimitResult{
			Allowed: false,
			ResetAt: now.Add(time.Hour),
			Reason:  fmt.Sprintf("Hourly limit reached (%d %ss/hour)", hourlyLimit, actionType),
		}
		d.rememberDenial(ctx, cacheKey, denied, now)
		return denied
	}

	dayCount, err := d.Repo.CountActivitiesSince(ctx, wallet, actionType, now.Add(-24*time.Hour))
	if err != nil {
		return d.rateLimitFailOpen(wallet, actionType, hourlyLimit, now, err)
	}
	if dayCount >= dailyLimit {
		denied := RateLimitResult{
			Allowed: false,
			ResetAt: now.Add(24 * time.Hour),
			Reason:  fmt.Sprintf("Daily limit reached (%d %ss/day)", dailyLimit, actionType),
		}
		d.rememberDenial(ctx, cacheKey, denied, now)
		return denied
	}

	remaining := hourlyLimit - hourCount
	if dr := dailyLimit - dayCount; dr < remaining {
		remaining = dr
	}
	return RateLimitResult{
		Allowed:   true,
		Remaining: remaining,
		ResetAt:   now.Add(time.Hour),
	}
}

func (d *Detector) rateLimitFailOpen(wallet, actionType string, hourlyLimit int64, now time.Time, err error) RateLimitResult {
	if d.Logger != nil {
		d.Logger.Warn("abuse: rate limit check failed open",
			zap.String("wallet", wallet),
			zap.String("action", actionType),
			zap.Error(err),
		)
	}
	return RateLimitResult{Allowed: true, Remaining: hourlyLimit, ResetAt: now.Add(time.Hour)}
}

// Only denials are memoized, never allowances, and only until their own
// ResetAt. A stale cache can therefore never block a wallet longer than the
// window that produced the denial.
func (d *Detector) rememberDenial(ctx context.Context, key string, denied RateLimitResult, now time.Time) {
	if d.Cache == nil {
		return
	}
	ttl := denied.ResetAt.Sub(now)
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(denied)
	if err != nil {
		return
	}
	if err := d.Cache.Set(ctx, key, raw, ttl); err != nil && d.Logger != nil {
		d.Logger.Debug("abuse: denial cache write failed", zap.Error(err))
	}
}

func (d *Detector) cachedDenial(ctx context.Context, key string, now time.Time) (RateLimitResult, bool) {
	if d.Cache == nil {
		return RateLimitResult{}, false
	}
	raw, found, err := d.Cache.Get(ctx, key)
	if err != nil || !found {
		return RateLimitResult{}, false
	}
	var denied RateLimitResult
	if err := json.Unmarshal(raw, &denied); err != nil {
		return RateLimitResult{}, false
	}
	if denied.Allowed || !now.Before(denied.ResetAt) {
		return RateLimitResult{}, false
	}
	return denied, true
}
