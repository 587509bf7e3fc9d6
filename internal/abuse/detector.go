package abuse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"fairness/internal/cache"
	"fairness/internal/config"
	"fairness/internal/models"
	"fairness/internal/repository"
)

// Decision is the gate outcome derived from the summed risk score.
type Decision string

const (
	DecisionAllow     Decision = "allow"
	DecisionRateLimit Decision = "rate_limit"
	DecisionWarn      Decision = "warn"
	DecisionBlock     Decision = "block"
)

// Assessment is a point-in-time risk read. Never persisted.
type Assessment struct {
	RiskScore  int      `json:"risk_score"`
	Reasons    []string `json:"reasons"`
	Decision   Decision `json:"decision"`
	Suspicious bool     `json:"suspicious"`
}

// Detector owns sybil-risk heuristics and per-wallet rate limits. It holds
// no durable state; everything is derived from the profile/activity stores
// on each call.
type Detector struct {
	Repo   repository.AbuseStore
	Logger *zap.Logger
	Cache  cache.Store
	Config config.AbuseConfig

	// Now is overridable for window tests; nil means time.Now.
	Now func() time.Time
}

func (d *Detector) now() time.Time {
	if d != nil && d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

// AssessRisk runs five independent additive checks. Any collaborator error
// fails open to a zero assessment: a storage hiccup must not lock the
// platform out.
func (d *Detector) AssessRisk(ctx context.Context, wallet string, ip string) Assessment {
	out := Assessment{Decision: DecisionAllow, Reasons: []string{}}
	if d == nil || d.Repo == nil {
		return out
	}
	wallet = strings.TrimSpace(wallet)

	profile, err := d.Repo.GetProfile(ctx, wallet)
	if err != nil {
		return d.failOpen("profile lookup", wallet, err)
	}

	if ip == "" && profile != nil {
		ip = profile.IPAddress
	}
	if ip != "" {
		refs, err := d.Repo.ListWalletsBySharedIP(ctx, ip, d.Config.SharedIPMinWallets+5)
		if err != nil {
			return d.failOpen("shared ip lookup", wallet, err)
		}
		if distinctWallets(refs) >= d.Config.SharedIPMinWallets {
			out.RiskScore += d.Config.SharedIPPenalty
			out.Reasons = append(out.Reasons,
				fmt.Sprintf("network origin shared by %d+ wallets", d.Config.SharedIPMinWallets))
		}
	}

	if profile != nil {
		age := d.now().Sub(profile.CreatedAt)
		if age < d.Config.BurstMaxAccountAge {
			posts, err := d.Repo.CountActivitiesSince(ctx, wallet, models.ActionPost, profile.CreatedAt)
			if err != nil {
				return d.failOpen("post count", wallet, err)
			}
			if posts > int64(d.Config.BurstMinPosts) {
				out.RiskScore += d.Config.BurstPenalty
				out.Reasons = append(out.Reasons,
					fmt.Sprintf("%d posts within the first hour of account life", posts))
			}
		}
	}

	if len(wallet) >= d.Config.PrefixLength {
		prefix := wallet[:d.Config.PrefixLength]
		refs, err := d.Repo.ListWalletsByAddressPrefix(ctx, prefix, d.Config.ClusterMinWallets+5)
		if err != nil {
			return d.failOpen("prefix lookup", wallet, err)
		}
		if distinctWallets(refs) >= d.Config.ClusterMinWallets {
			out.RiskScore += d.Config.ClusterPenalty
			out.Reasons = append(out.Reasons,
				fmt.Sprintf("address prefix shared by %d+ wallets", d.Config.ClusterMinWallets))
		}
	}

	if MalformedAddress(wallet) {
		out.RiskScore += d.Config.MalformedPenalty
		out.Reasons = append(out.Reasons, "malformed or placeholder wallet address")
	}

	rapid, err := d.rapidCadence(ctx, wallet)
	if err != nil {
		return d.failOpen("recent posts", wallet, err)
	}
	if rapid {
		out.RiskScore += d.Config.CadencePenalty
		out.Reasons = append(out.Reasons, "rapid posting cadence")
	}

	out.Decision = d.decide(out.RiskScore)
	out.Suspicious = out.RiskScore >= d.Config.BlockThreshold
	return out
}

// rapidCadence reports whether the 1st and 5th most recent posts landed
// inside the cadence window.
func (d *Detector) rapidCadence(ctx context.Context, wallet string) (bool, error) {
	posts, err := d.Repo.ListRecentActivities(ctx, wallet, models.ActionPost, 10)
	if err != nil {
		return false, err
	}
	if len(posts) < 5 {
		return false, nil
	}
	gap := posts[0].CreatedAt.Sub(posts[4].CreatedAt)
	if gap < 0 {
		gap = -gap
	}
	return gap < d.Config.CadenceWindow, nil
}

func (d *Detector) decide(score int) Decision {
	switch {
	case score >= d.Config.BlockThreshold:
		return DecisionBlock
	case score >= d.Config.WarnThreshold:
		return DecisionWarn
	case score >= d.Config.RateLimitThreshold:
		return DecisionRateLimit
	default:
		return DecisionAllow
	}
}

func (d *Detector) failOpen(stage string, wallet string, err error) Assessment {
	if d.Logger != nil {
		d.Logger.Warn("abuse: check failed open",
			zap.String("stage", stage),
			zap.String("wallet", wallet),
			zap.Error(err),
		)
	}
	return Assessment{Decision: DecisionAllow, Reasons: []string{}}
}

func distinctWallets(refs []repository.WalletRef) int {
	seen := map[string]struct{}{}
	for _, r := range refs {
		if r.WalletAddress != "" {
			seen[r.WalletAddress] = struct{}{}
		}
	}
	return len(seen)
}
