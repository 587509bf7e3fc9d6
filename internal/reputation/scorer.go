package reputation

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"fairness/internal/config"
	"fairness/internal/models"
	"fairness/internal/repository"
)

// Skill labels over the 0-100 alpha score.
const (
	LabelRookie       = "Rookie"
	LabelIntermediate = "Intermediate"
	LabelPro          = "Pro"
	LabelElite        = "Elite"
)

// roiClamp bounds a single position's influence on the aggregates.
const roiClamp = 1000.0

// Scorer converts a wallet's position history into a persisted AlphaMetric
// row. Rows are recomputed whole, never patched; concurrent recomputes race
// to upsert and the last write wins.
type Scorer struct {
	Repo   repository.ReputationStore
	Logger *zap.Logger
	Config config.ReputationConfig
}

func (s *Scorer) staleAfter() time.Duration {
	if s.Config.StaleAfter > 0 {
		return s.Config.StaleAfter
	}
	return time.Hour
}

// Recompute fetches the wallet's positions and rebuilds its metric row.
// Returns nil on a position-store failure: callers must treat nil as
// "score unavailable", never as zero.
func (s *Scorer) Recompute(ctx context.Context, wallet string) *models.AlphaMetric {
	if s == nil || s.Repo == nil || wallet == "" {
		return nil
	}
	positions, err := s.Repo.ListPositionsByWallet(ctx, wallet)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("reputation: position fetch failed",
				zap.String("wallet", wallet),
				zap.Error(err),
			)
		}
		return nil
	}
	metric := Compute(wallet, positions, time.Now().UTC())
	if err := s.Repo.UpsertAlphaMetric(ctx, metric); err != nil {
		// The computed score is still valid; persistence catches up on the
		// next recompute.
		if s.Logger != nil {
			s.Logger.Warn("reputation: metric upsert failed",
				zap.String("wallet", wallet),
				zap.Error(err),
			)
		}
	}
	return metric
}

// Get returns the persisted row if fresh, recomputes synchronously if the
// row is missing, and on a stale row returns it immediately while kicking
// off a fire-and-forget background recompute.
func (s *Scorer) Get(ctx context.Context, wallet string, forceRecompute bool) *models.AlphaMetric {
	if s == nil || s.Repo == nil || wallet == "" {
		return nil
	}
	if forceRecompute {
		return s.Recompute(ctx, wallet)
	}
	row, err := s.Repo.GetAlphaMetric(ctx, wallet)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("reputation: metric lookup failed",
				zap.String("wallet", wallet),
				zap.Error(err),
			)
		}
		return nil
	}
	if row == nil {
		return s.Recompute(ctx, wallet)
	}
	if time.Since(row.UpdatedAt) > s.staleAfter() {
		go func() {
			bg, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			s.Recompute(bg, wallet)
		}()
	}
	return row
}

// TopWallets lists persisted rows by score descending. No recompute side
// effects.
func (s *Scorer) TopWallets(ctx context.Context, limit int) ([]models.AlphaMetric, error) {
	if s == nil || s.Repo == nil {
		return nil, nil
	}
	return s.Repo.ListTopAlphaMetrics(ctx, limit)
}

// SweepStale recomputes a batch of the oldest stale rows. Run from cron so
// leaderboard reads rarely see stale data even without traffic.
func (s *Scorer) SweepStale(ctx context.Context) int {
	if s == nil || s.Repo == nil {
		return 0
	}
	batch := s.Config.SweepBatchSize
	if batch <= 0 {
		batch = 50
	}
	cutoff := time.Now().UTC().Add(-s.staleAfter())
	rows, err := s.Repo.ListStaleAlphaMetrics(ctx, cutoff, batch)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("reputation: stale sweep listing failed", zap.Error(err))
		}
		return 0
	}
	refreshed := 0
	for _, row := range rows {
		if s.Recompute(ctx, row.WalletAddress) != nil {
			refreshed++
		}
	}
	if s.Logger != nil && len(rows) > 0 {
		s.Logger.Info("reputation: stale sweep",
			zap.Int("stale", len(rows)),
			zap.Int("refreshed", refreshed),
		)
	}
	return refreshed
}

// Compute builds a full metric row from a position history. Pure.
func Compute(wallet string, positions []models.Position, now time.Time) *models.AlphaMetric {
	metric := &models.AlphaMetric{
		WalletAddress:  wallet,
		TotalPositions: len(positions),
		UpdatedAt:      now,
	}

	var rois []float64
	for _, p := range positions {
		if p.ROI == nil {
			continue
		}
		rois = append(rois, clampROI(*p.ROI))
	}
	metric.ClosedPositions = len(rois)

	if len(rois) == 0 {
		// Activity-only bootstrap: rewards showing up, capped low until
		// positions actually close.
		metric.AlphaScore = math.Min(10, math.Log10(float64(len(positions))+1)*5)
		return metric
	}

	sum := 0.0
	best := rois[0]
	worst := rois[0]
	for _, r := range rois {
		sum += r
		if r > 0 {
			metric.Wins++
		} else {
			metric.Losses++
		}
		if r > best {
			best = r
		}
		if r < worst {
			worst = r
		}
	}
	avg := sum / float64(len(rois))
	metric.AvgROI = &avg
	metric.BestROI = &best
	metric.WorstROI = &worst

	winRate := float64(metric.Wins) / float64(len(rois))
	base := 50 * winRate
	roiComponent := 50 * clamp(avg/100, -1, 1)
	stability := math.Log(float64(len(rois))+1) * 2
	metric.AlphaScore = clamp(base+roiComponent+stability, 0, 100)
	return metric
}

// Label maps a score to its skill tier. Thresholds partition [0,100] into
// four contiguous ranges.
func Label(score float64) string {
	switch {
	case score < 30:
		return LabelRookie
	case score < 60:
		return LabelIntermediate
	case score < 85:
		return LabelPro
	default:
		return LabelElite
	}
}

func clampROI(v float64) float64 {
	return clamp(v, -roiClamp, roiClamp)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
