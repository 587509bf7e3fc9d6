package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fairness/internal/models"
	"fairness/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

var _ repository.Repository = (*Store)(nil)

func (s *Store) ListPositionsByWallet(ctx context.Context, wallet string) ([]models.Position, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return nil, nil
	}
	var items []models.Position
	if err := s.db.WithContext(ctx).
		Model(&models.Position{}).
		Where("wallet_address = ?", wallet).
		Order("created_at asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetProfile(ctx context.Context, wallet string) (*models.UserProfile, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return nil, nil
	}
	var item models.UserProfile
	err := s.db.WithContext(ctx).
		Where("wallet_address = ?", wallet).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListWalletsBySharedIP(ctx context.Context, ip string, limit int) ([]repository.WalletRef, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	var items []repository.WalletRef
	err := s.db.WithContext(ctx).
		Model(&models.UserProfile{}).
		Select("wallet_address", "created_at").
		Where("ip_address = ?", ip).
		Order("created_at asc").
		Limit(limit).
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListWalletsByAddressPrefix(ctx context.Context, prefix string, limit int) ([]repository.WalletRef, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	var items []repository.WalletRef
	err := s.db.WithContext(ctx).
		Model(&models.UserProfile{}).
		Select("wallet_address", "created_at").
		Where("wallet_address LIKE ?", escapeLike(prefix)+"%").
		Order("created_at asc").
		Limit(limit).
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (s *Store) InsertActivity(ctx context.Context, item *models.Activity) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.WalletAddress) == "" || strings.TrimSpace(item.ActionType) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) CountActivitiesSince(ctx context.Context, wallet string, actionType string, since time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.Activity{}).
		Where("wallet_address = ?", wallet).
		Where("created_at >= ?", since.UTC())
	if actionType != "" && actionType != models.ActionGeneral {
		query = query.Where("action_type = ?", actionType)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) ListRecentActivities(ctx context.Context, wallet string, actionType string, limit int) ([]models.Activity, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	query := s.db.WithContext(ctx).
		Model(&models.Activity{}).
		Where("wallet_address = ?", wallet)
	if actionType != "" {
		query = query.Where("action_type = ?", actionType)
	}
	var items []models.Activity
	if err := query.
		Order("created_at desc").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) AggregateActivitySince(ctx context.Context, metric string, since time.Time) (repository.ActivityAggregate, error) {
	if s == nil || s.db == nil {
		return repository.ActivityAggregate{Sum: decimal.Zero}, nil
	}
	out := repository.ActivityAggregate{Sum: decimal.Zero}
	switch metric {
	case repository.MetricPosts:
		return s.countActions(ctx, models.ActionPost, since)
	case repository.MetricTrades:
		return s.countActions(ctx, models.ActionTrade, since)
	case repository.MetricFollowers:
		return s.countActions(ctx, models.ActionFollow, since)
	case repository.MetricVolume:
		var sum float64
		err := s.db.WithContext(ctx).
			Model(&models.Activity{}).
			Select("COALESCE(SUM(amount),0)").
			Where("action_type = ?", models.ActionTrade).
			Where("created_at >= ?", since.UTC()).
			Scan(&sum).Error
		if err != nil {
			return out, err
		}
		out.Sum = decimal.NewFromFloat(sum)
		return out, nil
	case repository.MetricRewards:
		var sum float64
		err := s.db.WithContext(ctx).
			Table("reward_transactions").
			Select("COALESCE(SUM(normalized_amount),0)").
			Where("created_at >= ?", since.UTC()).
			Scan(&sum).Error
		if err != nil {
			return out, err
		}
		out.Sum = decimal.NewFromFloat(sum)
		return out, nil
	default:
		return out, errors.New("unknown aggregate metric: " + metric)
	}
}

func (s *Store) countActions(ctx context.Context, actionType string, since time.Time) (repository.ActivityAggregate, error) {
	out := repository.ActivityAggregate{Sum: decimal.Zero}
	err := s.db.WithContext(ctx).
		Model(&models.Activity{}).
		Where("action_type = ?", actionType).
		Where("created_at >= ?", since.UTC()).
		Count(&out.Count).Error
	if err != nil {
		return repository.ActivityAggregate{Sum: decimal.Zero}, err
	}
	return out, nil
}

func (s *Store) CountActiveWalletsSince(ctx context.Context, since time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := s.db.WithContext(ctx).
		Model(&models.Activity{}).
		Where("created_at >= ?", since.UTC()).
		Distinct("wallet_address").
		Count(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) DeleteActivitiesBefore(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	if before.IsZero() {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("created_at < ?", before.UTC()).
		Delete(&models.Activity{})
	return res.RowsAffected, res.Error
}

func (s *Store) UpsertAlphaMetric(ctx context.Context, item *models.AlphaMetric) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.WalletAddress) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "wallet_address"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_positions",
			"closed_positions",
			"wins",
			"losses",
			"avg_roi",
			"best_roi",
			"worst_roi",
			"alpha_score",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) GetAlphaMetric(ctx context.Context, wallet string) (*models.AlphaMetric, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return nil, nil
	}
	var item models.AlphaMetric
	err := s.db.WithContext(ctx).
		Where("wallet_address = ?", wallet).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListTopAlphaMetrics(ctx context.Context, limit int) ([]models.AlphaMetric, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	var items []models.AlphaMetric
	if err := s.db.WithContext(ctx).
		Model(&models.AlphaMetric{}).
		Order("alpha_score desc").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListStaleAlphaMetrics(ctx context.Context, before time.Time, limit int) ([]models.AlphaMetric, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	var items []models.AlphaMetric
	if err := s.db.WithContext(ctx).
		Model(&models.AlphaMetric{}).
		Where("updated_at < ?", before.UTC()).
		Order("updated_at asc").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) InsertRewardTransaction(ctx context.Context, item *models.RewardTransaction) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.WalletAddress) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListRewardTransactionsByWallet(ctx context.Context, wallet string, limit int) ([]models.RewardTransaction, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	var items []models.RewardTransaction
	if err := s.db.WithContext(ctx).
		Model(&models.RewardTransaction{}).
		Where("wallet_address = ?", wallet).
		Order("created_at desc").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) SumRewardsSince(ctx context.Context, wallet string, since time.Time) (decimal.Decimal, error) {
	if s == nil || s.db == nil {
		return decimal.Zero, nil
	}
	var sum float64
	err := s.db.WithContext(ctx).
		Table("reward_transactions").
		Select("COALESCE(SUM(normalized_amount),0)").
		Where("wallet_address = ?", wallet).
		Where("created_at >= ?", since.UTC()).
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromFloat(sum), nil
}
