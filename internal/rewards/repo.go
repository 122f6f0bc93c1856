// Package rewards persists the per-user rewards summary shared by trust scoring and referral earnings.
package rewards

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/db/models"
)

// Repository manages user_rewards_summary rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.UserRewardsSummary, error)
	FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*models.UserRewardsSummary, error)
	UpsertTrustScore(ctx context.Context, userID uuid.UUID, score int) error
	ApplyEarning(ctx context.Context, userID uuid.UUID, totalEarned, credited decimal.Decimal) error
	ListUserIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a summary repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindByUserID returns nil, nil when the user has no summary row yet.
func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.UserRewardsSummary, error) {
	var summary models.UserRewardsSummary
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&summary).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := summary.Validate(); err != nil {
		return nil, err
	}
	return &summary, nil
}

// FindByUserIDForUpdate creates a zeroed row when none exists and returns it locked until the
// surrounding transaction ends. Callers must run it inside a transaction.
func (r *repository) FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*models.UserRewardsSummary, error) {
	now := time.Now().UTC()
	seed := models.UserRewardsSummary{UserID: userID, CreatedAt: now, UpdatedAt: now}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&seed).Error; err != nil {
		return nil, err
	}

	var summary models.UserRewardsSummary
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Take(&summary).Error; err != nil {
		return nil, err
	}
	if err := summary.Validate(); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *repository) UpsertTrustScore(ctx context.Context, userID uuid.UUID, score int) error {
	now := time.Now().UTC()
	row := models.UserRewardsSummary{
		UserID:     userID,
		TrustScore: score,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"trust_score", "updated_at"}),
	}).Create(&row).Error
}

// ApplyEarning sets total_earned to the ledger total and adds credited to the balance.
func (r *repository) ApplyEarning(ctx context.Context, userID uuid.UUID, totalEarned, credited decimal.Decimal) error {
	now := time.Now().UTC()
	row := models.UserRewardsSummary{
		UserID:           userID,
		TotalEarned:      totalEarned,
		AvailableBalance: credited,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"total_earned":      gorm.Expr("excluded.total_earned"),
			"available_balance": gorm.Expr("user_rewards_summary.available_balance + excluded.available_balance"),
			"updated_at":        now,
		}),
	}).Create(&row).Error
}

// ListUserIDs pages through summary owners in id order.
func (r *repository) ListUserIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := r.db.WithContext(ctx).Model(&models.UserRewardsSummary{}).Order("user_id ASC").Limit(limit)
	if after != uuid.Nil {
		query = query.Where("user_id > ?", after)
	}
	if err := query.Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
