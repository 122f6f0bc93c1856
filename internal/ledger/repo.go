package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/db/models"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/enums"
)

// Repository manages persistence for activity ledger entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.ActivityTransaction) error
	ListBySource(ctx context.Context, sourceID uuid.UUID) ([]models.ActivityTransaction, error)
	SumBySource(ctx context.Context, sourceID uuid.UUID) (decimal.Decimal, error)
	SumEarningsByUser(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	CountByTypesSince(ctx context.Context, userID uuid.UUID, types []enums.ActivityType, since time.Time) (int64, error)
	LastActivityAt(ctx context.Context, userID uuid.UUID) (*time.Time, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.ActivityTransaction) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListBySource(ctx context.Context, sourceID uuid.UUID) ([]models.ActivityTransaction, error) {
	var entries []models.ActivityTransaction
	if err := r.db.WithContext(ctx).
		Where("source_id = ?", sourceID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) SumBySource(ctx context.Context, sourceID uuid.UUID) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.ActivityTransaction{}).
		Select("COALESCE(SUM(amount_eloits), 0) AS total").
		Where("source_id = ?", sourceID).
		Where("activity_type IN ?", earningTypes()).
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

func (r *repository) SumEarningsByUser(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.ActivityTransaction{}).
		Select("COALESCE(SUM(amount_eloits), 0) AS total").
		Where("user_id = ?", userID).
		Where("activity_type IN ?", earningTypes()).
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

func (r *repository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ActivityTransaction{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *repository) CountByTypesSince(ctx context.Context, userID uuid.UUID, types []enums.ActivityType, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ActivityTransaction{}).
		Where("user_id = ?", userID).
		Where("activity_type IN ?", types).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

func (r *repository) LastActivityAt(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	var latest models.ActivityTransaction
	err := r.db.WithContext(ctx).
		Select("created_at").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Take(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &latest.CreatedAt, nil
}

func earningTypes() []enums.ActivityType {
	return []enums.ActivityType{
		enums.ActivityReferralCommission,
		enums.ActivityReferralSignupBonus,
		enums.ActivityAutoShare,
	}
}
