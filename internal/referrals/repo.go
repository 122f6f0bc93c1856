package referrals

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

// Repository persists referral_tracking rows. Every mutation is a single conditional or
// additive statement so concurrent writers never overwrite each other.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, record *models.ReferralRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ReferralRecord, error)
	FindVerifiedByCode(ctx context.Context, code string) (*models.ReferralRecord, error)
	ListByReferrer(ctx context.Context, referrerID uuid.UUID) ([]models.ReferralRecord, error)
	ListVerifiedByReferred(ctx context.Context, referredUserID uuid.UUID) ([]models.ReferralRecord, error)
	ListAfter(ctx context.Context, after uuid.UUID, limit int) ([]models.ReferralRecord, error)
	MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, to enums.ReferralStatus, from []enums.ReferralStatus) (bool, error)
	SetAutoSharePercentage(ctx context.Context, id uuid.UUID, pct decimal.Decimal) (bool, error)
	IncrementEarnings(ctx context.Context, id uuid.UUID, delta decimal.Decimal, month, previousMonth string) error
	IncrementAutoShareTotal(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error
	UpgradeTier(ctx context.Context, id uuid.UUID, tier enums.ReferralTier) (bool, error)
	RolloverMonth(ctx context.Context, month, previousMonth string) (int64, error)
}

// ErrReferralNotFound is returned by mutations that match no row.
var ErrReferralNotFound = errors.New("referral not found")

type repository struct {
	db *gorm.DB
}

// NewRepository returns a referral repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, record *models.ReferralRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ReferralRecord, error) {
	return r.findOne(ctx, r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *repository) FindVerifiedByCode(ctx context.Context, code string) (*models.ReferralRecord, error) {
	return r.findOne(ctx, r.db.WithContext(ctx).
		Where("referral_code = ?", code).
		Where("status = ?", enums.ReferralStatusVerified))
}

func (r *repository) findOne(ctx context.Context, query *gorm.DB) (*models.ReferralRecord, error) {
	var record models.ReferralRecord
	err := query.Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) ListByReferrer(ctx context.Context, referrerID uuid.UUID) ([]models.ReferralRecord, error) {
	return r.list(r.db.WithContext(ctx).
		Where("referrer_id = ?", referrerID).
		Order("referral_date DESC").
		Order("id DESC"))
}

func (r *repository) ListVerifiedByReferred(ctx context.Context, referredUserID uuid.UUID) ([]models.ReferralRecord, error) {
	return r.list(r.db.WithContext(ctx).
		Where("referred_user_id = ?", referredUserID).
		Where("status = ?", enums.ReferralStatusVerified).
		Order("id ASC"))
}

func (r *repository) ListAfter(ctx context.Context, after uuid.UUID, limit int) ([]models.ReferralRecord, error) {
	query := r.db.WithContext(ctx).Order("id ASC").Limit(limit)
	if after != uuid.Nil {
		query = query.Where("id > ?", after)
	}
	return r.list(query)
}

func (r *repository) list(query *gorm.DB) ([]models.ReferralRecord, error) {
	var records []models.ReferralRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	for _, record := range records {
		if err := record.Validate(); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// MarkVerified moves a pending referral to verified. It reports false when the row was not pending.
func (r *repository) MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ReferralRecord{}).
		Where("id = ?", id).
		Where("status = ?", enums.ReferralStatusPending).
		Updates(map[string]any{
			"status":            enums.ReferralStatusVerified,
			"verification_date": at,
			"updated_at":        at,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, to enums.ReferralStatus, from []enums.ReferralStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ReferralRecord{}).
		Where("id = ?", id).
		Where("status IN ?", from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected == 1, res.Error
}

func (r *repository) SetAutoSharePercentage(ctx context.Context, id uuid.UUID, pct decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ReferralRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"auto_share_percentage": pct,
			"updated_at":            time.Now().UTC(),
		})
	return res.RowsAffected == 1, res.Error
}

// IncrementEarnings adds delta to the lifetime and monthly counters, rolling the monthly
// bucket over first when the row still belongs to an earlier month.
func (r *repository) IncrementEarnings(ctx context.Context, id uuid.UUID, delta decimal.Decimal, month, previousMonth string) error {
	res := r.db.WithContext(ctx).
		Model(&models.ReferralRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"earnings_total": gorm.Expr("earnings_total + ?", delta),
			"earnings_last_month": gorm.Expr(
				"CASE WHEN earnings_month = ? THEN earnings_last_month WHEN earnings_month = ? THEN earnings_this_month ELSE 0 END",
				month, previousMonth),
			"earnings_this_month": gorm.Expr(
				"CASE WHEN earnings_month = ? THEN earnings_this_month + ? ELSE ? END",
				month, delta, delta),
			"earnings_month": month,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReferralNotFound
	}
	return nil
}

func (r *repository) IncrementAutoShareTotal(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	res := r.db.WithContext(ctx).
		Model(&models.ReferralRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"auto_share_total": gorm.Expr("auto_share_total + ?", delta),
			"updated_at":       time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReferralNotFound
	}
	return nil
}

// UpgradeTier only moves a row upwards; it reports false when the row is already at or above tier.
func (r *repository) UpgradeTier(ctx context.Context, id uuid.UUID, tier enums.ReferralTier) (bool, error) {
	lower := tier.Below()
	if len(lower) == 0 {
		return false, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.ReferralRecord{}).
		Where("id = ?", id).
		Where("tier IN ?", lower).
		Updates(map[string]any{
			"tier":                  tier,
			"commission_percentage": tier.CommissionRate(),
			"updated_at":            time.Now().UTC(),
		})
	return res.RowsAffected == 1, res.Error
}

// RolloverMonth closes the monthly bucket of every row still tagged with an earlier month.
func (r *repository) RolloverMonth(ctx context.Context, month, previousMonth string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ReferralRecord{}).
		Where("earnings_month <> ?", month).
		Updates(map[string]any{
			"earnings_last_month": gorm.Expr(
				"CASE WHEN earnings_month = ? THEN earnings_this_month ELSE 0 END", previousMonth),
			"earnings_this_month": decimal.Zero,
			"earnings_month":      month,
			"updated_at":          time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}
