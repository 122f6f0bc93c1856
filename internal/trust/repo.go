package trust

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/db/models"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/enums"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/pagination"
)

// Repository reads the behavioral signals behind a trust score and appends score history.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	ActiveDaysSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]time.Time, error)
	CountVerifiedReferrals(ctx context.Context, referrerID uuid.UUID) (int64, error)
	CountOpenSpamSince(ctx context.Context, userID uuid.UUID, severity enums.SpamSeverity, since time.Time) (int64, error)
	CreateHistory(ctx context.Context, entry *models.TrustHistoryEntry) error
	ListHistory(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.TrustHistoryEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a trust repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindProfile returns nil, nil when the user has no profile.
func (r *repository) FindProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) ActiveDaysSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]time.Time, error) {
	var days []time.Time
	err := r.db.WithContext(ctx).
		Model(&models.UserDailyStat{}).
		Where("user_id = ?", userID).
		Where("activity_count > 0").
		Where("stat_date >= ?", since).
		Order("stat_date DESC").
		Pluck("stat_date", &days).Error
	return days, err
}

func (r *repository) CountVerifiedReferrals(ctx context.Context, referrerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ReferralRecord{}).
		Where("referrer_id = ?", referrerID).
		Where("status = ?", enums.ReferralStatusVerified).
		Count(&count).Error
	return count, err
}

func (r *repository) CountOpenSpamSince(ctx context.Context, userID uuid.UUID, severity enums.SpamSeverity, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SpamReport{}).
		Where("user_id = ?", userID).
		Where("severity = ?", severity).
		Where("is_resolved = ?", false).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

func (r *repository) CreateHistory(ctx context.Context, entry *models.TrustHistoryEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListHistory returns entries newest first, starting after cursor.
func (r *repository) ListHistory(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.TrustHistoryEntry, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var entries []models.TrustHistoryEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if err := entry.Validate(); err != nil {
			return nil, err
		}
	}
	return entries, nil
}
