package trust

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/db/models"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/enums"
)

func strPtr(v string) *string { return &v }

func seedProfile(t *testing.T, conn *gorm.DB, userID uuid.UUID, createdAt time.Time, verified bool, fields int) {
	t.Helper()
	p := models.Profile{UserID: userID, IsVerified: verified, CreatedAt: createdAt}
	setters := []func(){
		func() { p.FullName = strPtr("Ada Obi") },
		func() { p.AvatarURL = strPtr("https://cdn.example/ada.png") },
		func() { p.Bio = strPtr("builder") },
		func() { p.Location = strPtr("Lagos") },
		func() { p.Phone = strPtr("+2340000000") },
		func() { p.Website = strPtr("https://ada.example") },
	}
	for i := 0; i < fields && i < len(setters); i++ {
		setters[i]()
	}
	require.NoError(t, conn.Create(&p).Error)
}

func seedActivity(t *testing.T, conn *gorm.DB, userID uuid.UUID, kind enums.ActivityType, at time.Time) {
	t.Helper()
	require.NoError(t, conn.Create(&models.ActivityTransaction{
		ID:           uuid.New(),
		UserID:       userID,
		ActivityType: kind,
		AmountEloits: decimal.Zero,
		CreatedAt:    at,
	}).Error)
}

func seedActiveDay(t *testing.T, conn *gorm.DB, userID uuid.UUID, day time.Time) {
	t.Helper()
	require.NoError(t, conn.Create(&models.UserDailyStat{
		ID:            uuid.New(),
		UserID:        userID,
		StatDate:      time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
		ActivityCount: 3,
	}).Error)
}

func seedSpam(t *testing.T, conn *gorm.DB, userID uuid.UUID, severity enums.SpamSeverity, resolved bool, at time.Time) {
	t.Helper()
	require.NoError(t, conn.Create(&models.SpamReport{
		ID:         uuid.New(),
		UserID:     userID,
		Severity:   severity,
		IsResolved: resolved,
		CreatedAt:  at,
	}).Error)
}

func seedReferral(t *testing.T, conn *gorm.DB, referrerID uuid.UUID, status enums.ReferralStatus) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, conn.Create(&models.ReferralRecord{
		ID:                   uuid.New(),
		ReferrerID:           referrerID,
		ReferredUserID:       uuid.New(),
		ReferralCode:         uuid.NewString(),
		Status:               status,
		ReferralDate:         now,
		EarningsMonth:        now.Format("2006-01"),
		Tier:                 enums.ReferralTierBronze,
		CommissionPercentage: enums.ReferralTierBronze.CommissionRate(),
		AutoSharePercentage:  decimal.RequireFromString("0.5"),
	}).Error)
}

func countHistory(t *testing.T, conn *gorm.DB, userID uuid.UUID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, conn.WithContext(context.Background()).Model(&models.TrustHistoryEntry{}).Where("user_id = ?", userID).Count(&count).Error)
	return count
}
