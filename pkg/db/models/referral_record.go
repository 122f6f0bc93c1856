package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/enums"
	pkgerrors "github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/errors"
)

// ReferralRecord mirrors referral_tracking. Rows are never deleted.
type ReferralRecord struct {
	ID                   uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReferrerID           uuid.UUID            `gorm:"column:referrer_id;type:uuid;not null" json:"referrer_id"`
	ReferredUserID       uuid.UUID            `gorm:"column:referred_user_id;type:uuid;not null" json:"referred_user_id"`
	ReferralCode         string               `gorm:"column:referral_code;not null;uniqueIndex" json:"referral_code"`
	Status               enums.ReferralStatus `gorm:"column:status;type:text;not null" json:"status"`
	ReferralDate         time.Time            `gorm:"column:referral_date;not null" json:"referral_date"`
	VerificationDate     *time.Time           `gorm:"column:verification_date" json:"verification_date,omitempty"`
	FirstPurchaseDate    *time.Time           `gorm:"column:first_purchase_date" json:"first_purchase_date,omitempty"`
	EarningsTotal        decimal.Decimal      `gorm:"column:earnings_total;type:numeric(18,4);not null" json:"earnings_total"`
	EarningsThisMonth    decimal.Decimal      `gorm:"column:earnings_this_month;type:numeric(18,4);not null" json:"earnings_this_month"`
	EarningsLastMonth    decimal.Decimal      `gorm:"column:earnings_last_month;type:numeric(18,4);not null" json:"earnings_last_month"`
	EarningsMonth        string               `gorm:"column:earnings_month;not null" json:"earnings_month"`
	Tier                 enums.ReferralTier   `gorm:"column:tier;type:text;not null" json:"tier"`
	CommissionPercentage decimal.Decimal      `gorm:"column:commission_percentage;type:numeric(6,4);not null" json:"commission_percentage"`
	AutoShareTotal       decimal.Decimal      `gorm:"column:auto_share_total;type:numeric(18,4);not null" json:"auto_share_total"`
	AutoSharePercentage  decimal.Decimal      `gorm:"column:auto_share_percentage;type:numeric(6,4);not null" json:"auto_share_percentage"`
	CreatedAt            time.Time            `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time            `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (ReferralRecord) TableName() string { return "referral_tracking" }

var autoShareMax = decimal.NewFromInt(1)

// Validate checks the stored invariants of a referral row.
func (r ReferralRecord) Validate() error {
	switch {
	case r.ID == uuid.Nil:
		return malformed("referral_tracking", "id is empty")
	case r.ReferralCode == "":
		return malformed("referral_tracking", "referral_code is empty")
	case !r.Status.IsValid():
		return malformed("referral_tracking", fmt.Sprintf("unknown status %q", r.Status))
	case !r.Tier.IsValid():
		return malformed("referral_tracking", fmt.Sprintf("unknown tier %q", r.Tier))
	case r.EarningsTotal.IsNegative() || r.EarningsThisMonth.IsNegative() ||
		r.EarningsLastMonth.IsNegative() || r.AutoShareTotal.IsNegative():
		return malformed("referral_tracking", "negative earnings")
	case r.EarningsThisMonth.GreaterThan(r.EarningsTotal):
		return malformed("referral_tracking", "earnings_this_month exceeds earnings_total")
	case !r.CommissionPercentage.Equal(r.Tier.CommissionRate()):
		return malformed("referral_tracking", "commission_percentage does not match tier")
	case r.AutoSharePercentage.IsNegative() || r.AutoSharePercentage.GreaterThan(autoShareMax):
		return malformed("referral_tracking", "auto_share_percentage out of range")
	}
	return nil
}

func malformed(table, reason string) error {
	return pkgerrors.New(pkgerrors.CodeMalformed, fmt.Sprintf("%s: %s", table, reason))
}
