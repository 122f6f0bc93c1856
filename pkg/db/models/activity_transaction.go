package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/enums"
)

// ActivityTransaction is one immutable ledger row. Earning rows carry the referral id in SourceID.
type ActivityTransaction struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID       uuid.UUID          `gorm:"column:user_id;type:uuid;not null" json:"user_id"`
	ActivityType enums.ActivityType `gorm:"column:activity_type;type:text;not null" json:"activity_type"`
	AmountEloits decimal.Decimal    `gorm:"column:amount_eloits;type:numeric(18,4);not null" json:"amount_eloits"`
	Description  string             `gorm:"column:description" json:"description"`
	SourceID     *uuid.UUID         `gorm:"column:source_id;type:uuid" json:"source_id,omitempty"`
	SourceType   string             `gorm:"column:source_type" json:"source_type,omitempty"`
	Metadata     json.RawMessage    `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ActivityTransaction) TableName() string { return "activity_transactions" }

func (a ActivityTransaction) Validate() error {
	if a.UserID == uuid.Nil {
		return malformed("activity_transactions", "user_id is empty")
	}
	if !a.ActivityType.IsValid() {
		return malformed("activity_transactions", "unknown activity_type")
	}
	if a.AmountEloits.IsNegative() {
		return malformed("activity_transactions", "amount_eloits is negative")
	}
	return nil
}
