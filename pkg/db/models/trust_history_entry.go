package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/enums"
)

// TrustHistoryEntry is an append-only record of one trust score transition.
type TrustHistoryEntry struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID           uuid.UUID             `gorm:"column:user_id;type:uuid;not null" json:"user_id"`
	OldScore         int                   `gorm:"column:old_score;not null" json:"old_score"`
	NewScore         int                   `gorm:"column:new_score;not null" json:"new_score"`
	ChangeAmount     int                   `gorm:"column:change_amount;not null" json:"change_amount"`
	ChangePercentage decimal.Decimal       `gorm:"column:change_percentage;type:numeric(8,2);not null" json:"change_percentage"`
	ChangeReason     string                `gorm:"column:change_reason;not null" json:"change_reason"`
	FactorType       enums.TrustFactorType `gorm:"column:factor_type;type:text;not null" json:"factor_type"`
	Metadata         json.RawMessage       `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	IdempotencyKey   string                `gorm:"column:idempotency_key;not null;uniqueIndex" json:"-"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (TrustHistoryEntry) TableName() string { return "trust_history" }

func (e TrustHistoryEntry) Validate() error {
	switch {
	case e.ID == uuid.Nil:
		return malformed("trust_history", "id is empty")
	case !scoreInRange(e.OldScore) || !scoreInRange(e.NewScore):
		return malformed("trust_history", "score out of range")
	case e.NewScore-e.OldScore != e.ChangeAmount:
		return malformed("trust_history", "change_amount does not match scores")
	}
	return nil
}

func scoreInRange(score int) bool {
	return score >= 0 && score <= 100
}
