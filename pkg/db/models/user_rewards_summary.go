package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserRewardsSummary holds one row per user with the current trust score and earning aggregates.
type UserRewardsSummary struct {
	UserID           uuid.UUID       `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	TrustScore       int             `gorm:"column:trust_score;not null" json:"trust_score"`
	TotalEarned      decimal.Decimal `gorm:"column:total_earned;type:numeric(18,4);not null" json:"total_earned"`
	AvailableBalance decimal.Decimal `gorm:"column:available_balance;type:numeric(18,4);not null" json:"available_balance"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (UserRewardsSummary) TableName() string { return "user_rewards_summary" }

func (s UserRewardsSummary) Validate() error {
	if !scoreInRange(s.TrustScore) {
		return malformed("user_rewards_summary", "trust_score out of range")
	}
	if s.TotalEarned.IsNegative() {
		return malformed("user_rewards_summary", "total_earned is negative")
	}
	return nil
}
