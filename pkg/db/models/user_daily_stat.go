package models

import (
	"time"

	"github.com/google/uuid"
)

// UserDailyStat holds the per-day activity counter used for streaks.
type UserDailyStat struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	StatDate      time.Time `gorm:"column:stat_date;type:date;not null"`
	ActivityCount int       `gorm:"column:activity_count;not null;default:0"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (UserDailyStat) TableName() string { return "user_daily_stats" }
