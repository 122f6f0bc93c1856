package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/enums"
)

// SpamReport mirrors spam_detection.
type SpamReport struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID          `gorm:"column:user_id;type:uuid;not null"`
	Severity   enums.SpamSeverity `gorm:"column:severity;type:text;not null"`
	Reason     string             `gorm:"column:reason"`
	IsResolved bool               `gorm:"column:is_resolved;not null;default:false"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (SpamReport) TableName() string { return "spam_detection" }
