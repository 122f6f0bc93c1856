package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the subset of profiles read by the trust collector.
type Profile struct {
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	FullName   *string   `gorm:"column:full_name"`
	AvatarURL  *string   `gorm:"column:avatar_url"`
	Bio        *string   `gorm:"column:bio"`
	Location   *string   `gorm:"column:location"`
	Phone      *string   `gorm:"column:phone"`
	Website    *string   `gorm:"column:website"`
	IsVerified bool      `gorm:"column:is_verified;not null;default:false"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
}

func (Profile) TableName() string { return "profiles" }

// PopulatedFields counts the non-blank profile fields.
func (p Profile) PopulatedFields() int {
	count := 0
	for _, field := range []*string{p.FullName, p.AvatarURL, p.Bio, p.Location, p.Phone, p.Website} {
		if field != nil && *field != "" {
			count++
		}
	}
	return count
}
