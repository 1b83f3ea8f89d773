package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is a user's public identity record. One row per user, created when
// onboarding completes and only ever mutated by its owner.
type Profile struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Name      string     `json:"name"`
	Username  *string    `json:"username,omitempty"`
	Birthday  *time.Time `json:"birthday,omitempty"`
	Gender    *string    `json:"gender,omitempty"`
	City      *string    `json:"city,omitempty"`
	Bio       *string    `json:"bio,omitempty"`
	AvatarURL *string    `json:"avatar_url,omitempty"`
	IsOnline  bool       `json:"is_online"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Age returns the profile's age in whole years at the given time, or nil when
// no birthday is set.
func (p *Profile) Age(now time.Time) *int {
	if p.Birthday == nil {
		return nil
	}
	years := now.Year() - p.Birthday.Year()
	anniversary := time.Date(now.Year(), p.Birthday.Month(), p.Birthday.Day(), 0, 0, 0, 0, now.Location())
	if now.Before(anniversary) {
		years--
	}
	return &years
}

type UpsertProfileParams struct {
	Name      string
	Username  *string
	Birthday  *time.Time
	Gender    *string
	City      *string
	Bio       *string
	AvatarURL *string
}
