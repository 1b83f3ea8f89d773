package models

import "github.com/google/uuid"

// Activity is a group-activity idea from the curated catalog, surfaced to
// pairs of friends based on their shared interests.
type Activity struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Icon        string    `json:"icon"`
	IsActive    bool      `json:"is_active"`
}
