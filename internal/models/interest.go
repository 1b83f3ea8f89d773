package models

import "github.com/google/uuid"

// Interest is a named tag from the fixed catalog.
type Interest struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// InterestMembership joins a user to one interest, carrying the interest name
// so directory enrichment can avoid a second lookup.
type InterestMembership struct {
	UserID       uuid.UUID `json:"user_id"`
	InterestID   uuid.UUID `json:"interest_id"`
	InterestName string    `json:"interest_name"`
}

// MinInterests is the number of interests a profile must hold after
// onboarding or a profile edit.
const MinInterests = 3
