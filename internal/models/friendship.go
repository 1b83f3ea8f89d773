package models

import (
	"time"

	"github.com/google/uuid"
)

type FriendshipStatus string

const (
	FriendshipStatusPending  FriendshipStatus = "pending"
	FriendshipStatusAccepted FriendshipStatus = "accepted"
)

// Friendship is a directed edge from the user who sent the request to the
// user it was addressed to. Absence of a row between two users means they
// have no relationship. Rejection, cancellation and unfriending all delete
// the row.
type Friendship struct {
	ID          uuid.UUID        `json:"id"`
	RequesterID uuid.UUID        `json:"requester_id"`
	AddresseeID uuid.UUID        `json:"addressee_id"`
	Status      FriendshipStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Touches reports whether the edge involves the given user.
func (f Friendship) Touches(userID uuid.UUID) bool {
	return f.RequesterID == userID || f.AddresseeID == userID
}

// Connects reports whether the edge connects the two users, in either
// direction.
func (f Friendship) Connects(a, b uuid.UUID) bool {
	return (f.RequesterID == a && f.AddresseeID == b) ||
		(f.RequesterID == b && f.AddresseeID == a)
}

// Other returns the user on the far side of the edge from userID.
func (f Friendship) Other(userID uuid.UUID) uuid.UUID {
	if f.RequesterID == userID {
		return f.AddresseeID
	}
	return f.RequesterID
}

// RelationStatus is the friendship state between a viewer and another
// profile, derived from the single edge connecting them. It is never stored.
type RelationStatus string

const (
	RelationNone      RelationStatus = "none"
	RelationPending   RelationStatus = "pending" // viewer sent the request, awaiting the other side
	RelationAccepted  RelationStatus = "accepted"
	RelationRequested RelationStatus = "requested" // other side sent the request, awaiting the viewer
)
