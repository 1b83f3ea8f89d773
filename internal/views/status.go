// Package views keeps per-user in-memory views of the social graph and chat
// state consistent with the store. Each view loads its state wholesale,
// mutates through the services layer, and reloads when a change event for a
// relevant table arrives. Consistency is best effort: a missed event is
// corrected by the next reload.
package views

import (
	"github.com/google/uuid"

	"github.com/vennapp/venner/internal/models"
)

// ResolveFriendshipStatus derives the relationship between selfID and otherID
// from the edge set. The first edge connecting the pair wins; the schema
// keeps the pair unique, so later duplicates only matter for stale fetches.
func ResolveFriendshipStatus(selfID, otherID uuid.UUID, edges []models.Friendship) models.RelationStatus {
	for _, edge := range edges {
		if !edge.Connects(selfID, otherID) {
			continue
		}
		if edge.Status == models.FriendshipStatusAccepted {
			return models.RelationAccepted
		}
		if edge.RequesterID == selfID {
			return models.RelationPending
		}
		return models.RelationRequested
	}
	return models.RelationNone
}
