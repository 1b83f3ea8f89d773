package realtime

import "encoding/json"

// Op is the kind of row change an event describes.
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// Table names events are keyed by.
const (
	TableProfiles    = "profiles"
	TableFriendships = "friendships"
	TableMessages    = "messages"
	TableInvitations = "activity_invitations"
)

// Event is a change notification for a single row. Row carries the affected
// row as JSON; for deletes it may hold only the row's identifying fields.
type Event struct {
	Table string          `json:"table"`
	Op    Op              `json:"op"`
	Row   json.RawMessage `json:"row,omitempty"`
}

// Decode unmarshals the event's row payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Row, v)
}
