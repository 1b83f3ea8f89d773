package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityInvitation invites one friend to a named activity. A single user
// action creates one row per invited friend.
type ActivityInvitation struct {
	ID            uuid.UUID `json:"id"`
	SenderID      uuid.UUID `json:"sender_id"`
	ReceiverID    uuid.UUID `json:"receiver_id"`
	ActivityTitle string    `json:"activity_title"`
	ActivityIcon  string    `json:"activity_icon"`
	IsRead        bool      `json:"is_read"`
	CreatedAt     time.Time `json:"created_at"`
}

type InvitationWithSender struct {
	ActivityInvitation
	SenderName   string  `json:"sender_name"`
	SenderAvatar *string `json:"sender_avatar,omitempty"`
}
