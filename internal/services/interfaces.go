package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/vennapp/venner/internal/models"
)

// UserServiceInterface defines the contract for user operations.
type UserServiceInterface interface {
	Create(ctx context.Context, params models.CreateUserParams) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// AuthServiceInterface defines the contract for authentication operations.
type AuthServiceInterface interface {
	HashPassword(password string) (string, error)
	VerifyPassword(hash, password string) bool
	CreateSession(ctx context.Context, userID uuid.UUID) (token string, err error)
	ValidateSession(ctx context.Context, token string) (*models.User, error)
	DeleteSession(ctx context.Context, token string) error
}

// ProfileServiceInterface defines the contract for profile operations.
type ProfileServiceInterface interface {
	Upsert(ctx context.Context, userID uuid.UUID, params models.UpsertProfileParams) (*models.Profile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	ListExcept(ctx context.Context, userID uuid.UUID) ([]models.Profile, error)
	SetOnline(ctx context.Context, userID uuid.UUID, online bool) error
}

// InterestServiceInterface defines the contract for interest operations.
type InterestServiceInterface interface {
	ListCatalog(ctx context.Context) ([]models.Interest, error)
	SetForUser(ctx context.Context, userID uuid.UUID, interestIDs []uuid.UUID) error
	GetForUser(ctx context.Context, userID uuid.UUID) ([]string, error)
	ListMemberships(ctx context.Context) ([]models.InterestMembership, error)
}

// FriendServiceInterface defines the contract for friendship operations.
type FriendServiceInterface interface {
	SendRequest(ctx context.Context, requesterID, addresseeID uuid.UUID) (*models.Friendship, error)
	AcceptRequest(ctx context.Context, userID, requesterID uuid.UUID) (*models.Friendship, error)
	RejectRequest(ctx context.Context, userID, requesterID uuid.UUID) error
	CancelRequest(ctx context.Context, userID, addresseeID uuid.UUID) error
	RemoveFriend(ctx context.Context, userID, otherID uuid.UUID) error
	ListTouching(ctx context.Context, userID uuid.UUID) ([]models.Friendship, error)
	ListAccepted(ctx context.Context, userID uuid.UUID) ([]models.Friendship, error)
	CountFriends(ctx context.Context, userID uuid.UUID) (int, error)
	IsFriend(ctx context.Context, userID, otherID uuid.UUID) (bool, error)
}

// MessageServiceInterface defines the contract for chat message operations.
type MessageServiceInterface interface {
	Send(ctx context.Context, senderID, receiverID uuid.UUID, content string) (*models.Message, error)
	ListConversation(ctx context.Context, userID, peerID uuid.UUID) ([]models.Message, error)
	ListTouching(ctx context.Context, userID uuid.UUID) ([]models.Message, error)
	MarkRead(ctx context.Context, receiverID, messageID uuid.UUID) error
	MarkConversationRead(ctx context.Context, userID, peerID uuid.UUID) error
}

// InvitationServiceInterface defines the contract for activity invitations.
type InvitationServiceInterface interface {
	SendBatch(ctx context.Context, senderID uuid.UUID, receiverIDs []uuid.UUID, activityTitle, activityIcon string) ([]models.ActivityInvitation, error)
	ListForReceiver(ctx context.Context, receiverID uuid.UUID) ([]models.InvitationWithSender, error)
	MarkRead(ctx context.Context, receiverID, invitationID uuid.UUID) error
	MarkAllRead(ctx context.Context, receiverID uuid.UUID) error
	UnreadCount(ctx context.Context, receiverID uuid.UUID) (int, error)
}

// ActivityServiceInterface defines the contract for the activity catalog.
type ActivityServiceInterface interface {
	GetAll(ctx context.Context) ([]models.Activity, error)
	GetByCategory(ctx context.Context, category string) ([]models.Activity, error)
	GetCategories(ctx context.Context) ([]string, error)
	SuggestForUsers(ctx context.Context, userID, friendID uuid.UUID) ([]models.Activity, error)
}
