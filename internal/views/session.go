package views

import (
	"context"
	gosync "sync"

	"github.com/google/uuid"

	"github.com/vennapp/venner/internal/logging"
	"github.com/vennapp/venner/internal/realtime"
	"github.com/vennapp/venner/internal/services"
)

// Services bundles the store dependencies the views are built from.
type Services struct {
	Profiles    services.ProfileServiceInterface
	Friends     services.FriendServiceInterface
	Interests   services.InterestServiceInterface
	Messages    services.MessageServiceInterface
	Invitations services.InvitationServiceInterface
}

// Session holds one user's live views and routes change events to them.
// Views load lazily: handlers call Load on first use, and Watch keeps them
// fresh afterwards.
type Session struct {
	userID uuid.UUID
	svc    Services
	logger *logging.Logger

	directory *Directory
	chats     *ChatList
	feed      *InvitationFeed

	mu            gosync.Mutex
	conversations map[uuid.UUID]*Conversation
}

func NewSession(userID uuid.UUID, svc Services, notify NotificationSink, logger *logging.Logger) *Session {
	if logger == nil {
		logger = logging.Default
	}
	return &Session{
		userID:        userID,
		svc:           svc,
		logger:        logger,
		directory:     NewDirectory(userID, svc.Profiles, svc.Friends, svc.Interests),
		chats:         NewChatList(userID, svc.Friends, svc.Profiles, svc.Messages),
		feed:          NewInvitationFeed(userID, svc.Invitations, svc.Profiles, notify, logger),
		conversations: make(map[uuid.UUID]*Conversation),
	}
}

func (s *Session) UserID() uuid.UUID          { return s.userID }
func (s *Session) Directory() *Directory      { return s.directory }
func (s *Session) Chats() *ChatList           { return s.chats }
func (s *Session) Invitations() *InvitationFeed { return s.feed }

// OpenConversation returns the live conversation with peerID, loading it on
// first open. Reopening an already open conversation reloads it, which also
// re-marks the peer's messages read.
func (s *Session) OpenConversation(ctx context.Context, peerID uuid.UUID) (*Conversation, error) {
	s.mu.Lock()
	conv, ok := s.conversations[peerID]
	if !ok {
		conv = NewConversation(s.userID, peerID, s.svc.Messages)
		s.conversations[peerID] = conv
	}
	s.mu.Unlock()

	if err := conv.Load(ctx); err != nil {
		return nil, err
	}
	return conv, nil
}

// Conversation returns the open conversation with peerID, or nil.
func (s *Session) Conversation(peerID uuid.UUID) *Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversations[peerID]
}

// CloseConversation drops the live conversation with peerID.
func (s *Session) CloseConversation(peerID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, peerID)
}

// Watch subscribes to the change bus and dispatches events to the session's
// views until ctx is cancelled. Subscriptions are released on return.
func (s *Session) Watch(ctx context.Context, bus *realtime.Bus) {
	profileSub := bus.Subscribe(realtime.TableProfiles)
	defer profileSub.Close()
	friendshipSub := bus.Subscribe(realtime.TableFriendships)
	defer friendshipSub.Close()
	messageSub := bus.Subscribe(realtime.TableMessages)
	defer messageSub.Close()
	invitationSub := bus.Subscribe(realtime.TableInvitations)
	defer invitationSub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-profileSub.Events():
			s.dispatch(ctx, evt)
		case evt := <-friendshipSub.Events():
			s.dispatch(ctx, evt)
		case evt := <-messageSub.Events():
			s.dispatch(ctx, evt)
		case evt := <-invitationSub.Events():
			s.dispatch(ctx, evt)
		}
	}
}

func (s *Session) dispatch(ctx context.Context, evt realtime.Event) {
	handlers := []func(context.Context, realtime.Event) error{
		s.directory.HandleEvent,
		s.chats.HandleEvent,
		s.feed.HandleEvent,
	}
	s.mu.Lock()
	for _, conv := range s.conversations {
		handlers = append(handlers, conv.HandleEvent)
	}
	s.mu.Unlock()

	for _, handle := range handlers {
		if err := handle(ctx, evt); err != nil {
			s.logger.Warn("View failed to apply change event", map[string]interface{}{
				"user_id": s.userID.String(),
				"table":   evt.Table,
				"op":      string(evt.Op),
				"error":   err.Error(),
			})
		}
	}
}
