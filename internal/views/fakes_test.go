package views

import (
	"context"
	"encoding/json"
	"sort"
	gosync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/vennapp/venner/internal/models"
	"github.com/vennapp/venner/internal/realtime"
	"github.com/vennapp/venner/internal/services"
)

// fakeStore is an in-memory stand-in for the services layer, shared by the
// view tests. Error injection per operation simulates write failures.
type fakeStore struct {
	mu gosync.Mutex

	profiles    []models.Profile
	edges       []models.Friendship
	memberships []models.InterestMembership
	messages    []models.Message
	invitations []models.ActivityInvitation

	failSendRequest    error
	failAccept         error
	failSendMessage    error
	failMarkAllRead    error
	failMarkInvitation error

	loadCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

func (f *fakeStore) addProfile(userID uuid.UUID, name string, online bool) models.Profile {
	p := models.Profile{
		ID:       uuid.New(),
		UserID:   userID,
		Name:     name,
		IsOnline: online,
	}
	f.mu.Lock()
	f.profiles = append(f.profiles, p)
	f.mu.Unlock()
	return p
}

func (f *fakeStore) addEdge(requester, addressee uuid.UUID, status models.FriendshipStatus) models.Friendship {
	e := models.Friendship{
		ID:          uuid.New(),
		RequesterID: requester,
		AddresseeID: addressee,
		Status:      status,
		CreatedAt:   time.Now(),
	}
	f.mu.Lock()
	f.edges = append(f.edges, e)
	f.mu.Unlock()
	return e
}

func (f *fakeStore) addMessage(sender, receiver uuid.UUID, content string, read bool, at time.Time) models.Message {
	m := models.Message{
		ID:         uuid.New(),
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    content,
		IsRead:     read,
		CreatedAt:  at,
	}
	f.mu.Lock()
	f.messages = append(f.messages, m)
	f.mu.Unlock()
	return m
}

// ProfileServiceInterface

func (f *fakeStore) Upsert(ctx context.Context, userID uuid.UUID, params models.UpsertProfileParams) (*models.Profile, error) {
	return nil, nil
}

func (f *fakeStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.UserID == userID {
			out := p
			return &out, nil
		}
	}
	return nil, services.ErrProfileNotFound
}

func (f *fakeStore) ListExcept(ctx context.Context, userID uuid.UUID) ([]models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadCalls++
	out := []models.Profile{}
	for _, p := range f.profiles {
		if p.UserID != userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) SetOnline(ctx context.Context, userID uuid.UUID, online bool) error {
	return nil
}

// InterestServiceInterface

func (f *fakeStore) ListCatalog(ctx context.Context) ([]models.Interest, error) {
	return []models.Interest{}, nil
}

func (f *fakeStore) SetForUser(ctx context.Context, userID uuid.UUID, interestIDs []uuid.UUID) error {
	return nil
}

func (f *fakeStore) GetForUser(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return []string{}, nil
}

func (f *fakeStore) ListMemberships(ctx context.Context) ([]models.InterestMembership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.InterestMembership, len(f.memberships))
	copy(out, f.memberships)
	return out, nil
}

// FriendServiceInterface

func (f *fakeStore) SendRequest(ctx context.Context, requesterID, addresseeID uuid.UUID) (*models.Friendship, error) {
	if f.failSendRequest != nil {
		return nil, f.failSendRequest
	}
	if requesterID == addresseeID {
		return nil, services.ErrCannotFriendSelf
	}
	f.mu.Lock()
	for _, e := range f.edges {
		if e.Connects(requesterID, addresseeID) {
			f.mu.Unlock()
			return nil, services.ErrFriendshipExists
		}
	}
	f.mu.Unlock()
	e := f.addEdge(requesterID, addresseeID, models.FriendshipStatusPending)
	return &e, nil
}

func (f *fakeStore) AcceptRequest(ctx context.Context, userID, requesterID uuid.UUID) (*models.Friendship, error) {
	if f.failAccept != nil {
		return nil, f.failAccept
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.edges {
		e := &f.edges[i]
		if e.RequesterID == requesterID && e.AddresseeID == userID && e.Status == models.FriendshipStatusPending {
			e.Status = models.FriendshipStatusAccepted
			out := *e
			return &out, nil
		}
	}
	return nil, services.ErrFriendshipNotFound
}

func (f *fakeStore) RejectRequest(ctx context.Context, userID, requesterID uuid.UUID) error {
	return f.deleteEdge(requesterID, userID, models.FriendshipStatusPending)
}

func (f *fakeStore) CancelRequest(ctx context.Context, userID, addresseeID uuid.UUID) error {
	return f.deleteEdge(userID, addresseeID, models.FriendshipStatusPending)
}

func (f *fakeStore) RemoveFriend(ctx context.Context, userID, otherID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.edges {
		if e.Connects(userID, otherID) && e.Status == models.FriendshipStatusAccepted {
			f.edges = append(f.edges[:i], f.edges[i+1:]...)
			return nil
		}
	}
	return services.ErrFriendshipNotFound
}

func (f *fakeStore) deleteEdge(requester, addressee uuid.UUID, status models.FriendshipStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.edges {
		if e.RequesterID == requester && e.AddresseeID == addressee && e.Status == status {
			f.edges = append(f.edges[:i], f.edges[i+1:]...)
			return nil
		}
	}
	return services.ErrFriendshipNotFound
}

func (f *fakeStore) ListTouching(ctx context.Context, userID uuid.UUID) ([]models.Friendship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Friendship{}
	for _, e := range f.edges {
		if e.Touches(userID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAccepted(ctx context.Context, userID uuid.UUID) ([]models.Friendship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Friendship{}
	for _, e := range f.edges {
		if e.Touches(userID) && e.Status == models.FriendshipStatusAccepted {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) CountFriends(ctx context.Context, userID uuid.UUID) (int, error) {
	accepted, _ := f.ListAccepted(ctx, userID)
	return len(accepted), nil
}

func (f *fakeStore) IsFriend(ctx context.Context, userID, otherID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.edges {
		if e.Connects(userID, otherID) && e.Status == models.FriendshipStatusAccepted {
			return true, nil
		}
	}
	return false, nil
}

// MessageServiceInterface

func (f *fakeStore) Send(ctx context.Context, senderID, receiverID uuid.UUID, content string) (*models.Message, error) {
	if f.failSendMessage != nil {
		return nil, f.failSendMessage
	}
	m := f.addMessage(senderID, receiverID, content, false, time.Now())
	return &m, nil
}

func (f *fakeStore) ListConversation(ctx context.Context, userID, peerID uuid.UUID) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Message{}
	for _, m := range f.messages {
		if m.Between(userID, peerID) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) listTouchingMessages(userID uuid.UUID) []models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Message{}
	for _, m := range f.messages {
		if m.SenderID == userID || m.ReceiverID == userID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeStore) MarkRead(ctx context.Context, receiverID, messageID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.messages {
		if f.messages[i].ID == messageID && f.messages[i].ReceiverID == receiverID {
			f.messages[i].IsRead = true
		}
	}
	return nil
}

func (f *fakeStore) MarkConversationRead(ctx context.Context, userID, peerID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.messages {
		if f.messages[i].SenderID == peerID && f.messages[i].ReceiverID == userID {
			f.messages[i].IsRead = true
		}
	}
	return nil
}

// InvitationServiceInterface

func (f *fakeStore) SendBatch(ctx context.Context, senderID uuid.UUID, receiverIDs []uuid.UUID, activityTitle, activityIcon string) ([]models.ActivityInvitation, error) {
	if len(receiverIDs) == 0 {
		return nil, services.ErrNoReceivers
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.ActivityInvitation{}
	for _, receiverID := range receiverIDs {
		inv := models.ActivityInvitation{
			ID:            uuid.New(),
			SenderID:      senderID,
			ReceiverID:    receiverID,
			ActivityTitle: activityTitle,
			ActivityIcon:  activityIcon,
			CreatedAt:     time.Now(),
		}
		f.invitations = append(f.invitations, inv)
		out = append(out, inv)
	}
	return out, nil
}

func (f *fakeStore) ListForReceiver(ctx context.Context, receiverID uuid.UUID) ([]models.InvitationWithSender, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.InvitationWithSender{}
	for _, inv := range f.invitations {
		if inv.ReceiverID != receiverID {
			continue
		}
		enriched := models.InvitationWithSender{ActivityInvitation: inv, SenderName: "Ukendt"}
		for _, p := range f.profiles {
			if p.UserID == inv.SenderID {
				enriched.SenderName = p.Name
				enriched.SenderAvatar = p.AvatarURL
			}
		}
		out = append(out, enriched)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) MarkAllRead(ctx context.Context, receiverID uuid.UUID) error {
	if f.failMarkAllRead != nil {
		return f.failMarkAllRead
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.invitations {
		if f.invitations[i].ReceiverID == receiverID {
			f.invitations[i].IsRead = true
		}
	}
	return nil
}

func (f *fakeStore) UnreadCount(ctx context.Context, receiverID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, inv := range f.invitations {
		if inv.ReceiverID == receiverID && !inv.IsRead {
			count++
		}
	}
	return count, nil
}

// messageLister adapts fakeStore's descending message listing; split out so
// the MarkRead overload for invitations does not clash with messages.
type messageStore struct {
	*fakeStore
}

func (m messageStore) ListTouching(ctx context.Context, userID uuid.UUID) ([]models.Message, error) {
	return m.listTouchingMessages(userID), nil
}

func (m messageStore) MarkRead(ctx context.Context, receiverID, messageID uuid.UUID) error {
	return m.fakeStore.MarkRead(ctx, receiverID, messageID)
}

// invitationStore narrows fakeStore to the invitation interface, resolving
// the MarkRead name clash with messages.
type invitationStore struct {
	*fakeStore
}

func (s invitationStore) MarkRead(ctx context.Context, receiverID, invitationID uuid.UUID) error {
	if s.failMarkInvitation != nil {
		return s.failMarkInvitation
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.invitations {
		if s.invitations[i].ID == invitationID && s.invitations[i].ReceiverID == receiverID {
			s.invitations[i].IsRead = true
		}
	}
	return nil
}

// recordingSink captures notifications raised by the invitation feed.
type recordingSink struct {
	mu            gosync.Mutex
	notifications []realtime.Notification
}

func (r *recordingSink) Notify(userID uuid.UUID, n realtime.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notifications)
}

func insertEvent(table string, row any) realtime.Event {
	payload, _ := json.Marshal(row)
	return realtime.Event{Table: table, Op: realtime.OpInsert, Row: payload}
}
