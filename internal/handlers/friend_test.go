package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/vennapp/venner/internal/models"
	"github.com/vennapp/venner/internal/testutil"
)

type fakeFriendService struct {
	count    int
	countErr error
	isFriend bool
	friendOf []uuid.UUID
}

func (f *fakeFriendService) SendRequest(ctx context.Context, requesterID, addresseeID uuid.UUID) (*models.Friendship, error) {
	return nil, nil
}

func (f *fakeFriendService) AcceptRequest(ctx context.Context, userID, requesterID uuid.UUID) (*models.Friendship, error) {
	return nil, nil
}

func (f *fakeFriendService) RejectRequest(ctx context.Context, userID, requesterID uuid.UUID) error {
	return nil
}

func (f *fakeFriendService) CancelRequest(ctx context.Context, userID, addresseeID uuid.UUID) error {
	return nil
}

func (f *fakeFriendService) RemoveFriend(ctx context.Context, userID, otherID uuid.UUID) error {
	return nil
}

func (f *fakeFriendService) ListTouching(ctx context.Context, userID uuid.UUID) ([]models.Friendship, error) {
	return nil, nil
}

func (f *fakeFriendService) ListAccepted(ctx context.Context, userID uuid.UUID) ([]models.Friendship, error) {
	return nil, nil
}

func (f *fakeFriendService) CountFriends(ctx context.Context, userID uuid.UUID) (int, error) {
	return f.count, f.countErr
}

func (f *fakeFriendService) IsFriend(ctx context.Context, userID, otherID uuid.UUID) (bool, error) {
	f.friendOf = append(f.friendOf, otherID)
	return f.isFriend, nil
}

func authedRequest(method, path string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	user := &models.User{ID: uuid.New(), Email: "anna@test.dk"}
	return req.WithContext(SetUserInContext(req.Context(), user))
}

func TestFriendCount(t *testing.T) {
	h := NewFriendHandler(nil, &fakeFriendService{count: 3})

	rec := httptest.NewRecorder()
	h.Count(rec, authedRequest("GET", "/api/friends/count"))

	testutil.AssertStatus(t, rec, http.StatusOK)
	var resp FriendCountResponse
	testutil.DecodeJSON(t, rec, &resp)
	if resp.Count != 3 {
		t.Errorf("Count = %d, want 3", resp.Count)
	}
}

func TestFriendCount_ServiceError(t *testing.T) {
	h := NewFriendHandler(nil, &fakeFriendService{countErr: errors.New("db down")})

	rec := httptest.NewRecorder()
	h.Count(rec, authedRequest("GET", "/api/friends/count"))

	testutil.AssertStatus(t, rec, http.StatusInternalServerError)
}

func TestChatOpen_RejectsNonFriends(t *testing.T) {
	friends := &fakeFriendService{isFriend: false}
	h := NewChatHandler(nil, friends)

	peer := uuid.New()
	req := authedRequest("GET", "/api/chats/"+peer.String())
	req.SetPathValue("peerID", peer.String())
	rec := httptest.NewRecorder()
	h.Open(rec, req)

	testutil.AssertStatus(t, rec, http.StatusForbidden)
	if len(friends.friendOf) != 1 || friends.friendOf[0] != peer {
		t.Errorf("expected one friendship check against the peer, got %v", friends.friendOf)
	}
}

func TestChatOpen_InvalidPeerID(t *testing.T) {
	h := NewChatHandler(nil, &fakeFriendService{})

	req := authedRequest("GET", "/api/chats/not-a-uuid")
	req.SetPathValue("peerID", "not-a-uuid")
	rec := httptest.NewRecorder()
	h.Open(rec, req)

	testutil.AssertStatus(t, rec, http.StatusBadRequest)
}
