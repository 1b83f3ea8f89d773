package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/vennapp/venner/internal/services"
	"github.com/vennapp/venner/internal/views"
)

// FriendHandler mutates friendship edges through the user's directory view,
// so every successful mutation is immediately visible in a follow-up read.
type FriendHandler struct {
	registry *views.Registry
	friends  services.FriendServiceInterface
}

func NewFriendHandler(registry *views.Registry, friends services.FriendServiceInterface) *FriendHandler {
	return &FriendHandler{registry: registry, friends: friends}
}

type FriendCountResponse struct {
	Count int `json:"count"`
}

// Count returns the user's accepted-friend count, the profile badge number.
func (h *FriendHandler) Count(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	count, err := h.friends.CountFriends(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error counting friends: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, FriendCountResponse{Count: count})
}

type FriendActionRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

type FriendActionResponse struct {
	Message string `json:"message"`
}

func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "Friend request sent", func(d *views.Directory, target uuid.UUID) error {
		return d.SendFriendRequest(r.Context(), target)
	})
}

func (h *FriendHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "Friend request accepted", func(d *views.Directory, target uuid.UUID) error {
		return d.AcceptFriendRequest(r.Context(), target)
	})
}

func (h *FriendHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "Friend request rejected", func(d *views.Directory, target uuid.UUID) error {
		return d.RejectFriendRequest(r.Context(), target)
	})
}

func (h *FriendHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "Friend request cancelled", func(d *views.Directory, target uuid.UUID) error {
		return d.CancelFriendRequest(r.Context(), target)
	})
}

func (h *FriendHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "Friend removed", func(d *views.Directory, target uuid.UUID) error {
		return d.RemoveFriend(r.Context(), target)
	})
}

func (h *FriendHandler) mutate(w http.ResponseWriter, r *http.Request, message string, action func(*views.Directory, uuid.UUID) error) {
	user := GetUserFromContext(r.Context())

	var req FriendActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	err := action(h.registry.Get(user.ID).Directory(), req.UserID)
	switch {
	case errors.Is(err, services.ErrCannotFriendSelf):
		writeError(w, http.StatusBadRequest, "Cannot send friend request to yourself")
	case errors.Is(err, services.ErrFriendshipExists):
		writeError(w, http.StatusConflict, "A friendship or pending request already exists")
	case errors.Is(err, services.ErrFriendshipNotFound):
		writeError(w, http.StatusNotFound, "Friendship not found")
	case err != nil:
		log.Printf("Error mutating friendship: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	default:
		writeJSON(w, http.StatusOK, FriendActionResponse{Message: message})
	}
}
