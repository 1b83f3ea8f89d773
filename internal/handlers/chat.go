package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/vennapp/venner/internal/models"
	"github.com/vennapp/venner/internal/services"
	"github.com/vennapp/venner/internal/views"
)

type ChatHandler struct {
	registry *views.Registry
	friends  services.FriendServiceInterface
}

func NewChatHandler(registry *views.Registry, friends services.FriendServiceInterface) *ChatHandler {
	return &ChatHandler{registry: registry, friends: friends}
}

type ChatListResponse struct {
	Chats       []views.ChatPreview `json:"chats"`
	TotalUnread int                 `json:"total_unread"`
}

// List returns one preview per accepted friend, most recent activity first.
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	chats := h.registry.Get(user.ID).Chats()
	if !chats.Loaded() {
		if err := chats.Load(r.Context()); err != nil {
			log.Printf("Error loading chat previews: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
	}

	writeJSON(w, http.StatusOK, ChatListResponse{
		Chats:       chats.Previews(),
		TotalUnread: chats.TotalUnread(),
	})
}

type ConversationResponse struct {
	PeerID uuid.UUID            `json:"peer_id"`
	Groups []views.MessageGroup `json:"groups"`
}

// Open loads the conversation with the peer in the path, marking the peer's
// messages read as a side effect.
func (h *ChatHandler) Open(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	peerID, err := uuid.Parse(r.PathValue("peerID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid peer id")
		return
	}

	// Conversations only exist between accepted friends.
	isFriend, err := h.friends.IsFriend(r.Context(), user.ID, peerID)
	if err != nil {
		log.Printf("Error checking friendship: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !isFriend {
		writeError(w, http.StatusForbidden, "Not friends with this user")
		return
	}

	conv, err := h.registry.Get(user.ID).OpenConversation(r.Context(), peerID)
	if err != nil {
		log.Printf("Error opening conversation: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, ConversationResponse{PeerID: peerID, Groups: conv.Groups()})
}

// Close drops the live conversation with the peer, the screen-teardown call.
func (h *ChatHandler) Close(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	peerID, err := uuid.Parse(r.PathValue("peerID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid peer id")
		return
	}

	h.registry.Get(user.ID).CloseConversation(peerID)
	w.WriteHeader(http.StatusNoContent)
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

type SendMessageResponse struct {
	Message *models.Message `json:"message"`
}

// Send writes one message into the open conversation. Validation failures
// are 400s and write nothing; write failures leave the caller's draft valid
// for a retry.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	peerID, err := uuid.Parse(r.PathValue("peerID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid peer id")
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session := h.registry.Get(user.ID)
	conv := session.Conversation(peerID)
	if conv == nil {
		if conv, err = session.OpenConversation(r.Context(), peerID); err != nil {
			log.Printf("Error opening conversation: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
	}

	msg, err := conv.Send(r.Context(), req.Content)
	switch {
	case errors.Is(err, services.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "Message cannot be empty")
	case errors.Is(err, services.ErrMessageTooLong):
		writeError(w, http.StatusBadRequest, "Message is too long")
	case err != nil:
		log.Printf("Error sending message: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	default:
		writeJSON(w, http.StatusCreated, SendMessageResponse{Message: msg})
	}
}
