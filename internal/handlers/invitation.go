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

type InvitationHandler struct {
	registry *views.Registry
}

func NewInvitationHandler(registry *views.Registry) *InvitationHandler {
	return &InvitationHandler{registry: registry}
}

type InvitationListResponse struct {
	Invitations []models.InvitationWithSender `json:"invitations"`
	UnreadCount int                           `json:"unread_count"`
}

// List returns the user's invitation inbox, newest first.
func (h *InvitationHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	feed := h.registry.Get(user.ID).Invitations()
	if !feed.Loaded() {
		if err := feed.Load(r.Context()); err != nil {
			log.Printf("Error loading invitations: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
	}

	writeJSON(w, http.StatusOK, InvitationListResponse{
		Invitations: feed.Invitations(),
		UnreadCount: feed.UnreadCount(),
	})
}

type SendInvitationsRequest struct {
	ReceiverIDs   []uuid.UUID `json:"receiver_ids"`
	ActivityTitle string      `json:"activity_title"`
	ActivityIcon  string      `json:"activity_icon"`
}

type SendInvitationsResponse struct {
	Invitations []models.ActivityInvitation `json:"invitations"`
}

// Send creates one invitation per receiver. The batch lands whole or fails
// whole.
func (h *InvitationHandler) Send(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req SendInvitationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ActivityTitle == "" {
		writeError(w, http.StatusBadRequest, "activity_title is required")
		return
	}

	invitations, err := h.registry.Get(user.ID).Invitations().Send(r.Context(), req.ReceiverIDs, req.ActivityTitle, req.ActivityIcon)
	if errors.Is(err, services.ErrNoReceivers) {
		writeError(w, http.StatusBadRequest, "At least one receiver is required")
		return
	}
	if err != nil {
		log.Printf("Error sending invitations: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to send invitations")
		return
	}

	writeJSON(w, http.StatusCreated, SendInvitationsResponse{Invitations: invitations})
}

// MarkRead flips one invitation read, optimistically.
func (h *InvitationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	invitationID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid invitation id")
		return
	}

	h.registry.Get(user.ID).Invitations().MarkRead(r.Context(), invitationID)
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllRead marks the whole inbox read.
func (h *InvitationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	h.registry.Get(user.ID).Invitations().MarkAllRead(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
