package handlers

import (
	"log"
	"net/http"

	"github.com/vennapp/venner/internal/realtime"
	"github.com/vennapp/venner/internal/views"
)

// WSHandler upgrades authenticated requests to the realtime push socket.
type WSHandler struct {
	hub      *realtime.Hub
	registry *views.Registry
}

func NewWSHandler(hub *realtime.Hub, registry *views.Registry) *WSHandler {
	return &WSHandler{hub: hub, registry: registry}
}

// Connect upgrades the connection. The session is warmed here so change
// events start flowing before the first REST read; connection-count presence
// is tracked by the hub's hooks.
func (h *WSHandler) Connect(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	h.registry.Get(user.ID)

	if err := h.hub.ServeWS(w, r, user.ID); err != nil {
		// Upgrade failures have already written a response.
		log.Printf("Error upgrading websocket: %v", err)
	}
}
