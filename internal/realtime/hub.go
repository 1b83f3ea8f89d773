package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/vennapp/venner/internal/logging"
)

// ServerMessage is the envelope pushed to websocket clients.
type ServerMessage struct {
	Type         string        `json:"type"` // "change" or "notification"
	Event        *Event        `json:"event,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
}

// Notification is a transient, best-effort user-facing notice.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon,omitempty"`
}

// Hub tracks websocket connections per user and pushes server messages to
// them. Presence hooks fire when a user's first connection arrives and when
// their last one drops.
type Hub struct {
	logger *logging.Logger

	register   chan *Client
	unregister chan *Client

	mu    sync.RWMutex
	users map[uuid.UUID]map[*Client]struct{}

	onFirstConnect   func(userID uuid.UUID)
	onLastDisconnect func(userID uuid.UUID)
}

func NewHub(logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default
	}
	return &Hub{
		logger:     logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		users:      make(map[uuid.UUID]map[*Client]struct{}),
	}
}

// SetPresenceHooks installs callbacks for a user's first connection and last
// disconnection. Must be called before Run.
func (h *Hub) SetPresenceHooks(onFirst, onLast func(userID uuid.UUID)) {
	h.onFirstConnect = onFirst
	h.onLastDisconnect = onLast
}

// Run processes connection churn until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.mu.Lock()
			first := len(h.users[client.userID]) == 0
			if h.users[client.userID] == nil {
				h.users[client.userID] = make(map[*Client]struct{})
			}
			h.users[client.userID][client] = struct{}{}
			h.mu.Unlock()
			if first && h.onFirstConnect != nil {
				h.onFirstConnect(client.userID)
			}
		case client := <-h.unregister:
			h.mu.Lock()
			conns, ok := h.users[client.userID]
			if ok {
				if _, present := conns[client]; present {
					delete(conns, client)
					close(client.send)
				}
				if len(conns) == 0 {
					delete(h.users, client.userID)
				}
			}
			last := len(h.users[client.userID]) == 0
			h.mu.Unlock()
			if ok && last && h.onLastDisconnect != nil {
				h.onLastDisconnect(client.userID)
			}
		}
	}
}

// SendToUser delivers a message to every open connection of one user.
func (h *Hub) SendToUser(userID uuid.UUID, msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal server message", map[string]interface{}{"error": err.Error()})
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.users[userID] {
		select {
		case client.send <- data:
		default:
			// Write buffer full; the connection is stalled and will be
			// reaped by its write pump timeout.
		}
	}
}

// Broadcast delivers a message to every connected client.
func (h *Hub) Broadcast(msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal server message", map[string]interface{}{"error": err.Error()})
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conns := range h.users {
		for client := range conns {
			select {
			case client.send <- data:
			default:
			}
		}
	}
}

// Notify pushes a transient notification to the user's connections.
func (h *Hub) Notify(userID uuid.UUID, n Notification) {
	h.SendToUser(userID, ServerMessage{Type: "notification", Notification: &n})
}

// IsOnline reports whether the user has at least one open connection.
func (h *Hub) IsOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID]) > 0
}
