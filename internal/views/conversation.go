package views

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/vennapp/venner/internal/models"
	"github.com/vennapp/venner/internal/realtime"
	"github.com/vennapp/venner/internal/services"
)

// MessageGroup is one calendar date's worth of messages, oldest first.
type MessageGroup struct {
	Label    string           `json:"label"`
	Messages []models.Message `json:"messages"`
}

// Conversation is the live message list between the user and one peer.
// Opening it marks the peer's messages read; arriving peer messages are
// marked read immediately.
type Conversation struct {
	selfID   uuid.UUID
	peerID   uuid.UUID
	messages services.MessageServiceInterface
	now      func() time.Time

	mu     gosync.Mutex
	loaded bool
	list   []models.Message
	seen   map[uuid.UUID]struct{}
}

func NewConversation(selfID, peerID uuid.UUID, messages services.MessageServiceInterface) *Conversation {
	return &Conversation{
		selfID:   selfID,
		peerID:   peerID,
		messages: messages,
		now:      time.Now,
		seen:     make(map[uuid.UUID]struct{}),
	}
}

// PeerID returns the user on the other side of the conversation.
func (c *Conversation) PeerID() uuid.UUID {
	return c.peerID
}

// Load fetches the full history ascending and marks everything from the peer
// read, the side effect of opening the screen.
func (c *Conversation) Load(ctx context.Context) error {
	history, err := c.messages.ListConversation(ctx, c.selfID, c.peerID)
	if err != nil {
		return fmt.Errorf("loading conversation: %w", err)
	}
	if err := c.messages.MarkConversationRead(ctx, c.selfID, c.peerID); err != nil {
		return fmt.Errorf("marking conversation read: %w", err)
	}

	seen := make(map[uuid.UUID]struct{}, len(history))
	for _, m := range history {
		seen[m.ID] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.list = history
	c.seen = seen
	c.loaded = true
	return nil
}

// Loaded reports whether the history has been fetched.
func (c *Conversation) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Send validates and writes one message, then appends it locally. Validation
// errors mean nothing was written; write errors leave local state untouched
// so the caller can restore the draft.
func (c *Conversation) Send(ctx context.Context, content string) (*models.Message, error) {
	content, err := services.ValidateMessageContent(content)
	if err != nil {
		return nil, err
	}

	msg, err := c.messages.Send(ctx, c.selfID, c.peerID, content)
	if err != nil {
		return nil, err
	}

	c.append(*msg)
	return msg, nil
}

// Messages returns the history in creation order. Callers must not mutate it.
func (c *Conversation) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Message, len(c.list))
	copy(out, c.list)
	return out
}

// Groups returns the history bucketed by calendar date, groups in first-
// message order, labelled "I dag"/"I går"/absolute date.
func (c *Conversation) Groups() []MessageGroup {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	groups := []MessageGroup{}
	for _, m := range c.list {
		if n := len(groups); n > 0 && sameDay(groups[n-1].Messages[0].CreatedAt, m.CreatedAt) {
			groups[n-1].Messages = append(groups[n-1].Messages, m)
			continue
		}
		groups = append(groups, MessageGroup{
			Label:    DateLabel(now, m.CreatedAt),
			Messages: []models.Message{m},
		})
	}
	return groups
}

// HandleEvent appends inserts belonging to this pair. The sender's own insert
// races with its realtime echo, so appends are deduplicated by message id. A
// message from the peer is marked read on arrival since the screen is open.
func (c *Conversation) HandleEvent(ctx context.Context, evt realtime.Event) error {
	if evt.Table != realtime.TableMessages || evt.Op != realtime.OpInsert {
		return nil
	}
	var msg models.Message
	if err := evt.Decode(&msg); err != nil {
		return fmt.Errorf("decoding message event: %w", err)
	}
	if !msg.Between(c.selfID, c.peerID) {
		return nil
	}

	if !c.append(msg) {
		return nil
	}
	if msg.SenderID == c.peerID {
		if err := c.messages.MarkRead(ctx, c.selfID, msg.ID); err != nil {
			return fmt.Errorf("marking arrived message read: %w", err)
		}
		c.markReadLocal(msg.ID)
	}
	return nil
}

// append adds the message unless its id is already present. Reports whether
// the message was new.
func (c *Conversation) append(msg models.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.seen[msg.ID]; dup {
		return false
	}
	c.seen[msg.ID] = struct{}{}
	c.list = append(c.list, msg)
	return true
}

func (c *Conversation) markReadLocal(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.list {
		if c.list[i].ID == id {
			c.list[i].IsRead = true
			return
		}
	}
}
