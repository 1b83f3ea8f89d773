package views

import (
	"context"
	"fmt"
	"sort"
	gosync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/vennapp/venner/internal/realtime"
	"github.com/vennapp/venner/internal/services"
)

// EmptyChatPlaceholder is shown as the last-message text for a friend the
// user has never exchanged messages with.
const EmptyChatPlaceholder = "Start en samtale"

// ChatPreview summarizes the conversation state with one accepted friend.
type ChatPreview struct {
	FriendID        uuid.UUID  `json:"friend_id"`
	Name            string     `json:"name"`
	AvatarURL       *string    `json:"avatar_url,omitempty"`
	IsOnline        bool       `json:"is_online"`
	LastMessage     string     `json:"last_message"`
	LastMessageTime *time.Time `json:"last_message_time,omitempty"`
	TimeLabel       string     `json:"time_label"`
	UnreadCount     int        `json:"unread_count"`
}

// ChatList is one user's conversation overview: one preview per accepted
// friend, rebuilt wholesale on every message-table change event.
type ChatList struct {
	selfID   uuid.UUID
	friends  services.FriendServiceInterface
	profiles services.ProfileServiceInterface
	messages services.MessageServiceInterface
	now      func() time.Time

	mu         gosync.Mutex
	generation uint64
	previews   []ChatPreview
	loaded     bool
}

func NewChatList(selfID uuid.UUID, friends services.FriendServiceInterface, profiles services.ProfileServiceInterface, messages services.MessageServiceInterface) *ChatList {
	return &ChatList{
		selfID:   selfID,
		friends:  friends,
		profiles: profiles,
		messages: messages,
		now:      time.Now,
	}
}

// Load rebuilds every preview: accepted edges give the friend set, one
// profile fetch covers identity and presence, and one message fetch covers
// last-message and unread counting for all pairs.
func (c *ChatList) Load(ctx context.Context) error {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	edges, err := c.friends.ListAccepted(ctx, c.selfID)
	if err != nil {
		return fmt.Errorf("loading accepted friendships: %w", err)
	}

	friendIDs := make(map[uuid.UUID]struct{}, len(edges))
	for _, edge := range edges {
		friendIDs[edge.Other(c.selfID)] = struct{}{}
	}

	profiles, err := c.profiles.ListExcept(ctx, c.selfID)
	if err != nil {
		return fmt.Errorf("loading friend profiles: %w", err)
	}
	// Newest first, so the first message found per pair is the latest.
	msgs, err := c.messages.ListTouching(ctx, c.selfID)
	if err != nil {
		return fmt.Errorf("loading messages: %w", err)
	}

	now := c.now()
	previews := make([]ChatPreview, 0, len(friendIDs))
	for _, p := range profiles {
		if _, ok := friendIDs[p.UserID]; !ok {
			continue
		}

		preview := ChatPreview{
			FriendID:    p.UserID,
			Name:        p.Name,
			AvatarURL:   p.AvatarURL,
			IsOnline:    p.IsOnline,
			LastMessage: EmptyChatPlaceholder,
		}
		for i := range msgs {
			m := msgs[i]
			if !m.Between(c.selfID, p.UserID) {
				continue
			}
			if preview.LastMessageTime == nil {
				preview.LastMessage = m.Content
				t := m.CreatedAt
				preview.LastMessageTime = &t
				preview.TimeLabel = RelativeLabel(now, t)
			}
			if m.ReceiverID == c.selfID && !m.IsRead {
				preview.UnreadCount++
			}
		}
		previews = append(previews, preview)
	}

	// Most recent activity first; friends without messages trail, by name.
	sort.SliceStable(previews, func(i, j int) bool {
		a, b := previews[i].LastMessageTime, previews[j].LastMessageTime
		switch {
		case a != nil && b != nil:
			return a.After(*b)
		case a != nil:
			return true
		case b != nil:
			return false
		default:
			return previews[i].Name < previews[j].Name
		}
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return nil
	}
	c.previews = previews
	c.loaded = true
	return nil
}

// Previews returns the current list. Callers must not mutate it.
func (c *ChatList) Previews() []ChatPreview {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ChatPreview, len(c.previews))
	copy(out, c.previews)
	return out
}

// Loaded reports whether at least one Load has completed.
func (c *ChatList) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// TotalUnread sums unread counts across previews.
func (c *ChatList) TotalUnread() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, p := range c.previews {
		total += p.UnreadCount
	}
	return total
}

// HandleEvent re-aggregates on any message-table change. The trigger is
// deliberately coarse: no per-row patching.
func (c *ChatList) HandleEvent(ctx context.Context, evt realtime.Event) error {
	if evt.Table != realtime.TableMessages || !c.Loaded() {
		return nil
	}
	return c.Load(ctx)
}
