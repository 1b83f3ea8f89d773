package views

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vennapp/venner/internal/realtime"
	"github.com/vennapp/venner/internal/services"
)

func TestConversation_LoadMarksPeerMessagesRead(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()

	self := uuid.New()
	peer := uuid.New()
	store.addMessage(peer, self, "hej", false, time.Now().Add(-time.Minute))
	store.addMessage(self, peer, "hej selv", false, time.Now())

	conv := NewConversation(self, peer, messageStore{store})
	if err := conv.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(conv.Messages()) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(conv.Messages()))
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, m := range store.messages {
		if m.ReceiverID == self && !m.IsRead {
			t.Error("opening the conversation must mark the peer's messages read")
		}
		if m.SenderID == self && m.IsRead {
			t.Error("opening must not touch the user's own outgoing messages")
		}
	}
}

func TestConversation_SendValidatesContent(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	conv := NewConversation(uuid.New(), uuid.New(), messageStore{store})

	if _, err := conv.Send(ctx, "   "); !errors.Is(err, services.ErrEmptyMessage) {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}
	if _, err := conv.Send(ctx, strings.Repeat("a", services.MaxMessageLength+1)); !errors.Is(err, services.ErrMessageTooLong) {
		t.Errorf("expected ErrMessageTooLong, got %v", err)
	}
	if len(conv.Messages()) != 0 {
		t.Error("rejected sends must not touch local state")
	}

	msg, err := conv.Send(ctx, "  hej  ")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if msg.Content != "hej" {
		t.Errorf("expected trimmed content %q, got %q", "hej", msg.Content)
	}
	if len(conv.Messages()) != 1 {
		t.Errorf("expected 1 local message after send, got %d", len(conv.Messages()))
	}
}

func TestConversation_SendFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.failSendMessage = errors.New("db down")

	conv := NewConversation(uuid.New(), uuid.New(), messageStore{store})
	if _, err := conv.Send(ctx, "hej"); err == nil {
		t.Fatal("expected write error")
	}
	if len(conv.Messages()) != 0 {
		t.Error("failed write must not append locally")
	}
}

func TestConversation_DuplicateEventAppendsOnce(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()

	self := uuid.New()
	peer := uuid.New()
	conv := NewConversation(self, peer, messageStore{store})
	if err := conv.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	msg := store.addMessage(peer, self, "hej", false, time.Now())
	evt := insertEvent(realtime.TableMessages, msg)
	if err := conv.HandleEvent(ctx, evt); err != nil {
		t.Fatalf("first HandleEvent failed: %v", err)
	}
	if err := conv.HandleEvent(ctx, evt); err != nil {
		t.Fatalf("second HandleEvent failed: %v", err)
	}

	if got := len(conv.Messages()); got != 1 {
		t.Errorf("expected 1 message after duplicate event, got %d", got)
	}
}

func TestConversation_OwnEchoAfterSendIsDeduplicated(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()

	self := uuid.New()
	peer := uuid.New()
	conv := NewConversation(self, peer, messageStore{store})
	if err := conv.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	msg, err := conv.Send(ctx, "hej")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	// The realtime echo of the user's own insert arrives after the local append.
	if err := conv.HandleEvent(ctx, insertEvent(realtime.TableMessages, *msg)); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}
	if got := len(conv.Messages()); got != 1 {
		t.Errorf("expected 1 message after echo, got %d", got)
	}
}

func TestConversation_ArrivingPeerMessageIsMarkedRead(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()

	self := uuid.New()
	peer := uuid.New()
	conv := NewConversation(self, peer, messageStore{store})
	if err := conv.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	msg := store.addMessage(peer, self, "hej", false, time.Now())
	if err := conv.HandleEvent(ctx, insertEvent(realtime.TableMessages, msg)); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	store.mu.Lock()
	stored := store.messages[0]
	store.mu.Unlock()
	if !stored.IsRead {
		t.Error("a peer message arriving on an open conversation must be marked read")
	}
	local := conv.Messages()
	if len(local) != 1 || !local[0].IsRead {
		t.Error("local copy must reflect the read mark")
	}
}

func TestConversation_IgnoresOtherPairsAndOps(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()

	self := uuid.New()
	peer := uuid.New()
	conv := NewConversation(self, peer, messageStore{store})
	if err := conv.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	other := store.addMessage(uuid.New(), self, "fra en anden", false, time.Now())
	if err := conv.HandleEvent(ctx, insertEvent(realtime.TableMessages, other)); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	update := insertEvent(realtime.TableMessages, store.addMessage(peer, self, "hej", true, time.Now()))
	update.Op = realtime.OpUpdate
	if err := conv.HandleEvent(ctx, update); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	if got := len(conv.Messages()); got != 0 {
		t.Errorf("expected no appended messages, got %d", got)
	}
}

func TestConversation_GroupsByCalendarDate(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()

	self := uuid.New()
	peer := uuid.New()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	store.addMessage(peer, self, "gammel", true, now.AddDate(0, 0, -3))
	store.addMessage(self, peer, "i går 1", true, now.AddDate(0, 0, -1).Add(-time.Hour))
	store.addMessage(peer, self, "i går 2", true, now.AddDate(0, 0, -1))
	store.addMessage(self, peer, "i dag", false, now.Add(-time.Minute))

	conv := NewConversation(self, peer, messageStore{store})
	conv.now = func() time.Time { return now }
	if err := conv.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	groups := conv.Groups()
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if groups[0].Label != "12. juni 2025" {
		t.Errorf("group 0 label = %q, want %q", groups[0].Label, "12. juni 2025")
	}
	if groups[1].Label != "I går" || len(groups[1].Messages) != 2 {
		t.Errorf("group 1 = %q with %d messages, want I går with 2", groups[1].Label, len(groups[1].Messages))
	}
	if groups[2].Label != "I dag" || len(groups[2].Messages) != 1 {
		t.Errorf("group 2 = %q with %d messages, want I dag with 1", groups[2].Label, len(groups[2].Messages))
	}
}
