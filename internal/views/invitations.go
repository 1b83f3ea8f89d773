package views

import (
	"context"
	"fmt"
	gosync "sync"

	"github.com/google/uuid"

	"github.com/vennapp/venner/internal/logging"
	"github.com/vennapp/venner/internal/models"
	"github.com/vennapp/venner/internal/realtime"
	"github.com/vennapp/venner/internal/services"
)

// NotificationSink delivers transient user-facing notices. Delivery is best
// effort; the sink never blocks.
type NotificationSink interface {
	Notify(userID uuid.UUID, n realtime.Notification)
}

// InvitationFeed is one user's inbox of activity invitations with an unread
// counter. New invitations addressed to the user are prepended as their
// insert events arrive and raised as a transient notification.
type InvitationFeed struct {
	selfID      uuid.UUID
	invitations services.InvitationServiceInterface
	profiles    services.ProfileServiceInterface
	notify      NotificationSink
	logger      *logging.Logger

	mu     gosync.Mutex
	loaded bool
	list   []models.InvitationWithSender
	unread int
}

func NewInvitationFeed(selfID uuid.UUID, invitations services.InvitationServiceInterface, profiles services.ProfileServiceInterface, notify NotificationSink, logger *logging.Logger) *InvitationFeed {
	if logger == nil {
		logger = logging.Default
	}
	return &InvitationFeed{
		selfID:      selfID,
		invitations: invitations,
		profiles:    profiles,
		notify:      notify,
		logger:      logger,
	}
}

// Load fetches the enriched inbox and the unread count.
func (f *InvitationFeed) Load(ctx context.Context) error {
	list, err := f.invitations.ListForReceiver(ctx, f.selfID)
	if err != nil {
		return fmt.Errorf("loading invitations: %w", err)
	}
	unread, err := f.invitations.UnreadCount(ctx, f.selfID)
	if err != nil {
		return fmt.Errorf("counting unread invitations: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.list = list
	f.unread = unread
	f.loaded = true
	return nil
}

// Invitations returns the current inbox, newest first. Callers must not
// mutate it.
func (f *InvitationFeed) Invitations() []models.InvitationWithSender {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.InvitationWithSender, len(f.list))
	copy(out, f.list)
	return out
}

// UnreadCount returns the locally tracked unread counter.
func (f *InvitationFeed) UnreadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unread
}

// Loaded reports whether at least one Load has completed.
func (f *InvitationFeed) Loaded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded
}

// Send writes one invitation per receiver in a single batch. Any failure
// fails the whole batch; no rows are created.
func (f *InvitationFeed) Send(ctx context.Context, receiverIDs []uuid.UUID, activityTitle, activityIcon string) ([]models.ActivityInvitation, error) {
	return f.invitations.SendBatch(ctx, f.selfID, receiverIDs, activityTitle, activityIcon)
}

// MarkRead flips local state before the write resolves. The write is fire and
// forget: a failure is logged and reconciled by the next Load.
func (f *InvitationFeed) MarkRead(ctx context.Context, invitationID uuid.UUID) {
	f.mu.Lock()
	for i := range f.list {
		if f.list[i].ID == invitationID && !f.list[i].IsRead {
			f.list[i].IsRead = true
			if f.unread > 0 {
				f.unread--
			}
		}
	}
	f.mu.Unlock()

	if err := f.invitations.MarkRead(ctx, f.selfID, invitationID); err != nil {
		f.logger.Warn("Failed to persist invitation read mark", map[string]interface{}{
			"invitation_id": invitationID.String(),
			"error":         err.Error(),
		})
	}
}

// MarkAllRead writes first and updates local state only on success.
func (f *InvitationFeed) MarkAllRead(ctx context.Context) {
	if err := f.invitations.MarkAllRead(ctx, f.selfID); err != nil {
		f.logger.Warn("Failed to mark all invitations read", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.list {
		f.list[i].IsRead = true
	}
	f.unread = 0
}

// HandleEvent reacts to invitation inserts addressed to the user: enrich with
// the sender's profile, prepend, bump the counter, raise a notification.
// Events for other receivers are filtered out here, not at the subscription.
func (f *InvitationFeed) HandleEvent(ctx context.Context, evt realtime.Event) error {
	if evt.Table != realtime.TableInvitations || evt.Op != realtime.OpInsert {
		return nil
	}
	var inv models.ActivityInvitation
	if err := evt.Decode(&inv); err != nil {
		return fmt.Errorf("decoding invitation event: %w", err)
	}
	if inv.ReceiverID != f.selfID {
		return nil
	}

	enriched := models.InvitationWithSender{ActivityInvitation: inv, SenderName: "Ukendt"}
	if sender, err := f.profiles.GetByUserID(ctx, inv.SenderID); err == nil {
		enriched.SenderName = sender.Name
		enriched.SenderAvatar = sender.AvatarURL
	}

	f.mu.Lock()
	for _, existing := range f.list {
		if existing.ID == inv.ID {
			f.mu.Unlock()
			return nil
		}
	}
	f.list = append([]models.InvitationWithSender{enriched}, f.list...)
	f.unread++
	f.mu.Unlock()

	if f.notify != nil {
		senderName := enriched.SenderName
		if senderName == "Ukendt" {
			senderName = "Nogen"
		}
		f.notify.Notify(f.selfID, realtime.Notification{
			Title: fmt.Sprintf("%s Ny aktivitetsinvitation!", inv.ActivityIcon),
			Body:  fmt.Sprintf("%s har inviteret dig til %q", senderName, inv.ActivityTitle),
			Icon:  inv.ActivityIcon,
		})
	}
	return nil
}
