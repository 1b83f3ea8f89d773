package realtime

import (
	"context"

	"github.com/google/uuid"

	"github.com/vennapp/venner/internal/logging"
	"github.com/vennapp/venner/internal/models"
)

// ProfileSource looks up a display profile for notification enrichment.
type ProfileSource interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

// FriendRequestMailer sends the best-effort friend-request email.
type FriendRequestMailer interface {
	SendFriendRequestEmail(ctx context.Context, recipientID uuid.UUID, requesterName string) error
}

// Forwarder routes bus events to the websocket clients they concern and
// raises transient notifications for inbound messages and invitations.
// Everything here is best effort: failures are logged, never retried.
type Forwarder struct {
	bus      *Bus
	hub      *Hub
	profiles ProfileSource
	mailer   FriendRequestMailer
	logger   *logging.Logger
}

func NewForwarder(bus *Bus, hub *Hub, profiles ProfileSource, mailer FriendRequestMailer, logger *logging.Logger) *Forwarder {
	if logger == nil {
		logger = logging.Default
	}
	return &Forwarder{
		bus:      bus,
		hub:      hub,
		profiles: profiles,
		mailer:   mailer,
		logger:   logger,
	}
}

// Run forwards events until ctx is cancelled.
func (f *Forwarder) Run(ctx context.Context) {
	messages := f.bus.Subscribe(TableMessages)
	defer messages.Close()
	friendships := f.bus.Subscribe(TableFriendships)
	defer friendships.Close()
	invitations := f.bus.Subscribe(TableInvitations)
	defer invitations.Close()
	profiles := f.bus.Subscribe(TableProfiles)
	defer profiles.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-messages.Events():
			f.forwardMessage(ctx, evt)
		case evt := <-friendships.Events():
			f.forwardFriendship(ctx, evt)
		case evt := <-invitations.Events():
			f.forwardInvitation(ctx, evt)
		case evt := <-profiles.Events():
			// Presence and profile edits concern every open directory.
			f.hub.Broadcast(ServerMessage{Type: "change", Event: &evt})
		}
	}
}

func (f *Forwarder) forwardMessage(ctx context.Context, evt Event) {
	var msg models.Message
	if err := evt.Decode(&msg); err != nil {
		f.logger.Warn("Undecodable message event", map[string]interface{}{"error": err.Error()})
		return
	}

	out := ServerMessage{Type: "change", Event: &evt}
	f.hub.SendToUser(msg.SenderID, out)
	f.hub.SendToUser(msg.ReceiverID, out)

	if evt.Op != OpInsert {
		return
	}

	sender, err := f.profiles.GetByUserID(ctx, msg.SenderID)
	if err != nil {
		f.logger.Warn("Sender profile lookup failed for notification", map[string]interface{}{
			"sender_id": msg.SenderID.String(),
			"error":     err.Error(),
		})
		return
	}
	notif := Notification{Title: sender.Name, Body: msg.Content}
	if sender.AvatarURL != nil {
		notif.Icon = *sender.AvatarURL
	}
	f.hub.SendToUser(msg.ReceiverID, ServerMessage{Type: "notification", Notification: &notif})
}

func (f *Forwarder) forwardFriendship(ctx context.Context, evt Event) {
	var edge models.Friendship
	if err := evt.Decode(&edge); err != nil {
		f.logger.Warn("Undecodable friendship event", map[string]interface{}{"error": err.Error()})
		return
	}

	out := ServerMessage{Type: "change", Event: &evt}
	f.hub.SendToUser(edge.RequesterID, out)
	f.hub.SendToUser(edge.AddresseeID, out)

	if evt.Op != OpInsert || f.mailer == nil {
		return
	}

	requesterName := "En bruger"
	if requester, err := f.profiles.GetByUserID(ctx, edge.RequesterID); err == nil {
		requesterName = requester.Name
	}
	if err := f.mailer.SendFriendRequestEmail(ctx, edge.AddresseeID, requesterName); err != nil {
		f.logger.Warn("Friend request email failed", map[string]interface{}{
			"addressee_id": edge.AddresseeID.String(),
			"error":        err.Error(),
		})
	}
}

// forwardInvitation only routes the change event; the receiver's invitation
// feed raises the user-facing notification itself.
func (f *Forwarder) forwardInvitation(ctx context.Context, evt Event) {
	var inv models.ActivityInvitation
	if err := evt.Decode(&inv); err != nil {
		f.logger.Warn("Undecodable invitation event", map[string]interface{}{"error": err.Error()})
		return
	}

	out := ServerMessage{Type: "change", Event: &evt}
	f.hub.SendToUser(inv.SenderID, out)
	f.hub.SendToUser(inv.ReceiverID, out)
}
