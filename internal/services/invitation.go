package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vennapp/venner/internal/models"
	"github.com/vennapp/venner/internal/realtime"
)

var (
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrNoReceivers        = errors.New("invitation needs at least one receiver")
)

type InvitationService struct {
	db  DBConn
	pub ChangePublisher
}

func NewInvitationService(db DBConn, pub ChangePublisher) *InvitationService {
	return &InvitationService{db: db, pub: pub}
}

const invitationColumns = "id, sender_id, receiver_id, activity_title, activity_icon, is_read, created_at"

// SendBatch creates one invitation row per receiver in a single multi-row
// insert, so a batch lands whole or not at all.
func (s *InvitationService) SendBatch(ctx context.Context, senderID uuid.UUID, receiverIDs []uuid.UUID, activityTitle, activityIcon string) ([]models.ActivityInvitation, error) {
	if len(receiverIDs) == 0 {
		return nil, ErrNoReceivers
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO activity_invitations (sender_id, receiver_id, activity_title, activity_icon) VALUES ")
	args := []any{senderID, activityTitle, activityIcon}
	for i, receiverID := range receiverIDs {
		if i > 0 {
			sb.WriteString(", ")
		}
		args = append(args, receiverID)
		fmt.Fprintf(&sb, "($1, $%d, $2, $3)", len(args))
	}
	sb.WriteString(" RETURNING " + invitationColumns)

	rows, err := s.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("sending invitations: %w", err)
	}
	defer rows.Close()

	var invitations []models.ActivityInvitation
	for rows.Next() {
		var inv models.ActivityInvitation
		if err := rows.Scan(&inv.ID, &inv.SenderID, &inv.ReceiverID, &inv.ActivityTitle, &inv.ActivityIcon, &inv.IsRead, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning invitation: %w", err)
		}
		invitations = append(invitations, inv)
	}

	for i := range invitations {
		publishChange(ctx, s.pub, realtime.TableInvitations, realtime.OpInsert, &invitations[i])
	}
	return invitations, nil
}

// ListForReceiver returns the user's invitations newest first, each joined
// with the sender's profile. A sender without a profile shows as "Ukendt".
func (s *InvitationService) ListForReceiver(ctx context.Context, receiverID uuid.UUID) ([]models.InvitationWithSender, error) {
	rows, err := s.db.Query(ctx,
		`SELECT ai.id, ai.sender_id, ai.receiver_id, ai.activity_title, ai.activity_icon, ai.is_read, ai.created_at,
		        COALESCE(p.name, 'Ukendt'), p.avatar_url
		 FROM activity_invitations ai
		 LEFT JOIN profiles p ON p.user_id = ai.sender_id
		 WHERE ai.receiver_id = $1
		 ORDER BY ai.created_at DESC`,
		receiverID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing invitations: %w", err)
	}
	defer rows.Close()

	var invitations []models.InvitationWithSender
	for rows.Next() {
		var inv models.InvitationWithSender
		if err := rows.Scan(
			&inv.ID, &inv.SenderID, &inv.ReceiverID, &inv.ActivityTitle, &inv.ActivityIcon,
			&inv.IsRead, &inv.CreatedAt, &inv.SenderName, &inv.SenderAvatar,
		); err != nil {
			return nil, fmt.Errorf("scanning invitation: %w", err)
		}
		invitations = append(invitations, inv)
	}
	if invitations == nil {
		invitations = []models.InvitationWithSender{}
	}
	return invitations, nil
}

// MarkRead marks one invitation read. Only the receiver may do so.
func (s *InvitationService) MarkRead(ctx context.Context, receiverID, invitationID uuid.UUID) error {
	inv := &models.ActivityInvitation{}
	err := s.db.QueryRow(ctx,
		`UPDATE activity_invitations SET is_read = true
		 WHERE id = $1 AND receiver_id = $2
		 RETURNING `+invitationColumns,
		invitationID, receiverID,
	).Scan(&inv.ID, &inv.SenderID, &inv.ReceiverID, &inv.ActivityTitle, &inv.ActivityIcon, &inv.IsRead, &inv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrInvitationNotFound
	}
	if err != nil {
		return fmt.Errorf("marking invitation read: %w", err)
	}

	publishChange(ctx, s.pub, realtime.TableInvitations, realtime.OpUpdate, inv)
	return nil
}

// MarkAllRead marks every unread invitation for the receiver.
func (s *InvitationService) MarkAllRead(ctx context.Context, receiverID uuid.UUID) error {
	rows, err := s.db.Query(ctx,
		`UPDATE activity_invitations SET is_read = true
		 WHERE receiver_id = $1 AND is_read = false
		 RETURNING `+invitationColumns,
		receiverID,
	)
	if err != nil {
		return fmt.Errorf("marking invitations read: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var inv models.ActivityInvitation
		if err := rows.Scan(&inv.ID, &inv.SenderID, &inv.ReceiverID, &inv.ActivityTitle, &inv.ActivityIcon, &inv.IsRead, &inv.CreatedAt); err != nil {
			continue
		}
		publishChange(ctx, s.pub, realtime.TableInvitations, realtime.OpUpdate, &inv)
	}
	return nil
}

func (s *InvitationService) UnreadCount(ctx context.Context, receiverID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM activity_invitations WHERE receiver_id = $1 AND is_read = false",
		receiverID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting unread invitations: %w", err)
	}
	return count, nil
}
