package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/vennapp/venner/internal/models"
	"github.com/vennapp/venner/internal/realtime"
)

// MaxMessageLength bounds message content, matching the client-side limit.
const MaxMessageLength = 2000

var (
	ErrEmptyMessage   = errors.New("message cannot be empty")
	ErrMessageTooLong = fmt.Errorf("message exceeds %d characters", MaxMessageLength)
)

// ValidateMessageContent trims and checks content before any write is
// attempted. Validation failures never reach the store.
func ValidateMessageContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", ErrEmptyMessage
	}
	// Limits count characters, not bytes; æøå must not shrink the budget.
	if utf8.RuneCountInString(trimmed) > MaxMessageLength {
		return "", ErrMessageTooLong
	}
	return trimmed, nil
}

type MessageService struct {
	db  DBConn
	pub ChangePublisher
}

func NewMessageService(db DBConn, pub ChangePublisher) *MessageService {
	return &MessageService{db: db, pub: pub}
}

const messageColumns = "id, sender_id, receiver_id, content, is_read, created_at"

// Send inserts one message. Delivery is best effort: a single insert with no
// retry, per the store's contract.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID uuid.UUID, content string) (*models.Message, error) {
	content, err := ValidateMessageContent(content)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{}
	err = s.db.QueryRow(ctx,
		`INSERT INTO messages (sender_id, receiver_id, content)
		 VALUES ($1, $2, $3)
		 RETURNING `+messageColumns,
		senderID, receiverID, content,
	).Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.IsRead, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("sending message: %w", err)
	}

	publishChange(ctx, s.pub, realtime.TableMessages, realtime.OpInsert, msg)
	return msg, nil
}

// ListConversation returns the full history between the two users in
// ascending creation order.
func (s *MessageService) ListConversation(ctx context.Context, userID, peerID uuid.UUID) ([]models.Message, error) {
	return s.list(ctx,
		`SELECT `+messageColumns+` FROM messages
		 WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		 ORDER BY created_at`,
		userID, peerID,
	)
}

// ListTouching returns every message sent or received by the user, newest
// first, the preview aggregator's fetch.
func (s *MessageService) ListTouching(ctx context.Context, userID uuid.UUID) ([]models.Message, error) {
	return s.list(ctx,
		`SELECT `+messageColumns+` FROM messages
		 WHERE sender_id = $1 OR receiver_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
}

// MarkRead flips one message's read flag. Only the receiver may do so,
// enforced by the WHERE clause; marking an already-read message is a no-op.
func (s *MessageService) MarkRead(ctx context.Context, receiverID, messageID uuid.UUID) error {
	rows, err := s.db.Query(ctx,
		`UPDATE messages SET is_read = true
		 WHERE id = $1 AND receiver_id = $2 AND is_read = false
		 RETURNING `+messageColumns,
		messageID, receiverID,
	)
	if err != nil {
		return fmt.Errorf("marking message read: %w", err)
	}
	defer rows.Close()
	s.publishUpdated(ctx, rows)
	return nil
}

// MarkConversationRead marks every unread message from peer to the user,
// the side effect of opening a conversation.
func (s *MessageService) MarkConversationRead(ctx context.Context, userID, peerID uuid.UUID) error {
	rows, err := s.db.Query(ctx,
		`UPDATE messages SET is_read = true
		 WHERE sender_id = $1 AND receiver_id = $2 AND is_read = false
		 RETURNING `+messageColumns,
		peerID, userID,
	)
	if err != nil {
		return fmt.Errorf("marking conversation read: %w", err)
	}
	defer rows.Close()
	s.publishUpdated(ctx, rows)
	return nil
}

func (s *MessageService) publishUpdated(ctx context.Context, rows Rows) {
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.IsRead, &m.CreatedAt); err != nil {
			continue
		}
		publishChange(ctx, s.pub, realtime.TableMessages, realtime.OpUpdate, &m)
	}
}

func (s *MessageService) list(ctx context.Context, sql string, args ...any) ([]models.Message, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, m)
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}
