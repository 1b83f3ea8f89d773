package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vennapp/venner/internal/models"
	"github.com/vennapp/venner/internal/realtime"
)

var (
	ErrFriendshipNotFound = errors.New("friendship not found")
	ErrFriendshipExists   = errors.New("friendship already exists")
	ErrCannotFriendSelf   = errors.New("cannot send friend request to yourself")
)

// FriendService manages the directed friendship edges. All operations are
// keyed by the pair of users rather than the edge id: that is how the
// directory addresses them, and the unordered pair is unique by schema.
type FriendService struct {
	db  DBConn
	pub ChangePublisher
}

func NewFriendService(db DBConn, pub ChangePublisher) *FriendService {
	return &FriendService{db: db, pub: pub}
}

const friendshipColumns = "id, requester_id, addressee_id, status, created_at"

// SendRequest creates a pending edge from requester to addressee. At most
// one edge may connect a pair of users regardless of direction.
func (s *FriendService) SendRequest(ctx context.Context, requesterID, addresseeID uuid.UUID) (*models.Friendship, error) {
	if requesterID == addresseeID {
		return nil, ErrCannotFriendSelf
	}

	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM friendships
			WHERE (requester_id = $1 AND addressee_id = $2)
			   OR (requester_id = $2 AND addressee_id = $1)
		)`,
		requesterID, addresseeID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking friendship existence: %w", err)
	}
	if exists {
		return nil, ErrFriendshipExists
	}

	friendship := &models.Friendship{}
	err = s.db.QueryRow(ctx,
		`INSERT INTO friendships (requester_id, addressee_id, status)
		 VALUES ($1, $2, 'pending')
		 RETURNING `+friendshipColumns,
		requesterID, addresseeID,
	).Scan(&friendship.ID, &friendship.RequesterID, &friendship.AddresseeID, &friendship.Status, &friendship.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating friendship: %w", err)
	}

	publishChange(ctx, s.pub, realtime.TableFriendships, realtime.OpInsert, friendship)
	return friendship, nil
}

// AcceptRequest flips the pending edge addressed to userID from requesterID
// to accepted. Only the addressee can accept, which the WHERE clause
// enforces.
func (s *FriendService) AcceptRequest(ctx context.Context, userID, requesterID uuid.UUID) (*models.Friendship, error) {
	friendship := &models.Friendship{}
	err := s.db.QueryRow(ctx,
		`UPDATE friendships SET status = 'accepted'
		 WHERE requester_id = $1 AND addressee_id = $2 AND status = 'pending'
		 RETURNING `+friendshipColumns,
		requesterID, userID,
	).Scan(&friendship.ID, &friendship.RequesterID, &friendship.AddresseeID, &friendship.Status, &friendship.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFriendshipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("accepting friendship: %w", err)
	}

	publishChange(ctx, s.pub, realtime.TableFriendships, realtime.OpUpdate, friendship)
	return friendship, nil
}

// RejectRequest deletes the pending edge addressed to userID from
// requesterID.
func (s *FriendService) RejectRequest(ctx context.Context, userID, requesterID uuid.UUID) error {
	return s.deleteEdge(ctx,
		`DELETE FROM friendships
		 WHERE requester_id = $1 AND addressee_id = $2 AND status = 'pending'
		 RETURNING `+friendshipColumns,
		requesterID, userID,
	)
}

// CancelRequest deletes the pending edge userID sent to addresseeID.
func (s *FriendService) CancelRequest(ctx context.Context, userID, addresseeID uuid.UUID) error {
	return s.deleteEdge(ctx,
		`DELETE FROM friendships
		 WHERE requester_id = $1 AND addressee_id = $2 AND status = 'pending'
		 RETURNING `+friendshipColumns,
		userID, addresseeID,
	)
}

// RemoveFriend deletes the accepted edge between the two users. Either party
// may do this.
func (s *FriendService) RemoveFriend(ctx context.Context, userID, otherID uuid.UUID) error {
	return s.deleteEdge(ctx,
		`DELETE FROM friendships
		 WHERE ((requester_id = $1 AND addressee_id = $2) OR (requester_id = $2 AND addressee_id = $1))
		   AND status = 'accepted'
		 RETURNING `+friendshipColumns,
		userID, otherID,
	)
}

func (s *FriendService) deleteEdge(ctx context.Context, sql string, args ...any) error {
	friendship := &models.Friendship{}
	err := s.db.QueryRow(ctx, sql, args...).Scan(
		&friendship.ID, &friendship.RequesterID, &friendship.AddresseeID,
		&friendship.Status, &friendship.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrFriendshipNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting friendship: %w", err)
	}

	publishChange(ctx, s.pub, realtime.TableFriendships, realtime.OpDelete, friendship)
	return nil
}

// ListTouching returns every edge the user is part of, in fetch order. The
// directory resolves per-profile status from this set.
func (s *FriendService) ListTouching(ctx context.Context, userID uuid.UUID) ([]models.Friendship, error) {
	return s.list(ctx,
		`SELECT `+friendshipColumns+` FROM friendships
		 WHERE requester_id = $1 OR addressee_id = $1
		 ORDER BY created_at`,
		userID,
	)
}

// ListAccepted returns the user's accepted edges.
func (s *FriendService) ListAccepted(ctx context.Context, userID uuid.UUID) ([]models.Friendship, error) {
	return s.list(ctx,
		`SELECT `+friendshipColumns+` FROM friendships
		 WHERE (requester_id = $1 OR addressee_id = $1) AND status = 'accepted'
		 ORDER BY created_at`,
		userID,
	)
}

func (s *FriendService) CountFriends(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM friendships
		 WHERE (requester_id = $1 OR addressee_id = $1) AND status = 'accepted'`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting friends: %w", err)
	}
	return count, nil
}

// IsFriend reports whether an accepted edge connects the two users.
func (s *FriendService) IsFriend(ctx context.Context, userID, otherID uuid.UUID) (bool, error) {
	var isFriend bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM friendships
			WHERE ((requester_id = $1 AND addressee_id = $2) OR (requester_id = $2 AND addressee_id = $1))
			  AND status = 'accepted'
		)`,
		userID, otherID,
	).Scan(&isFriend)
	if err != nil {
		return false, fmt.Errorf("checking friendship: %w", err)
	}
	return isFriend, nil
}

func (s *FriendService) list(ctx context.Context, sql string, args ...any) ([]models.Friendship, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing friendships: %w", err)
	}
	defer rows.Close()

	var edges []models.Friendship
	for rows.Next() {
		var f models.Friendship
		if err := rows.Scan(&f.ID, &f.RequesterID, &f.AddresseeID, &f.Status, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning friendship: %w", err)
		}
		edges = append(edges, f)
	}
	if edges == nil {
		edges = []models.Friendship{}
	}
	return edges, nil
}
