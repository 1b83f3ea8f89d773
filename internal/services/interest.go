package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vennapp/venner/internal/models"
)

var ErrTooFewInterests = errors.New("a profile must hold at least three interests")

// InterestService manages the fixed interest catalog and user memberships.
type InterestService struct {
	db DB
}

func NewInterestService(db DB) *InterestService {
	return &InterestService{db: db}
}

func (s *InterestService) ListCatalog(ctx context.Context) ([]models.Interest, error) {
	rows, err := s.db.Query(ctx, "SELECT id, name FROM interests ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing interests: %w", err)
	}
	defer rows.Close()

	var interests []models.Interest
	for rows.Next() {
		var i models.Interest
		if err := rows.Scan(&i.ID, &i.Name); err != nil {
			return nil, fmt.Errorf("scanning interest: %w", err)
		}
		interests = append(interests, i)
	}
	if interests == nil {
		interests = []models.Interest{}
	}
	return interests, nil
}

// SetForUser replaces the user's interests wholesale. The onboarding
// invariant of at least three interests is enforced here.
func (s *InterestService) SetForUser(ctx context.Context, userID uuid.UUID, interestIDs []uuid.UUID) error {
	if len(interestIDs) < models.MinInterests {
		return ErrTooFewInterests
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "DELETE FROM user_interests WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("clearing interests: %w", err)
	}
	for _, interestID := range interestIDs {
		if _, err := tx.Exec(ctx,
			"INSERT INTO user_interests (user_id, interest_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			userID, interestID,
		); err != nil {
			return fmt.Errorf("adding interest: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing interests: %w", err)
	}
	return nil
}

func (s *InterestService) GetForUser(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT i.name
		 FROM user_interests ui JOIN interests i ON ui.interest_id = i.id
		 WHERE ui.user_id = $1
		 ORDER BY i.name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting user interests: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning interest name: %w", err)
		}
		names = append(names, name)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// ListMemberships returns every user-interest pair with the interest name,
// the directory's enrichment fetch.
func (s *InterestService) ListMemberships(ctx context.Context) ([]models.InterestMembership, error) {
	rows, err := s.db.Query(ctx,
		`SELECT ui.user_id, ui.interest_id, i.name
		 FROM user_interests ui JOIN interests i ON ui.interest_id = i.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing interest memberships: %w", err)
	}
	defer rows.Close()

	var memberships []models.InterestMembership
	for rows.Next() {
		var m models.InterestMembership
		if err := rows.Scan(&m.UserID, &m.InterestID, &m.InterestName); err != nil {
			return nil, fmt.Errorf("scanning membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	if memberships == nil {
		memberships = []models.InterestMembership{}
	}
	return memberships, nil
}
