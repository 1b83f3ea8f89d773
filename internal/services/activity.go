package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vennapp/venner/internal/models"
)

// ActivityService serves the curated activity catalog.
type ActivityService struct {
	db DBConn
}

func NewActivityService(db DBConn) *ActivityService {
	return &ActivityService{db: db}
}

const activityColumns = "id, title, description, category, icon, is_active"

func (s *ActivityService) GetAll(ctx context.Context) ([]models.Activity, error) {
	return s.list(ctx,
		"SELECT "+activityColumns+" FROM activities WHERE is_active = true ORDER BY category, title",
	)
}

func (s *ActivityService) GetByCategory(ctx context.Context, category string) ([]models.Activity, error) {
	return s.list(ctx,
		"SELECT "+activityColumns+" FROM activities WHERE is_active = true AND category = $1 ORDER BY title",
		category,
	)
}

func (s *ActivityService) GetCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx,
		"SELECT DISTINCT category FROM activities WHERE is_active = true ORDER BY category",
	)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

// SuggestForUsers returns activities whose category matches an interest both
// users share, for the "things to do together" surface.
func (s *ActivityService) SuggestForUsers(ctx context.Context, userID, friendID uuid.UUID) ([]models.Activity, error) {
	return s.list(ctx,
		`SELECT `+activityColumns+` FROM activities a
		 WHERE a.is_active = true AND a.category IN (
			SELECT i.name
			FROM user_interests ui JOIN interests i ON ui.interest_id = i.id
			WHERE ui.user_id = $1
			INTERSECT
			SELECT i.name
			FROM user_interests ui JOIN interests i ON ui.interest_id = i.id
			WHERE ui.user_id = $2
		 )
		 ORDER BY a.title`,
		userID, friendID,
	)
}

func (s *ActivityService) list(ctx context.Context, sql string, args ...any) ([]models.Activity, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}
	defer rows.Close()

	var activities []models.Activity
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.Category, &a.Icon, &a.IsActive); err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		activities = append(activities, a)
	}
	if activities == nil {
		activities = []models.Activity{}
	}
	return activities, nil
}
