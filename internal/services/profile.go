package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vennapp/venner/internal/models"
	"github.com/vennapp/venner/internal/realtime"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrInvalidProfile  = errors.New("invalid profile")
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

const (
	maxNameLength = 50
	maxBioLength  = 200
	maxCityLength = 50
)

type ProfileService struct {
	db  DBConn
	pub ChangePublisher
}

func NewProfileService(db DBConn, pub ChangePublisher) *ProfileService {
	return &ProfileService{db: db, pub: pub}
}

const profileColumns = "id, user_id, name, username, birthday, gender, city, bio, avatar_url, is_online, created_at, updated_at"

// Upsert creates the user's profile at onboarding or updates it afterwards.
// Only the owning user can reach this through the handler layer.
func (s *ProfileService) Upsert(ctx context.Context, userID uuid.UUID, params models.UpsertProfileParams) (*models.Profile, error) {
	if err := validateProfile(params); err != nil {
		return nil, err
	}

	if params.Username != nil && *params.Username != "" {
		var taken bool
		err := s.db.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM profiles WHERE username = $1 AND user_id != $2)",
			*params.Username, userID,
		).Scan(&taken)
		if err != nil {
			return nil, fmt.Errorf("checking username: %w", err)
		}
		if taken {
			return nil, ErrUsernameTaken
		}
	}

	profile := &models.Profile{}
	err := s.db.QueryRow(ctx,
		`INSERT INTO profiles (user_id, name, username, birthday, gender, city, bio, avatar_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id) DO UPDATE SET
		   name = EXCLUDED.name, username = EXCLUDED.username, birthday = EXCLUDED.birthday,
		   gender = EXCLUDED.gender, city = EXCLUDED.city, bio = EXCLUDED.bio,
		   avatar_url = EXCLUDED.avatar_url, updated_at = NOW()
		 RETURNING `+profileColumns,
		userID, params.Name, emptyToNil(params.Username), params.Birthday,
		params.Gender, emptyToNil(params.City), emptyToNil(params.Bio), params.AvatarURL,
	).Scan(scanProfile(profile)...)
	if err != nil {
		return nil, fmt.Errorf("upserting profile: %w", err)
	}

	publishChange(ctx, s.pub, realtime.TableProfiles, realtime.OpUpdate, profile)
	return profile, nil
}

func (s *ProfileService) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile := &models.Profile{}
	err := s.db.QueryRow(ctx,
		"SELECT "+profileColumns+" FROM profiles WHERE user_id = $1",
		userID,
	).Scan(scanProfile(profile)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	return profile, nil
}

// ListExcept returns every profile but the given user's, the directory's
// base fetch.
func (s *ProfileService) ListExcept(ctx context.Context, userID uuid.UUID) ([]models.Profile, error) {
	rows, err := s.db.Query(ctx,
		"SELECT "+profileColumns+" FROM profiles WHERE user_id != $1 ORDER BY created_at",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(scanProfile(&p)...); err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if profiles == nil {
		profiles = []models.Profile{}
	}
	return profiles, nil
}

// SetOnline flips the presence flag and publishes the updated profile so
// open directories refresh.
func (s *ProfileService) SetOnline(ctx context.Context, userID uuid.UUID, online bool) error {
	profile := &models.Profile{}
	err := s.db.QueryRow(ctx,
		"UPDATE profiles SET is_online = $2, updated_at = NOW() WHERE user_id = $1 RETURNING "+profileColumns,
		userID, online,
	).Scan(scanProfile(profile)...)
	if errors.Is(err, pgx.ErrNoRows) {
		// Presence before onboarding completes; nothing to mark.
		return nil
	}
	if err != nil {
		return fmt.Errorf("setting presence: %w", err)
	}

	publishChange(ctx, s.pub, realtime.TableProfiles, realtime.OpUpdate, profile)
	return nil
}

func scanProfile(p *models.Profile) []any {
	return []any{
		&p.ID, &p.UserID, &p.Name, &p.Username, &p.Birthday, &p.Gender,
		&p.City, &p.Bio, &p.AvatarURL, &p.IsOnline, &p.CreatedAt, &p.UpdatedAt,
	}
}

func validateProfile(params models.UpsertProfileParams) error {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidProfile, maxNameLength)
	}
	if params.Username != nil && *params.Username != "" {
		u := *params.Username
		if len(u) < 3 || len(u) > 20 || !usernamePattern.MatchString(u) {
			return fmt.Errorf("%w: username must be 3-20 characters of letters, digits and underscore", ErrInvalidProfile)
		}
	}
	if params.Bio != nil && utf8.RuneCountInString(strings.TrimSpace(*params.Bio)) > maxBioLength {
		return fmt.Errorf("%w: bio exceeds %d characters", ErrInvalidProfile, maxBioLength)
	}
	if params.City != nil && utf8.RuneCountInString(strings.TrimSpace(*params.City)) > maxCityLength {
		return fmt.Errorf("%w: city exceeds %d characters", ErrInvalidProfile, maxCityLength)
	}
	return nil
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
