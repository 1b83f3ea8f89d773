package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vennapp/venner/internal/models"
	"github.com/vennapp/venner/internal/services"
	"github.com/vennapp/venner/internal/views"
)

type ProfileHandler struct {
	profileService  services.ProfileServiceInterface
	interestService services.InterestServiceInterface
	registry        *views.Registry
}

func NewProfileHandler(profileService services.ProfileServiceInterface, interestService services.InterestServiceInterface, registry *views.Registry) *ProfileHandler {
	return &ProfileHandler{
		profileService:  profileService,
		interestService: interestService,
		registry:        registry,
	}
}

type UpsertProfileRequest struct {
	Name      string  `json:"name"`
	Username  *string `json:"username,omitempty"`
	Birthday  *string `json:"birthday,omitempty"` // YYYY-MM-DD
	Gender    *string `json:"gender,omitempty"`
	City      *string `json:"city,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

type ProfileResponse struct {
	Profile   *models.Profile `json:"profile"`
	Interests []string        `json:"interests,omitempty"`
}

// Get returns the authenticated user's own profile with interests.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	profile, err := h.profileService.GetByUserID(r.Context(), user.ID)
	if errors.Is(err, services.ErrProfileNotFound) {
		writeError(w, http.StatusNotFound, "Profile not found")
		return
	}
	if err != nil {
		log.Printf("Error getting profile: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	interests, err := h.interestService.GetForUser(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error getting interests: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, ProfileResponse{Profile: profile, Interests: interests})
}

// Upsert creates or updates the authenticated user's profile.
func (h *ProfileHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req UpsertProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	params := models.UpsertProfileParams{
		Name:      req.Name,
		Username:  req.Username,
		Gender:    req.Gender,
		City:      req.City,
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
	}
	if req.Birthday != nil && *req.Birthday != "" {
		birthday, err := time.Parse("2006-01-02", *req.Birthday)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid birthday, expected YYYY-MM-DD")
			return
		}
		params.Birthday = &birthday
	}

	profile, err := h.profileService.Upsert(r.Context(), user.ID, params)
	if errors.Is(err, services.ErrUsernameTaken) {
		writeError(w, http.StatusConflict, "Username already taken")
		return
	}
	if errors.Is(err, services.ErrInvalidProfile) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Printf("Error upserting profile: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, ProfileResponse{Profile: profile})
}

type InterestsResponse struct {
	Interests []models.Interest `json:"interests,omitempty"`
	Names     []string          `json:"names,omitempty"`
}

// Catalog lists the fixed interest catalog.
func (h *ProfileHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	interests, err := h.interestService.ListCatalog(r.Context())
	if err != nil {
		log.Printf("Error listing interest catalog: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, InterestsResponse{Interests: interests})
}

type SetInterestsRequest struct {
	InterestIDs []uuid.UUID `json:"interest_ids"`
}

// SetInterests replaces the user's interests wholesale.
func (h *ProfileHandler) SetInterests(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req SetInterestsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.interestService.SetForUser(r.Context(), user.ID, req.InterestIDs)
	if errors.Is(err, services.ErrTooFewInterests) {
		writeError(w, http.StatusBadRequest, "At least three interests are required")
		return
	}
	if err != nil {
		log.Printf("Error setting interests: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	names, err := h.interestService.GetForUser(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error getting interests: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, InterestsResponse{Names: names})
}

type DirectoryResponse struct {
	Entries []views.DirectoryEntry `json:"entries"`
}

// Directory returns every other profile enriched with interests and the
// viewer's relationship to it, from the user's live directory view.
func (h *ProfileHandler) Directory(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	directory := h.registry.Get(user.ID).Directory()
	if !directory.Loaded() {
		if err := directory.Load(r.Context()); err != nil {
			log.Printf("Error loading directory: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
	}

	writeJSON(w, http.StatusOK, DirectoryResponse{Entries: directory.Entries()})
}
