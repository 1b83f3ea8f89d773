package handlers

import (
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/vennapp/venner/internal/models"
	"github.com/vennapp/venner/internal/services"
)

type ActivityHandler struct {
	activityService services.ActivityServiceInterface
}

func NewActivityHandler(activityService services.ActivityServiceInterface) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

type ActivitiesResponse struct {
	Categories []string          `json:"categories,omitempty"`
	Activities []models.Activity `json:"activities,omitempty"`
}

// GetAll lists the activity catalog, optionally filtered by category.
func (h *ActivityHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	if category != "" {
		activities, err := h.activityService.GetByCategory(r.Context(), category)
		if err != nil {
			log.Printf("Error getting activities by category: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		writeJSON(w, http.StatusOK, ActivitiesResponse{Activities: activities})
		return
	}

	activities, err := h.activityService.GetAll(r.Context())
	if err != nil {
		log.Printf("Error getting activities: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, ActivitiesResponse{Activities: activities})
}

func (h *ActivityHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.activityService.GetCategories(r.Context())
	if err != nil {
		log.Printf("Error getting categories: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, ActivitiesResponse{Categories: categories})
}

// Suggest returns activities matching the shared interests of the user and
// one friend.
func (h *ActivityHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	friendID, err := uuid.Parse(r.URL.Query().Get("friend_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "friend_id is required")
		return
	}

	activities, err := h.activityService.SuggestForUsers(r.Context(), user.ID, friendID)
	if err != nil {
		log.Printf("Error suggesting activities: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, ActivitiesResponse{Activities: activities})
}
