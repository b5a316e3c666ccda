package handlers

import (
	"errors"
	"net/http"

	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/models"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// AuthHandler exposes the authenticated identity
type AuthHandler struct {
	journeys database.JourneyRepositoryInterface
	logger   *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(journeys database.JourneyRepositoryInterface, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{journeys: journeys, logger: logger}
}

// RegisterRoutes registers auth routes on the given router
// The router should already have the /api/v1/auth prefix
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/me", h.GetMe).Methods("GET")
}

// MeResponse is the current user and the journey their schedules belong to
type MeResponse struct {
	User          *models.User    `json:"user"`
	ActiveJourney *models.Journey `json:"active_journey"`
}

// GetMe returns current user information
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	journey, err := h.journeys.GetActiveByUserID(r.Context(), user.ID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		h.logger.Error("active_journey_fetch_failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve journey")
		return
	}

	respondJSON(w, http.StatusOK, MeResponse{User: user, ActiveJourney: journey})
}
