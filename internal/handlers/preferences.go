package handlers

import (
	"net/http"

	"github.com/benvon/study-planner/internal/calendar"
	"github.com/benvon/study-planner/internal/models"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// PreferencesHandler reads and patches the user's scheduling preferences
type PreferencesHandler struct {
	preferences *calendar.PreferencesService
	logger      *zap.Logger
}

// NewPreferencesHandler creates a new preferences handler
func NewPreferencesHandler(svc *calendar.PreferencesService, logger *zap.Logger) *PreferencesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferencesHandler{preferences: svc, logger: logger}
}

// RegisterRoutes registers preference routes on a router already prefixed with /preferences
func (h *PreferencesHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.GetPreferences).Methods("GET")
	r.HandleFunc("", h.UpdatePreferences).Methods("PATCH")
}

// GetPreferences returns the user's preferences, creating the defaults on first access
func (h *PreferencesHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	prefs, err := h.preferences.GetOrCreate(r.Context(), user.ID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to retrieve preferences")
		return
	}
	respondJSON(w, http.StatusOK, prefs)
}

// UpdatePreferences applies a partial update
func (h *PreferencesHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var patch models.PreferencesPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	prefs, err := h.preferences.Update(r.Context(), user.ID, patch)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update preferences")
		return
	}
	respondJSON(w, http.StatusOK, prefs)
}
