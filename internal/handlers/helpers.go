package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/benvon/study-planner/internal/calendar"
	"github.com/benvon/study-planner/internal/clock"
	"github.com/benvon/study-planner/internal/middleware"
	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// uuidPattern constrains {id} route variables so literal sub-routes never match them
const uuidPattern = "[0-9a-fA-F-]{36}"

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage truncates messages so internal detail never leaks in bulk
func sanitizeErrorMessage(message string) string {
	if len(message) > 200 {
		return message[:200] + "..."
	}
	return message
}

// respondJSONError sends an error JSON response with sanitized error messages
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	respondErrorBody(w, status, errorType, "", message, nil)
}

// respondErrorBody writes the error envelope; code and extra are optional
func respondErrorBody(w http.ResponseWriter, status int, errorType, code, message string, extra map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   sanitizeErrorMessage(message),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if code != "" {
		response["code"] = code
	}
	for k, v := range extra {
		response[k] = v
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondServiceError maps calendar errors onto their status and code. Conflicts carry the
// conflict list; anything unrecognised is logged and answered with a generic 500.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	var conflictErr *calendar.ScheduleConflictError
	if errors.As(err, &conflictErr) {
		respondErrorBody(w, http.StatusConflict, http.StatusText(http.StatusConflict),
			string(calendar.CodeScheduleConflict), "The schedule conflicts with existing entries",
			map[string]any{"conflicts": conflictErr.Conflicts})
		return
	}

	var coded calendar.CodedError
	if errors.As(err, &coded) {
		status := coded.HTTPStatus()
		message := err.Error()
		if status >= http.StatusInternalServerError {
			logger.Error("service_error",
				zap.String("code", string(coded.ErrorCode())),
				zap.Error(err),
			)
			message = fallback
		}
		respondErrorBody(w, status, http.StatusText(status), string(coded.ErrorCode()), message, nil)
		return
	}

	logger.Error("unexpected_service_error", zap.Error(err))
	respondErrorBody(w, http.StatusInternalServerError, "Internal Server Error", "INTERNAL_ERROR", fallback, nil)
}

// decodeJSON decodes and validates the request body into dst. It writes the error response
// and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !decodeBody(w, r, dst) {
		return false
	}
	if err := validation.Validate.Struct(dst); err != nil {
		respondErrorBody(w, http.StatusBadRequest, "Bad Request", "VALIDATION_FAILED",
			"Validation failed: "+validation.FormatErrors(err), nil)
		return false
	}
	return true
}

// decodeBody only decodes. It is used for calendar inputs, which the calendar service validates
// itself so that every bad field is reported as INVALID_TIME_SLOT.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondErrorBody(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", "REQUEST_TOO_LARGE",
				fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit), nil)
			return false
		}
		respondErrorBody(w, http.StatusBadRequest, "Bad Request", "INVALID_BODY", "Invalid request body", nil)
		return false
	}
	return true
}

// requireUser returns the authenticated user or answers 401
func requireUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return nil, false
	}
	return user, true
}

// pathID parses the {id} route variable or answers 400
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid ID")
		return uuid.Nil, false
	}
	return id, true
}

// queryDate parses an optional YYYY-MM-DD query parameter
func queryDate(r *http.Request, key string) (clock.Date, bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return clock.Date{}, false, nil
	}
	d, err := clock.ParseDate(raw)
	if err != nil {
		return clock.Date{}, false, fmt.Errorf("%s must be YYYY-MM-DD", key)
	}
	return d, true, nil
}

// queryInt parses an optional integer query parameter, returning def when absent
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return v, nil
}
