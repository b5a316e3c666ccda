package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/progress"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// maxEventBytes bounds a progress event body
const maxEventBytes = 16 << 10

// ProgressSyncer applies progress events to learning paths
type ProgressSyncer interface {
	SyncProgress(ctx context.Context, userID, pathID uuid.UUID, event progress.Event) (*progress.SyncResult, error)
}

// PathHandler exposes learning path progress
type PathHandler struct {
	paths    database.LearningPathRepositoryInterface
	progress ProgressSyncer
	logger   *zap.Logger
}

// NewPathHandler creates a new learning path handler
func NewPathHandler(paths database.LearningPathRepositoryInterface, syncer ProgressSyncer, logger *zap.Logger) *PathHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PathHandler{paths: paths, progress: syncer, logger: logger}
}

// RegisterRoutes registers path routes on a router already prefixed with /paths
func (h *PathHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/{id:"+uuidPattern+"}", h.GetPath).Methods("GET")
	r.HandleFunc("/{id:"+uuidPattern+"}/sync", h.SyncProgress).Methods("POST")
}

// PathResponse is a learning path with its ordered steps
type PathResponse struct {
	*models.LearningPath
	Steps []*models.LearningPathStep `json:"steps"`
}

// GetPath returns the path and its steps
func (h *PathHandler) GetPath(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	path, err := h.paths.GetByID(r.Context(), user.ID, id)
	if errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Learning path not found")
		return
	}
	if err != nil {
		h.logger.Error("learning_path_fetch_failed", zap.String("path_id", id.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve learning path")
		return
	}
	steps, err := h.paths.ListSteps(r.Context(), id)
	if err != nil {
		h.logger.Error("learning_path_steps_failed", zap.String("path_id", id.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve learning path")
		return
	}
	respondJSON(w, http.StatusOK, PathResponse{LearningPath: path, Steps: steps})
}

// SyncProgress applies one {"type": ..., "data": {...}} event to the path
func (h *PathHandler) SyncProgress(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxEventBytes+1))
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if len(raw) > maxEventBytes {
		respondErrorBody(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", "REQUEST_TOO_LARGE", "Event body too large", nil)
		return
	}
	if !json.Valid(raw) {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	event, err := progress.DecodeEvent(raw)
	if err != nil {
		respondErrorBody(w, http.StatusBadRequest, "Bad Request", "INVALID_EVENT", err.Error(), nil)
		return
	}

	result, err := h.progress.SyncProgress(r.Context(), user.ID, id, event)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, result)
	case errors.Is(err, progress.ErrPathNotFound):
		respondErrorBody(w, http.StatusNotFound, "Not Found", "PATH_NOT_FOUND", "Learning path not found", nil)
	case errors.Is(err, progress.ErrTodoNotFound):
		respondErrorBody(w, http.StatusNotFound, "Not Found", "TODO_NOT_FOUND", "Todo not found", nil)
	case errors.Is(err, progress.ErrTodoNotOnPath):
		respondErrorBody(w, http.StatusUnprocessableEntity, "Unprocessable Entity", "TODO_NOT_ON_PATH", err.Error(), nil)
	case errors.Is(err, progress.ErrInvalidEvent):
		respondErrorBody(w, http.StatusBadRequest, "Bad Request", "INVALID_EVENT", err.Error(), nil)
	default:
		h.logger.Error("progress_sync_failed",
			zap.String("user_id", user.ID.String()),
			zap.String("path_id", id.String()),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to sync progress")
	}
}
