package handlers

import (
	"net/http"

	"github.com/benvon/study-planner/internal/calendar"
	"github.com/benvon/study-planner/internal/clock"
	"github.com/benvon/study-planner/internal/models"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// MaxBulkItems bounds a bulk create request
const MaxBulkItems = 100

// ScheduleHandler exposes the schedule engine
type ScheduleHandler struct {
	calendar *calendar.Service
	logger   *zap.Logger
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(svc *calendar.Service, logger *zap.Logger) *ScheduleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleHandler{calendar: svc, logger: logger}
}

// RegisterRoutes registers schedule routes on a router already prefixed with /schedules.
// Literal paths are registered before {id} and ids are constrained to UUIDs.
func (h *ScheduleHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListSchedules).Methods("GET")
	r.HandleFunc("", h.CreateSchedule).Methods("POST")
	r.HandleFunc("/today", h.GetToday).Methods("GET")
	r.HandleFunc("/upcoming", h.GetUpcoming).Methods("GET")
	r.HandleFunc("/slots", h.FindSlots).Methods("POST")
	r.HandleFunc("/check", h.CheckConflicts).Methods("POST")
	r.HandleFunc("/bulk", h.BulkCreate).Methods("POST")
	r.HandleFunc("/conflicts", h.ListConflicts).Methods("GET")
	r.HandleFunc("/conflicts/{id:"+uuidPattern+"}/resolve", h.ResolveConflict).Methods("POST")
	r.HandleFunc("/{id:"+uuidPattern+"}", h.GetSchedule).Methods("GET")
	r.HandleFunc("/{id:"+uuidPattern+"}", h.UpdateSchedule).Methods("PATCH")
	r.HandleFunc("/{id:"+uuidPattern+"}", h.DeleteSchedule).Methods("DELETE")
	r.HandleFunc("/{id:"+uuidPattern+"}/reschedule", h.Reschedule).Methods("POST")
	r.HandleFunc("/{id:"+uuidPattern+"}/status", h.UpdateStatus).Methods("POST")
}

// FindSlotsRequest asks for free slots of a given length
type FindSlotsRequest struct {
	DurationMinutes int        `json:"duration_minutes" validate:"required,min=1,max=480"`
	StartDate       clock.Date `json:"start_date"`
	EndDate         clock.Date `json:"end_date"`
	Count           int        `json:"count" validate:"omitempty,min=1,max=50"`
}

// BulkCreateRequest carries the entries of a bulk create
type BulkCreateRequest struct {
	Items []calendar.ScheduleInput `json:"items" validate:"required,min=1"`
}

// RescheduleRequest moves an entry to a new date and optional start time
type RescheduleRequest struct {
	ScheduledDate clock.Date `json:"scheduled_date"`
	StartTime     *string    `json:"start_time,omitempty" validate:"omitempty,hhmm"`
}

// UpdateStatusRequest changes an entry's status
type UpdateStatusRequest struct {
	Status models.ScheduleStatus `json:"status" validate:"required,schedule_status"`
}

// ResolveConflictRequest records how the user settled a conflict
type ResolveConflictRequest struct {
	Action models.ResolutionAction `json:"action" validate:"required"`
}

// ListSchedules lists entries between the from and to query dates, optionally by status
func (h *ScheduleHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	from, hasFrom, err := queryDate(r, "from")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	to, hasTo, err := queryDate(r, "to")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if !hasFrom || !hasTo {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "from and to are required")
		return
	}

	var status *models.ScheduleStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := models.ScheduleStatus(s)
		if !st.Valid() {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "invalid status: "+s)
			return
		}
		st = st.Normalize()
		status = &st
	}

	entries, err := h.calendar.ListSchedules(r.Context(), user.ID, from, to, status)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to retrieve schedules")
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// CreateSchedule creates one entry; conflicts answer 409 with the conflict list
func (h *ScheduleHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req calendar.ScheduleInput
	if !decodeBody(w, r, &req) {
		return
	}

	entry, err := h.calendar.CreateSchedule(r.Context(), user.ID, req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create schedule")
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

// GetToday returns today's entries in the user's timezone
func (h *ScheduleHandler) GetToday(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	entries, err := h.calendar.GetTodaySchedule(r.Context(), user.ID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to retrieve today's schedule")
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// GetUpcoming returns entries for the next ?days days
func (h *ScheduleHandler) GetUpcoming(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	days, err := queryInt(r, "days", calendar.DefaultUpcomingDays)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	entries, err := h.calendar.GetUpcomingSchedules(r.Context(), user.ID, days)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to retrieve upcoming schedules")
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// FindSlots suggests free slots inside the user's preferred windows
func (h *ScheduleHandler) FindSlots(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req FindSlotsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Count == 0 {
		req.Count = calendar.DefaultSlotCount
	}

	slots, err := h.calendar.FindOptimalTimeSlots(r.Context(), user.ID, req.DurationMinutes,
		models.DateRange{Start: req.StartDate, End: req.EndDate}, req.Count)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to find time slots")
		return
	}
	respondJSON(w, http.StatusOK, slots)
}

// CheckConflicts is a dry run of CreateSchedule: it reports conflicts and writes nothing
func (h *ScheduleHandler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req calendar.ScheduleInput
	if !decodeBody(w, r, &req) {
		return
	}

	conflicts, err := h.calendar.CheckSchedule(r.Context(), user.ID, req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to check conflicts")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"has_conflicts": len(conflicts) > 0,
		"conflicts":     conflicts,
	})
}

// BulkCreate creates each item independently and reports per-item failures
func (h *ScheduleHandler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req BulkCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Items) > MaxBulkItems {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "too many items in bulk request")
		return
	}

	result := h.calendar.BulkCreateSchedules(r.Context(), user.ID, req.Items)
	status := http.StatusCreated
	if result.Successful == 0 {
		status = http.StatusOK
	}
	respondJSON(w, status, result)
}

// GetSchedule returns one entry
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	entry, err := h.calendar.GetSchedule(r.Context(), user.ID, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to retrieve schedule")
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// UpdateSchedule applies a partial update
func (h *ScheduleHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req calendar.SchedulePatch
	if !decodeBody(w, r, &req) {
		return
	}

	entry, err := h.calendar.UpdateSchedule(r.Context(), user.ID, id, req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update schedule")
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// DeleteSchedule removes an entry
func (h *ScheduleHandler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.calendar.DeleteSchedule(r.Context(), user.ID, id); err != nil {
		respondServiceError(w, h.logger, err, "Failed to delete schedule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reschedule moves an entry
func (h *ScheduleHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req RescheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.calendar.RescheduleSchedule(r.Context(), user.ID, id, req.ScheduledDate, req.StartTime)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to reschedule")
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// UpdateStatus changes an entry's status
func (h *ScheduleHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.calendar.UpdateScheduleStatus(r.Context(), user.ID, id, req.Status)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update status")
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// ListConflicts lists logged conflicts, optionally by ?status
func (h *ScheduleHandler) ListConflicts(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var status *models.ResolutionStatus
	switch s := models.ResolutionStatus(r.URL.Query().Get("status")); s {
	case "":
	case models.ResolutionUnresolved, models.ResolutionUserResolved:
		status = &s
	default:
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "invalid status: "+string(s))
		return
	}

	conflicts, err := h.calendar.ListConflicts(r.Context(), user.ID, status)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to retrieve conflicts")
		return
	}
	respondJSON(w, http.StatusOK, conflicts)
}

// ResolveConflict marks a logged conflict as resolved by the user
func (h *ScheduleHandler) ResolveConflict(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req ResolveConflictRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	conflict, err := h.calendar.ResolveConflict(r.Context(), user.ID, id, req.Action)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to resolve conflict")
		return
	}
	respondJSON(w, http.StatusOK, conflict)
}
