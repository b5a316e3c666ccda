package calendar

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/benvon/study-planner/internal/models"
)

// ErrorCode is the machine-readable code carried by calendar failures
type ErrorCode string

const (
	CodeInvalidTimeSlot     ErrorCode = "INVALID_TIME_SLOT"
	CodeScheduleConflict    ErrorCode = "SCHEDULE_CONFLICT"
	CodeScheduleNotFound    ErrorCode = "SCHEDULE_NOT_FOUND"
	CodeJourneyNotFound     ErrorCode = "JOURNEY_NOT_FOUND"
	CodeCreateFailed        ErrorCode = "CREATE_FAILED"
	CodeUpdateFailed        ErrorCode = "UPDATE_FAILED"
	CodeDeleteFailed        ErrorCode = "DELETE_FAILED"
	CodeFetchError          ErrorCode = "FETCH_ERROR"
	CodeConflictCheckFailed ErrorCode = "CONFLICT_CHECK_FAILED"
	CodeConflictNotFound    ErrorCode = "CONFLICT_NOT_FOUND"
	CodePreferencesFailed   ErrorCode = "PREFERENCES_FAILED"
	CodeInvalidPreferences  ErrorCode = "INVALID_PREFERENCES"
	CodeTodoNotFound        ErrorCode = "TODO_NOT_FOUND"
	CodeNoAvailableSlot     ErrorCode = "NO_AVAILABLE_SLOT"
)

// CodedError is implemented by every calendar error so transports can map them uniformly
type CodedError interface {
	error
	ErrorCode() ErrorCode
	HTTPStatus() int
}

// CalendarError is the general calendar failure
type CalendarError struct {
	Code    ErrorCode
	Status  int
	Message string
	Err     error
}

func (e *CalendarError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *CalendarError) Unwrap() error { return e.Err }

// ErrorCode returns the machine-readable code
func (e *CalendarError) ErrorCode() ErrorCode { return e.Code }

// HTTPStatus returns the status a transport should answer with
func (e *CalendarError) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

func newError(code ErrorCode, status int, message string, err error) *CalendarError {
	return &CalendarError{Code: code, Status: status, Message: message, Err: err}
}

// InvalidTimeSlotError reports malformed schedule input. It is raised before any I/O.
type InvalidTimeSlotError struct {
	Field  string
	Reason string
}

func (e *InvalidTimeSlotError) Error() string {
	if e.Field == "" {
		return "invalid time slot: " + e.Reason
	}
	return fmt.Sprintf("invalid time slot: %s %s", e.Field, e.Reason)
}

// ErrorCode returns INVALID_TIME_SLOT
func (e *InvalidTimeSlotError) ErrorCode() ErrorCode { return CodeInvalidTimeSlot }

// HTTPStatus returns 400
func (e *InvalidTimeSlotError) HTTPStatus() int { return http.StatusBadRequest }

func invalid(field, reason string) *InvalidTimeSlotError {
	return &InvalidTimeSlotError{Field: field, Reason: reason}
}

// ScheduleConflictError reports that a write was rejected because of conflicts
type ScheduleConflictError struct {
	Conflicts []models.ScheduleConflict
}

func (e *ScheduleConflictError) Error() string {
	return fmt.Sprintf("schedule conflicts detected: %d conflict(s)", len(e.Conflicts))
}

// ErrorCode returns SCHEDULE_CONFLICT
func (e *ScheduleConflictError) ErrorCode() ErrorCode { return CodeScheduleConflict }

// HTTPStatus returns 409
func (e *ScheduleConflictError) HTTPStatus() int { return http.StatusConflict }

// ScheduleNotFoundError reports a missing schedule entry
type ScheduleNotFoundError struct {
	ID string
}

func (e *ScheduleNotFoundError) Error() string {
	return fmt.Sprintf("schedule not found: %s", e.ID)
}

// ErrorCode returns SCHEDULE_NOT_FOUND
func (e *ScheduleNotFoundError) ErrorCode() ErrorCode { return CodeScheduleNotFound }

// HTTPStatus returns 404
func (e *ScheduleNotFoundError) HTTPStatus() int { return http.StatusNotFound }

// IsConflict reports whether err is (or wraps) a ScheduleConflictError
func IsConflict(err error) bool {
	var conflictErr *ScheduleConflictError
	return errors.As(err, &conflictErr)
}

// IsInvalidTimeSlot reports whether err is (or wraps) an InvalidTimeSlotError
func IsInvalidTimeSlot(err error) bool {
	var invalidErr *InvalidTimeSlotError
	return errors.As(err, &invalidErr)
}

// CodeOf returns the calendar code carried by err, or "" for foreign errors
func CodeOf(err error) ErrorCode {
	var coded CodedError
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}
	return ""
}
