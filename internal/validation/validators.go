package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/benvon/study-planner/internal/clock"
	"github.com/benvon/study-planner/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums and time formats
	// These should never fail in normal operation, but log if they do
	custom := map[string]validator.Func{
		"hhmm":            validateHHMM,
		"task_type":       validateTaskType,
		"schedule_status": validateScheduleStatus,
		"priority":        validatePriority,
		"todo_status":     validateTodoStatus,
	}
	for tag, fn := range custom {
		if err := Validate.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("failed to register %s validator: %v", tag, err))
		}
	}
}

// validateHHMM validates a strict 24-hour HH:MM string
func validateHHMM(fl validator.FieldLevel) bool {
	return clock.IsHHMM(fl.Field().String())
}

func validateTaskType(fl validator.FieldLevel) bool {
	return models.TaskType(fl.Field().String()).Valid()
}

// validateScheduleStatus accepts the legacy "pending" value too
func validateScheduleStatus(fl validator.FieldLevel) bool {
	return models.ScheduleStatus(fl.Field().String()).Valid()
}

func validatePriority(fl validator.FieldLevel) bool {
	return models.Priority(fl.Field().String()).Valid()
}

// validateTodoStatus validates that a string is a valid TodoStatus enum value
func validateTodoStatus(fl validator.FieldLevel) bool {
	return models.TodoStatus(fl.Field().String()).Valid()
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateTodoStatus validates a TodoStatus string value
func ValidateTodoStatus(value string) error {
	if !models.TodoStatus(value).Valid() {
		return fmt.Errorf("invalid status: %s (must be 'pending', 'in_progress', or 'completed')", value)
	}
	return nil
}

// FormatErrors flattens validator errors into "field: rule" messages
func FormatErrors(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
