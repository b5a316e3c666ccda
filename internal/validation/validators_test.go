package validation

import (
	"strings"
	"testing"
)

type tagged struct {
	Start    string `validate:"omitempty,hhmm"`
	TaskType string `validate:"omitempty,task_type"`
	Status   string `validate:"omitempty,schedule_status"`
	Priority string `validate:"omitempty,priority"`
	Todo     string `validate:"omitempty,todo_status"`
}

func TestCustomTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   tagged
		wantErr string
	}{
		{name: "all valid", value: tagged{Start: "23:59", TaskType: "video", Status: "missed", Priority: "urgent", Todo: "in_progress"}},
		{name: "legacy pending status", value: tagged{Status: "pending"}},
		{name: "bad time", value: tagged{Start: "7:30"}, wantErr: "hhmm"},
		{name: "bad task type", value: tagged{TaskType: "lecture"}, wantErr: "task_type"},
		{name: "bad status", value: tagged{Status: "done"}, wantErr: "schedule_status"},
		{name: "bad priority", value: tagged{Priority: "critical"}, wantErr: "priority"},
		{name: "bad todo status", value: tagged{Todo: "processing"}, wantErr: "todo_status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Validate.Struct(tt.value)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate.Struct() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate.Struct() error = nil, want failure")
			}
			if msg := FormatErrors(err); !strings.Contains(msg, tt.wantErr) {
				t.Errorf("FormatErrors() = %q, want it to mention %q", msg, tt.wantErr)
			}
		})
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	got := SanitizeText("  hello\x00 world\n\tok  ")
	if got != "hello world\n\tok" {
		t.Errorf("SanitizeText() = %q", got)
	}
}

func TestValidateTodoStatus(t *testing.T) {
	t.Parallel()

	if err := ValidateTodoStatus("completed"); err != nil {
		t.Errorf("ValidateTodoStatus(completed) error = %v", err)
	}
	if err := ValidateTodoStatus("processed"); err == nil {
		t.Error("ValidateTodoStatus(processed) error = nil, want error")
	}
}
