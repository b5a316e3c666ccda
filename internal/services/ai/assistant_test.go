package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/benvon/study-planner/internal/models"
	"github.com/google/uuid"
)

type mockProvider struct {
	completeFunc func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	requests     []CompletionRequest
}

func (m *mockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.requests = append(m.requests, req)
	return m.completeFunc(ctx, req)
}

type mockSchedules struct {
	getTodayFunc func(ctx context.Context, userID uuid.UUID) ([]*models.ScheduleEntry, error)
}

func (m *mockSchedules) GetTodaySchedule(ctx context.Context, userID uuid.UUID) ([]*models.ScheduleEntry, error) {
	return m.getTodayFunc(ctx, userID)
}

func reply(text string) func(context.Context, CompletionRequest) (*CompletionResponse, error) {
	return func(context.Context, CompletionRequest) (*CompletionResponse, error) {
		return &CompletionResponse{Text: text, Usage: Usage{TotalTokens: 42}}, nil
	}
}

func TestAssistantService_ChatIncludesTodaysSchedule(t *testing.T) {
	t.Parallel()

	start := "09:00"
	schedules := &mockSchedules{getTodayFunc: func(context.Context, uuid.UUID) ([]*models.ScheduleEntry, error) {
		return []*models.ScheduleEntry{{
			Title: "Watch concurrency talk", StartTime: &start, DurationMinutes: 45,
			TaskType: models.TaskTypeVideo, Status: models.ScheduleStatusScheduled,
		}}, nil
	}}
	provider := &mockProvider{completeFunc: reply("Start with the talk at 9.")}
	svc := NewAssistantService(provider, schedules, nil, nil)

	got, err := svc.Chat(context.Background(), uuid.New(), "What should I do first?")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if got.Fallback || got.Message != "Start with the talk at 9." || got.Usage.TotalTokens != 42 {
		t.Errorf("Chat() = %+v", got)
	}

	req := provider.requests[0]
	if req.Messages[0].Role != RoleSystem || !strings.Contains(req.Messages[0].Content, "09:00 Watch concurrency talk") {
		t.Errorf("system prompt = %q, want today's schedule", req.Messages[0].Content)
	}
	if last := req.Messages[len(req.Messages)-1]; last.Role != RoleUser || last.Content != "What should I do first?" {
		t.Errorf("last message = %+v", last)
	}
}

func TestAssistantService_ChatKeepsHistory(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{completeFunc: reply("ok")}
	svc := NewAssistantService(provider, nil, NewChatService(4), nil)
	userID := uuid.New()

	for _, msg := range []string{"one", "two", "three"} {
		if _, err := svc.Chat(context.Background(), userID, msg); err != nil {
			t.Fatalf("Chat(%s) error = %v", msg, err)
		}
	}

	// system prompt plus the 4 most recent messages
	last := provider.requests[2]
	if len(last.Messages) != 5 {
		t.Fatalf("messages sent = %d, want 5", len(last.Messages))
	}
	for _, m := range last.Messages {
		if m.Content == "one" {
			t.Error("oldest message should have been dropped from history")
		}
	}
	if last.Messages[4].Content != "three" {
		t.Errorf("newest message = %q, want %q", last.Messages[4].Content, "three")
	}

	svc.ResetChat(userID)
	if _, err := svc.Chat(context.Background(), userID, "fresh"); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if n := len(provider.requests[3].Messages); n != 2 {
		t.Errorf("messages after reset = %d, want 2", n)
	}
}

func TestAssistantService_ChatFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		provider Provider
	}{
		{name: "no provider configured", provider: nil},
		{name: "provider error", provider: &mockProvider{completeFunc: func(context.Context, CompletionRequest) (*CompletionResponse, error) {
			return nil, errors.New("429 too many requests")
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			schedules := &mockSchedules{getTodayFunc: func(context.Context, uuid.UUID) ([]*models.ScheduleEntry, error) {
				return nil, errors.New("database unavailable")
			}}
			svc := NewAssistantService(tt.provider, schedules, nil, nil)
			got, err := svc.Chat(context.Background(), uuid.New(), "hello")
			if err != nil {
				t.Fatalf("Chat() error = %v, want fallback", err)
			}
			if !got.Fallback || got.Message != FallbackChatAnswer {
				t.Errorf("Chat() = %+v, want fallback answer", got)
			}
		})
	}
}

func TestAssistantService_ChatRejectsEmptyMessage(t *testing.T) {
	t.Parallel()

	svc := NewAssistantService(nil, nil, nil, nil)
	if _, err := svc.Chat(context.Background(), uuid.New(), "   "); err == nil {
		t.Error("Chat() error = nil, want error for empty message")
	}
}

func TestAssistantService_SuggestTodos(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		text         string
		count        int
		wantFallback bool
		wantTitles   []string
	}{
		{
			name:       "array wrapped in prose",
			text:       "Sure! Here you go:\n[{\"title\":\"Read Effective Go\",\"priority\":\"high\",\"estimated_minutes\":60},{\"title\":\"Write a worker pool\",\"estimated_minutes\":90}]\nGood luck!",
			wantTitles: []string{"Read Effective Go", "Write a worker pool"},
		},
		{
			name:       "count truncates",
			text:       `[{"title":"a"},{"title":"b"},{"title":"c"}]`,
			count:      2,
			wantTitles: []string{"a", "b"},
		},
		{
			name:         "no array",
			text:         "I think you should study more.",
			wantFallback: true,
		},
		{
			name:         "malformed array",
			text:         `[{"title": "broken",}]`,
			wantFallback: true,
		},
		{
			name:         "only empty titles",
			text:         `[{"title":"  "}]`,
			wantFallback: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := NewAssistantService(&mockProvider{completeFunc: reply(tt.text)}, nil, nil, nil)
			got, err := svc.SuggestTodos(context.Background(), uuid.New(), "learn Go", tt.count)
			if err != nil {
				t.Fatalf("SuggestTodos() error = %v", err)
			}
			if got.Fallback != tt.wantFallback {
				t.Fatalf("Fallback = %v, want %v", got.Fallback, tt.wantFallback)
			}
			if tt.wantFallback {
				if len(got.Suggestions) != 1 || !strings.Contains(got.Suggestions[0].Title, "learn Go") {
					t.Errorf("fallback suggestions = %+v", got.Suggestions)
				}
				return
			}
			if len(got.Suggestions) != len(tt.wantTitles) {
				t.Fatalf("suggestions = %d, want %d", len(got.Suggestions), len(tt.wantTitles))
			}
			for i, s := range got.Suggestions {
				if s.Title != tt.wantTitles[i] {
					t.Errorf("suggestion %d title = %q, want %q", i, s.Title, tt.wantTitles[i])
				}
			}
		})
	}
}

func TestParseSuggestions_Normalizes(t *testing.T) {
	t.Parallel()

	got, err := ParseSuggestions(`[{"title":" Practice ","priority":"critical","estimated_minutes":9000}]`)
	if err != nil {
		t.Fatalf("ParseSuggestions() error = %v", err)
	}
	s := got[0]
	if s.Title != "Practice" || s.Priority != models.PriorityMedium || s.EstimatedMinutes != defaultSuggestionMinutes {
		t.Errorf("ParseSuggestions() = %+v, want trimmed title, medium priority, default minutes", s)
	}

	// a bracket in the trailing prose must not be swallowed into the array
	got, err = ParseSuggestions(`Here you go: [{"title":"Read chapter 1","estimated_minutes":30}] Hope this helps [1].`)
	if err != nil {
		t.Fatalf("ParseSuggestions() with trailing brackets error = %v", err)
	}
	if len(got) != 1 || got[0].Title != "Read chapter 1" || got[0].EstimatedMinutes != 30 {
		t.Errorf("ParseSuggestions() with trailing brackets = %+v, want one 30 minute chapter", got)
	}
}
