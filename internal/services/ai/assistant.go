package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/benvon/study-planner/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// FallbackChatAnswer is returned when the provider cannot answer
	FallbackChatAnswer = "I'm having trouble reaching the study assistant right now. " +
		"Your schedule is unchanged; please try again in a few minutes."

	// DefaultSuggestionCount is how many todo suggestions are requested by default
	DefaultSuggestionCount = 5
	// MaxSuggestionCount bounds a suggestion request
	MaxSuggestionCount = 10

	defaultSuggestionMinutes = 30
)

// ScheduleReader supplies the user's schedule for today to the assistant's prompt
type ScheduleReader interface {
	GetTodaySchedule(ctx context.Context, userID uuid.UUID) ([]*models.ScheduleEntry, error)
}

// ChatReply is the assistant's answer to one chat message
type ChatReply struct {
	Message  string `json:"message"`
	Usage    Usage  `json:"usage"`
	Fallback bool   `json:"fallback"`
}

// TodoSuggestion is one todo proposed by the assistant
type TodoSuggestion struct {
	Title            string          `json:"title"`
	Description      string          `json:"description,omitempty"`
	Priority         models.Priority `json:"priority"`
	Category         string          `json:"category,omitempty"`
	EstimatedMinutes int             `json:"estimated_minutes"`
}

// SuggestionResult carries the parsed suggestions
type SuggestionResult struct {
	Suggestions []TodoSuggestion `json:"suggestions"`
	Usage       Usage            `json:"usage"`
	Fallback    bool             `json:"fallback"`
}

// AssistantService answers study questions and proposes todos. Provider failures never
// surface to callers: they degrade to canned answers flagged with Fallback.
type AssistantService struct {
	provider  Provider
	schedules ScheduleReader
	sessions  *ChatService
	logger    *zap.Logger
}

// NewAssistantService creates an assistant. provider may be nil, in which case every answer
// is a fallback.
func NewAssistantService(provider Provider, schedules ScheduleReader, sessions *ChatService, logger *zap.Logger) *AssistantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sessions == nil {
		sessions = NewChatService(DefaultMaxSessionMessages)
	}
	return &AssistantService{provider: provider, schedules: schedules, sessions: sessions, logger: logger}
}

// Chat sends the user's message with their recent history and today's schedule
func (s *AssistantService) Chat(ctx context.Context, userID uuid.UUID, message string) (*ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("message must not be empty")
	}

	session := s.sessions.GetOrCreateSession(userID)
	s.sessions.AddMessage(session, RoleUser, message)

	if s.provider == nil {
		return &ChatReply{Message: FallbackChatAnswer, Fallback: true}, nil
	}

	messages := append([]ChatMessage{{Role: RoleSystem, Content: s.systemPrompt(ctx, userID)}}, s.sessions.History(session)...)
	resp, err := s.provider.Complete(ctx, CompletionRequest{Messages: messages})
	if err != nil {
		s.logger.Warn("assistant_chat_fallback",
			zap.String("user_id", userID.String()),
			zap.String("error_class", Classify(err)),
			zap.Error(err),
		)
		return &ChatReply{Message: FallbackChatAnswer, Fallback: true}, nil
	}

	s.sessions.AddMessage(session, RoleAssistant, resp.Text)
	return &ChatReply{Message: resp.Text, Usage: resp.Usage}, nil
}

// ResetChat forgets the user's conversation
func (s *AssistantService) ResetChat(userID uuid.UUID) {
	s.sessions.CloseSession(userID)
}

// SuggestTodos asks the model for todo suggestions toward goal. Replies that do not contain a
// parseable JSON array yield a single generic suggestion.
func (s *AssistantService) SuggestTodos(ctx context.Context, userID uuid.UUID, goal string, count int) (*SuggestionResult, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, fmt.Errorf("goal must not be empty")
	}
	if count <= 0 {
		count = DefaultSuggestionCount
	}
	count = min(count, MaxSuggestionCount)

	if s.provider == nil {
		return &SuggestionResult{Suggestions: fallbackSuggestions(goal), Fallback: true}, nil
	}

	resp, err := s.provider.Complete(ctx, CompletionRequest{
		Messages: []ChatMessage{
			{Role: RoleSystem, Content: "You are a study planner. Respond with a JSON array only."},
			{Role: RoleUser, Content: suggestionPrompt(goal, count)},
		},
	})
	if err != nil {
		s.logger.Warn("assistant_suggestions_fallback",
			zap.String("user_id", userID.String()),
			zap.String("error_class", Classify(err)),
			zap.Error(err),
		)
		return &SuggestionResult{Suggestions: fallbackSuggestions(goal), Fallback: true}, nil
	}

	suggestions, err := ParseSuggestions(resp.Text)
	if err != nil {
		s.logger.Info("assistant_suggestions_unparseable",
			zap.String("user_id", userID.String()),
			zap.String("response_preview", SanitizeResponse(resp.Text, false)),
			zap.Error(err),
		)
		return &SuggestionResult{Suggestions: fallbackSuggestions(goal), Usage: resp.Usage, Fallback: true}, nil
	}
	if len(suggestions) > count {
		suggestions = suggestions[:count]
	}
	return &SuggestionResult{Suggestions: suggestions, Usage: resp.Usage}, nil
}

// ParseSuggestions extracts the JSON array from a model reply and normalizes each entry
func ParseSuggestions(text string) ([]TodoSuggestion, error) {
	start := strings.IndexByte(text, '[')
	if start < 0 {
		return nil, fmt.Errorf("no JSON array in response")
	}
	// decode a single value so prose after the array is ignored
	var parsed []TodoSuggestion
	if err := json.NewDecoder(strings.NewReader(text[start:])).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse suggestions: %w", err)
	}

	out := make([]TodoSuggestion, 0, len(parsed))
	for _, sug := range parsed {
		sug.Title = strings.TrimSpace(sug.Title)
		if sug.Title == "" {
			continue
		}
		if !sug.Priority.Valid() {
			sug.Priority = models.PriorityMedium
		}
		if sug.EstimatedMinutes < models.MinDurationMinutes || sug.EstimatedMinutes > models.MaxDurationMinutes {
			sug.EstimatedMinutes = defaultSuggestionMinutes
		}
		out = append(out, sug)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no usable suggestions in response")
	}
	return out, nil
}

func (s *AssistantService) systemPrompt(ctx context.Context, userID uuid.UUID) string {
	var b strings.Builder
	b.WriteString("You are a friendly study assistant. Help the user plan and keep up with their learning. Be concise.")

	if s.schedules == nil {
		return b.String()
	}
	entries, err := s.schedules.GetTodaySchedule(ctx, userID)
	if err != nil {
		s.logger.Debug("assistant_schedule_unavailable", zap.String("user_id", userID.String()), zap.Error(err))
		return b.String()
	}
	if len(entries) == 0 {
		b.WriteString("\n\nThe user has nothing scheduled today.")
		return b.String()
	}
	b.WriteString("\n\nToday's schedule:")
	for _, e := range entries {
		start := "anytime"
		if e.HasStartTime() {
			start = *e.StartTime
		}
		fmt.Fprintf(&b, "\n- %s %s (%d min, %s, %s)", start, e.Title, e.DurationMinutes, e.TaskType, e.Status)
	}
	return b.String()
}

func suggestionPrompt(goal string, count int) string {
	return fmt.Sprintf("Suggest %d study todos that help with this goal: %q.\n"+
		"Return a JSON array of objects with the fields title, description, priority "+
		"(low|medium|high|urgent), category and estimated_minutes.", count, goal)
}

func fallbackSuggestions(goal string) []TodoSuggestion {
	return []TodoSuggestion{{
		Title:            "Review material for: " + goal,
		Description:      "Spend a focused session reviewing notes and resources for this goal.",
		Priority:         models.PriorityMedium,
		Category:         "study",
		EstimatedMinutes: defaultSuggestionMinutes,
	}}
}
