package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/benvon/study-planner/internal/services/ai"
)

func TestAssistantHandler_FallsBackWithoutProvider(t *testing.T) {
	t.Parallel()

	env := newHandlerEnv(t)

	rr := env.do(t, http.MethodPost, "/api/v1/assistant/chat", map[string]string{"message": "What should I study today?"})
	reply := decodeData[ai.ChatReply](t, rr)
	if !reply.Fallback || reply.Message != ai.FallbackChatAnswer {
		t.Errorf("reply = %+v", reply)
	}

	rr = env.do(t, http.MethodPost, "/api/v1/assistant/suggestions", map[string]any{"goal": "learn generics", "count": 3})
	result := decodeData[ai.SuggestionResult](t, rr)
	if !result.Fallback || len(result.Suggestions) == 0 {
		t.Errorf("suggestions = %+v", result)
	}

	rr = env.do(t, http.MethodDelete, "/api/v1/assistant/chat", nil)
	if rr.Code != http.StatusNoContent {
		t.Errorf("reset: expected 204, got %d", rr.Code)
	}
}

func TestAssistantHandler_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		body any
	}{
		{name: "empty message", path: "/api/v1/assistant/chat", body: map[string]string{"message": ""}},
		{name: "whitespace message", path: "/api/v1/assistant/chat", body: map[string]string{"message": "   "}},
		{name: "message too long", path: "/api/v1/assistant/chat", body: map[string]string{"message": strings.Repeat("a", 4001)}},
		{name: "missing goal", path: "/api/v1/assistant/suggestions", body: map[string]any{"count": 2}},
		{name: "too many suggestions", path: "/api/v1/assistant/suggestions", body: map[string]any{"goal": "go", "count": 11}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newHandlerEnv(t)
			rr := env.do(t, http.MethodPost, tt.path, tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rr.Code, rr.Body.String())
			}
		})
	}
}
