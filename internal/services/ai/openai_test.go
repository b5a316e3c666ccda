package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAIProvider_Complete(t *testing.T) {
	t.Parallel()

	var got struct {
		Model       string           `json:"model"`
		Messages    []map[string]any `json:"messages"`
		MaxTokens   int              `json:"max_tokens"`
		Temperature *float64         `json:"temperature"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %s, want chat completions", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Plan your week."}}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 4, "total_tokens": 16}
		}`))
	}))
	defer server.Close()

	temperature := 0.2
	provider := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL, Temperature: &temperature, MaxTokens: 256})

	resp, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []ChatMessage{
			{Role: RoleSystem, Content: "be brief"},
			{Role: RoleUser, Content: "help"},
		},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Text != "Plan your week." {
		t.Errorf("Text = %q", resp.Text)
	}
	if resp.Usage.PromptTokens != 12 || resp.Usage.TotalTokens != 16 {
		t.Errorf("Usage = %+v", resp.Usage)
	}

	if got.Model != DefaultOpenAIModel {
		t.Errorf("model = %q, want %q", got.Model, DefaultOpenAIModel)
	}
	if len(got.Messages) != 2 || got.Messages[0]["role"] != "system" {
		t.Errorf("messages = %+v", got.Messages)
	}
	if got.MaxTokens != 256 {
		t.Errorf("max_tokens = %d, want 256", got.MaxTokens)
	}
	if got.Temperature == nil || *got.Temperature != 0.2 {
		t.Errorf("temperature = %v, want 0.2", got.Temperature)
	}
}

func TestOpenAIProvider_CompleteError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"message": "bad model", "type": "invalid_request_error", "code": "model_not_found"}}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})
	_, err := provider.Complete(context.Background(), CompletionRequest{Messages: []ChatMessage{{Role: RoleUser, Content: "hi"}}})
	if err == nil {
		t.Fatal("Complete() error = nil, want error")
	}
	if Classify(err) != ClassProviderError {
		t.Errorf("Classify() = %s, want %s", Classify(err), ClassProviderError)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "rate limit api error", err: &APIError{StatusCode: 429}, want: ClassRateLimited},
		{name: "quota api error", err: &APIError{StatusCode: 429, Code: "insufficient_quota", IsPermanent: true}, want: ClassQuotaExceeded},
		{name: "rate limit text", err: errors.New("POST: 429 Too Many Requests"), want: ClassRateLimited},
		{name: "billing text", err: errors.New("billing hard limit reached"), want: ClassQuotaExceeded},
		{name: "other", err: errors.New("connection reset"), want: ClassProviderError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExtractAPIError_ParsesEmbeddedJSON(t *testing.T) {
	t.Parallel()

	err := errors.New(`429 Too Many Requests {"message":"You exceeded your quota","type":"insufficient_quota","code":"insufficient_quota"}`)
	apiErr := ExtractAPIError(err)
	if apiErr == nil {
		t.Fatal("ExtractAPIError() = nil")
	}
	if !apiErr.IsPermanent || apiErr.Code != "insufficient_quota" {
		t.Errorf("ExtractAPIError() = %+v, want permanent quota error", apiErr)
	}
	if ExtractAPIError(errors.New("timeout")) != nil {
		t.Error("ExtractAPIError(timeout) should be nil")
	}
}

func TestProviderRegistry(t *testing.T) {
	t.Parallel()

	registry := NewProviderRegistry()
	RegisterOpenAI(registry, nil, false)

	if _, err := registry.GetProvider("openai", map[string]string{}); err == nil {
		t.Error("GetProvider() without api key error = nil")
	}
	if _, err := registry.GetProvider("openai", map[string]string{"api_key": "k", "temperature": "hot"}); err == nil {
		t.Error("GetProvider() with bad temperature error = nil")
	}
	p, err := registry.GetProvider("openai", map[string]string{"api_key": "k", "temperature": "0.5", "max_tokens": "100"})
	if err != nil || p == nil {
		t.Fatalf("GetProvider() = %v, %v", p, err)
	}
	var notFound *ErrProviderNotFound
	if _, err := registry.GetProvider("anthropic", nil); !errors.As(err, &notFound) {
		t.Errorf("GetProvider(unknown) error = %v, want ErrProviderNotFound", err)
	}
}
