package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	logpkg "github.com/benvon/study-planner/internal/logger"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second
	// DefaultMaxTokens bounds replies when neither the request nor the config sets a limit
	DefaultMaxTokens = 800

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

// OpenAIConfig configures the OpenAI provider
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// Temperature is omitted from requests when nil; some models only accept their default
	Temperature *float64
	MaxTokens   int
	Logger      *zap.Logger
	DebugMode   bool
}

// OpenAIProvider implements Provider using OpenAI's chat completions API
type OpenAIProvider struct {
	client      openai.Client
	model       string
	temperature *float64
	maxTokens   int
	logger      *zap.Logger
	debugMode   bool
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIProvider{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      cfg.Logger,
		debugMode:   cfg.DebugMode,
	}
}

// Complete sends the conversation to the chat completions endpoint
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	requestID := logpkg.RequestID(ctx)
	userID := logpkg.UserID(ctx)

	params := p.buildParams(req)

	// Log request if debug mode enabled
	if p.debugMode {
		previews := make([]string, 0, len(req.Messages))
		for _, msg := range req.Messages {
			previews = append(previews, SanitizePrompt(msg.Content, false))
		}
		p.logger.Debug("llm_api_request",
			zap.String("model", string(params.Model)),
			zap.Int("message_count", len(params.Messages)),
			zap.Strings("message_previews", previews),
			zap.String("user_id", userID),
			zap.String("request_id", requestID),
		)
	}

	startTime := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, params)
	latency := time.Since(startTime)

	if err != nil {
		p.logger.Debug("llm_api_error",
			zap.String("model", string(params.Model)),
			zap.String("error_class", Classify(err)),
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
		// Wrap error with API error details for better handling
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return nil, fmt.Errorf("failed to complete chat: %w", apiErr)
		}
		return nil, fmt.Errorf("failed to complete chat: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New(ErrNoChoicesInResponse)
	}

	content := resp.Choices[0].Message.Content

	if p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("model", resp.Model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.Int64("total_tokens", resp.Usage.TotalTokens),
			zap.String("user_id", userID),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return &CompletionResponse{
		Text:  content,
		Model: resp.Model,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func (p *OpenAIProvider) buildParams(req CompletionRequest) openai.ChatCompletionNewParams {
	model := req.Model
	if model == "" {
		model = p.model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.maxTokens
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:     shared.ChatModel(model),
		Messages:  messages,
		MaxTokens: openai.Int(int64(maxTokens)),
	}
	temperature := req.Temperature
	if temperature == nil {
		temperature = p.temperature
	}
	if temperature != nil {
		params.Temperature = openai.Float(*temperature)
	}
	return params
}

// RegisterOpenAI registers the OpenAI provider with the registry
func RegisterOpenAI(registry *ProviderRegistry, logger *zap.Logger, debugMode bool) {
	registry.Register("openai", func(config map[string]string) (Provider, error) {
		apiKey, ok := config["api_key"]
		if !ok || apiKey == "" {
			return nil, fmt.Errorf("openai api_key is required")
		}

		cfg := OpenAIConfig{
			APIKey:    apiKey,
			BaseURL:   config["base_url"],
			Model:     config["model"],
			Logger:    logger,
			DebugMode: debugMode,
		}
		if v := config["temperature"]; v != "" {
			t, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid openai temperature %q: %w", v, err)
			}
			cfg.Temperature = &t
		}
		if v := config["max_tokens"]; v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("invalid openai max_tokens %q: %w", v, err)
			}
			cfg.MaxTokens = n
		}
		if logger != nil {
			logger.Info("ai_provider_configured",
				zap.String("provider", "openai"),
				zap.String("model", cfg.Model),
				zap.String("api_key", SanitizeAPIKey(apiKey)),
			)
		}
		return NewOpenAIProvider(cfg), nil
	})
}
