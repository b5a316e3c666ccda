package ai

import (
	"github.com/benvon/study-planner/internal/logger"
)

// RedactedValue replaces secrets in log entries
const RedactedValue = "[REDACTED]"

// SanitizeAPIKey keeps the first and last four characters of a key for log correlation
func SanitizeAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 8 {
		return RedactedValue
	}
	return apiKey[:4] + RedactedValue + apiKey[len(apiKey)-4:]
}

// SanitizePrompt returns a log-safe preview of a prompt
func SanitizePrompt(prompt string, fullLog bool) string {
	return logger.Preview(prompt, fullLog)
}

// SanitizeResponse returns a log-safe preview of a model reply
func SanitizeResponse(response string, fullLog bool) string {
	return logger.Preview(response, fullLog)
}
