package middleware

import (
	"net/http"
	"time"
)

// DefaultRequestTimeout bounds a single API request
const DefaultRequestTimeout = 30 * time.Second

const timeoutBody = `{"success":false,"error":"Request timed out","code":"TIMEOUT"}`

// Timeout cancels the request context after timeout and answers 503 with the JSON envelope.
// Assistant routes get their own, longer budget since they wait on the model provider.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, timeoutBody)
	}
}
