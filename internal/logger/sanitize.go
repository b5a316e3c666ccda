package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Length limits applied before a value reaches a log entry
const (
	MaxPathLength          = 500
	MaxUserIDLength        = 128
	MaxErrorMessageLength  = 1000
	MaxGeneralStringLength = 2000
	// MaxPreviewLength bounds prompt and completion previews outside debug mode
	MaxPreviewLength      = 200
	MaxDebugContentLength = 10000
)

// SanitizePath makes a URL path safe to log
func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

// SanitizeString drops invalid UTF-8 and control characters (tab, newline and CR survive)
// and truncates to maxLength bytes. A non-positive maxLength means MaxGeneralStringLength.
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
	if len(s) > maxLength {
		s = strings.ToValidUTF8(s[:maxLength], "") + "..."
	}
	return s
}

// SanitizeError returns err's message made safe to log
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}

// SanitizeUserID bounds a user supplied id
func SanitizeUserID(userID string) string {
	return SanitizeString(userID, MaxUserIDLength)
}

// Preview shortens model prompts and replies. full raises the limit for debug logging.
func Preview(content string, full bool) string {
	if full {
		return SanitizeString(content, MaxDebugContentLength)
	}
	return SanitizeString(content, MaxPreviewLength)
}
