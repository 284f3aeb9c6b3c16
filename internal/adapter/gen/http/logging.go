package http

import (
	"fmt"
	"regexp"
)

// MaxLoggedResponseLength is the maximum length of response text to include
// in logs. Responses longer than this are truncated so student code and
// generated feedback do not flood log aggregators.
const MaxLoggedResponseLength = 200

// TruncateForLogging safely truncates a response string for logging.
func TruncateForLogging(response string) string {
	if len(response) <= MaxLoggedResponseLength {
		return response
	}
	return response[:MaxLoggedResponseLength] + fmt.Sprintf("... [truncated, total length=%d bytes]", len(response))
}

var urlSecretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(key=)[^&"\s]+`),
	regexp.MustCompile(`(apiKey=)[^&"\s]+`),
	regexp.MustCompile(`(api_key=)[^&"\s]+`),
	regexp.MustCompile(`(token=)[^&"\s]+`),
	regexp.MustCompile(`(access_token=)[^&"\s]+`),
}

// RedactURLSecrets redacts API keys and other secrets from URLs in error
// messages, so keys passed as query parameters never reach logs.
func RedactURLSecrets(text string) string {
	if text == "" {
		return text
	}
	for _, p := range urlSecretPatterns {
		text = p.ReplaceAllString(text, "${1}[REDACTED]")
	}
	return text
}
