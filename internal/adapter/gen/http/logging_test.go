package http_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	genhttp "github.com/edutools/fbgen/internal/adapter/gen/http"
)

func TestRedactAPIKey(t *testing.T) {
	logger := genhttp.NewDefaultLogger(genhttp.LogLevelInfo, genhttp.LogFormatHuman, true)

	tests := []struct {
		name string
		key  string
		want string
	}{
		{"long key keeps last four", "sk-abcdef1234567890", "[REDACTED-7890]"},
		{"short key fully redacted", "abc", "[REDACTED]"},
		{"empty key fully redacted", "", "[REDACTED]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.RedactAPIKey(tt.key))
		})
	}
}

func TestTruncateForLogging(t *testing.T) {
	short := "a short response"
	assert.Equal(t, short, genhttp.TruncateForLogging(short))

	long := strings.Repeat("x", genhttp.MaxLoggedResponseLength+50)
	truncated := genhttp.TruncateForLogging(long)
	assert.Contains(t, truncated, "[truncated, total length=250 bytes]")
	assert.Less(t, len(truncated), len(long))
}

func TestRedactURLSecrets(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "key query parameter",
			in:   "request to https://api.example.com/v1?key=secret123 failed",
			want: "request to https://api.example.com/v1?key=[REDACTED] failed",
		},
		{
			name: "api_key query parameter",
			in:   "https://api.example.com/v1?api_key=abc&model=gpt",
			want: "https://api.example.com/v1?api_key=[REDACTED]&model=gpt",
		},
		{
			name: "token query parameter",
			in:   "GET https://host/path?token=tok123: 401",
			want: "GET https://host/path?token=[REDACTED]: 401",
		},
		{
			name: "no secrets untouched",
			in:   "plain error message",
			want: "plain error message",
		},
		{
			name: "empty string",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, genhttp.RedactURLSecrets(tt.in))
		})
	}
}

func TestErrorTypeMatching(t *testing.T) {
	rateLimited := genhttp.NewRateLimitError("openai", "slow down")

	assert.True(t, rateLimited.IsRetryable())
	assert.Equal(t, 429, rateLimited.StatusCode)
	assert.Contains(t, rateLimited.Error(), "rate limit exceeded")
	assert.Contains(t, rateLimited.Error(), "openai")

	auth := genhttp.NewAuthenticationError("openai", "bad key")
	assert.False(t, auth.IsRetryable())
	assert.Equal(t, 401, auth.StatusCode)
}
