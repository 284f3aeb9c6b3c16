package feedback

import "context"

// Logger provides structured logging for the feedback use case. The
// orchestrator logs per-file state transitions, token usage, and the
// warnings that accompany degraded results.
type Logger interface {
	// LogWarning logs a warning message with structured fields.
	LogWarning(ctx context.Context, message string, fields map[string]interface{})

	// LogInfo logs an informational message with structured fields.
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
}
