// Package observability provides the structured pipeline logger handed to
// the feedback orchestrator. It mirrors the generation-layer logger's
// level and format handling so both layers can be driven from the same
// configuration.
package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/edutools/fbgen/internal/usecase/feedback"
)

// Level controls which pipeline events are emitted.
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
	LevelDebug
)

// ParseLevel maps a configuration string to a Level. Unknown values fall
// back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "error":
		return LevelError
	case "warn", "warning":
		return LevelWarning
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// Format selects human-readable or JSON log lines.
type Format int

const (
	FormatHuman Format = iota
	FormatJSON
)

// ParseFormat maps a configuration string to a Format.
func ParseFormat(s string) Format {
	if strings.ToLower(s) == "json" {
		return FormatJSON
	}
	return FormatHuman
}

// PipelineLogger emits structured pipeline events via the standard log
// package.
type PipelineLogger struct {
	level  Level
	format Format
	now    func() time.Time
}

// NewPipelineLogger creates a logger with the given level and format.
func NewPipelineLogger(level Level, format Format) *PipelineLogger {
	return &PipelineLogger{
		level:  level,
		format: format,
		now:    time.Now,
	}
}

// LogInfo logs an informational pipeline event with structured fields.
func (l *PipelineLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level < LevelInfo {
		return
	}
	l.emit("INFO", message, fields)
}

// LogWarning logs a degraded-but-continuing pipeline event.
func (l *PipelineLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level < LevelWarning {
		return
	}
	l.emit("WARN", message, fields)
}

func (l *PipelineLogger) emit(level, message string, fields map[string]interface{}) {
	if l.format == FormatJSON {
		entry := map[string]interface{}{
			"timestamp": l.now().UTC().Format(time.RFC3339),
			"level":     level,
			"message":   message,
		}
		for k, v := range fields {
			entry[k] = v
		}
		data, err := json.Marshal(entry)
		if err != nil {
			log.Printf("[%s] %s (failed to marshal fields: %v)", level, message, err)
			return
		}
		log.Println(string(data))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", level, message)
	for _, k := range sortedKeys(fields) {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	log.Println(b.String())
}

// sortedKeys keeps human-format field order stable across runs.
func sortedKeys(fields map[string]interface{}) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var _ feedback.Logger = (*PipelineLogger)(nil)
