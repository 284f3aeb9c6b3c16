// Package config loads and validates runtime configuration from fbgen.yaml
// and FBGEN_* environment variables.
package config

import (
	"fmt"
	"time"
)

// Config is the full runtime configuration.
type Config struct {
	Output     OutputConfig     `mapstructure:"output"`
	Generator  GeneratorConfig  `mapstructure:"generator"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Matcher    MatcherConfig    `mapstructure:"matcher"`
	Linter     LinterConfig     `mapstructure:"linter"`
	Store      StoreConfig      `mapstructure:"store"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Assignment AssignmentConfig `mapstructure:"assignment"`
}

// OutputConfig controls where annotated files and reports land.
type OutputConfig struct {
	Directory string `mapstructure:"directory"`
	WrapWidth int    `mapstructure:"wrapWidth"`
}

// GeneratorConfig selects and authenticates the generation collaborator.
type GeneratorConfig struct {
	Provider string `mapstructure:"provider"` // openai or static
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"apiKey"`
	BaseURL  string `mapstructure:"baseURL"`
}

// HTTPConfig tunes the generation client's transport behavior.
type HTTPConfig struct {
	Timeout           string  `mapstructure:"timeout"`
	MaxRetries        int     `mapstructure:"maxRetries"`
	InitialBackoff    string  `mapstructure:"initialBackoff"`
	MaxBackoff        string  `mapstructure:"maxBackoff"`
	BackoffMultiplier float64 `mapstructure:"backoffMultiplier"`
}

// PipelineConfig carries the run policy constants.
type PipelineConfig struct {
	Workers           int     `mapstructure:"workers"`
	RequestsPerSecond float64 `mapstructure:"requestsPerSecond"`
	Burst             int     `mapstructure:"burst"`
	ContextWindow     int     `mapstructure:"contextWindow"`
	AnchorWindow      int     `mapstructure:"anchorWindow"`
	OverlapThreshold  float64 `mapstructure:"overlapThreshold"`
	MinChangedLines   int     `mapstructure:"minChangedLines"`
	MaxContextTokens  int     `mapstructure:"maxContextTokens"`
}

// MatcherConfig filters which paths participate in matching.
type MatcherConfig struct {
	Include []string `mapstructure:"include"`
	Exclude []string `mapstructure:"exclude"`
}

// LinterConfig configures the static-analysis collaborator for single-file
// mode.
type LinterConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// StoreConfig configures run-history persistence.
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level         string `mapstructure:"level"`
	Format        string `mapstructure:"format"`
	RedactAPIKeys bool   `mapstructure:"redactAPIKeys"`
}

// AssignmentConfig points at the rubric and problem statement fed into the
// prompts.
type AssignmentConfig struct {
	RubricFile           string `mapstructure:"rubricFile"`
	ProblemStatementFile string `mapstructure:"problemStatementFile"`
}

// Validate checks constraints that would otherwise surface as confusing
// runtime failures.
func (c Config) Validate() error {
	switch c.Generator.Provider {
	case "openai":
		if c.Generator.APIKey == "" {
			return fmt.Errorf("generator.apiKey is required for provider %q", c.Generator.Provider)
		}
	case "static":
	default:
		return fmt.Errorf("unknown generator provider %q", c.Generator.Provider)
	}

	if c.Pipeline.OverlapThreshold < 0 || c.Pipeline.OverlapThreshold > 1 {
		return fmt.Errorf("pipeline.overlapThreshold must be in [0, 1], got %v", c.Pipeline.OverlapThreshold)
	}

	for _, field := range []struct{ name, value string }{
		{"http.timeout", c.HTTP.Timeout},
		{"http.initialBackoff", c.HTTP.InitialBackoff},
		{"http.maxBackoff", c.HTTP.MaxBackoff},
	} {
		if _, err := time.ParseDuration(field.value); err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
	}

	return nil
}

// Duration parses a duration config value that Validate already checked.
func Duration(value string) time.Duration {
	d, _ := time.ParseDuration(value)
	return d
}
