package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(LoaderOptions{ConfigPaths: []string{t.TempDir()}})
	require.NoError(t, err)

	assert.Equal(t, "out", cfg.Output.Directory)
	assert.Equal(t, 80, cfg.Output.WrapWidth)
	assert.Equal(t, "static", cfg.Generator.Provider)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, 3, cfg.Pipeline.ContextWindow)
	assert.Equal(t, 2, cfg.Pipeline.AnchorWindow)
	assert.Equal(t, 0.80, cfg.Pipeline.OverlapThreshold)
	assert.Equal(t, 10, cfg.Pipeline.MinChangedLines)
	assert.Equal(t, "60s", cfg.HTTP.Timeout)
	assert.Equal(t, "clang-tidy", cfg.Linter.Command)
	assert.True(t, cfg.Logging.RedactAPIKeys)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
output:
  directory: feedback
pipeline:
  workers: 8
  minChangedLines: 5
generator:
  provider: openai
  model: gpt-4o-mini
  apiKey: sk-test
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fbgen.yaml"), []byte(content), 0o644))

	cfg, err := Load(LoaderOptions{ConfigPaths: []string{dir}})
	require.NoError(t, err)

	assert.Equal(t, "feedback", cfg.Output.Directory)
	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.Equal(t, 5, cfg.Pipeline.MinChangedLines)
	assert.Equal(t, "openai", cfg.Generator.Provider)
	// Untouched keys keep their defaults.
	assert.Equal(t, 2, cfg.Pipeline.AnchorWindow)
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("FBGEN_TEST_KEY", "sk-from-env")

	dir := t.TempDir()
	content := `
generator:
  provider: openai
  apiKey: ${FBGEN_TEST_KEY}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fbgen.yaml"), []byte(content), 0o644))

	cfg, err := Load(LoaderOptions{ConfigPaths: []string{dir}})
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.Generator.APIKey)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(LoaderOptions{ConfigPaths: []string{t.TempDir()}})
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.Generator.Provider = "openai"
	bad.Generator.APIKey = ""
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Generator.Provider = "mystery"
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Pipeline.OverlapThreshold = 1.5
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.HTTP.Timeout = "sixty seconds"
	assert.Error(t, bad.Validate())
}
