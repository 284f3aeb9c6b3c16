package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// LoaderOptions describes how configuration should be discovered.
type LoaderOptions struct {
	ConfigPaths []string
	FileName    string
	EnvPrefix   string
}

// Load returns the merged configuration from files and environment
// variables.
func Load(opts LoaderOptions) (Config, error) {
	v := viper.New()

	name := opts.FileName
	if name == "" {
		name = "fbgen"
	}

	configFile := locateConfigFile(name, opts.ConfigPaths)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(name)
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = "FBGEN"
	}
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AllowEmptyEnv(true)

	setDefaults(v)

	if configFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg = expandEnvVars(cfg)

	return cfg, nil
}

// expandEnvVars expands ${VAR} and $VAR syntax in configuration strings,
// so fbgen.yaml can reference secrets without embedding them.
func expandEnvVars(cfg Config) Config {
	cfg.Generator.APIKey = expandEnvString(cfg.Generator.APIKey)
	cfg.Generator.Model = expandEnvString(cfg.Generator.Model)
	cfg.Generator.BaseURL = expandEnvString(cfg.Generator.BaseURL)
	cfg.Output.Directory = expandEnvString(cfg.Output.Directory)
	cfg.Store.Path = expandEnvString(cfg.Store.Path)
	cfg.Linter.Command = expandEnvString(cfg.Linter.Command)
	cfg.Assignment.RubricFile = expandEnvString(cfg.Assignment.RubricFile)
	cfg.Assignment.ProblemStatementFile = expandEnvString(cfg.Assignment.ProblemStatementFile)
	return cfg
}

// expandEnvString replaces ${VAR} or $VAR with environment variable values.
func expandEnvString(s string) string {
	if s == "" {
		return s
	}

	re := regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	re = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return s
}

func locateConfigFile(name string, paths []string) string {
	searchPaths := append([]string{}, paths...)
	searchPaths = append(searchPaths, ".", defaultConfigDir())
	for _, dir := range searchPaths {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name+".yaml")
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output.directory", "out")
	v.SetDefault("output.wrapWidth", 80)

	v.SetDefault("generator.provider", "static")
	v.SetDefault("generator.model", "gpt-4o")

	// HTTP defaults
	v.SetDefault("http.timeout", "60s")
	v.SetDefault("http.maxRetries", 3)
	v.SetDefault("http.initialBackoff", "2s")
	v.SetDefault("http.maxBackoff", "32s")
	v.SetDefault("http.backoffMultiplier", 2.0)

	// Pipeline policy defaults
	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("pipeline.requestsPerSecond", 2.0)
	v.SetDefault("pipeline.burst", 4)
	v.SetDefault("pipeline.contextWindow", 3)
	v.SetDefault("pipeline.anchorWindow", 2)
	v.SetDefault("pipeline.overlapThreshold", 0.80)
	v.SetDefault("pipeline.minChangedLines", 10)
	v.SetDefault("pipeline.maxContextTokens", 12000)

	// Linter defaults
	v.SetDefault("linter.enabled", true)
	v.SetDefault("linter.command", "clang-tidy")

	// Store defaults
	v.SetDefault("store.enabled", true)
	v.SetDefault("store.path", defaultStorePath())

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "human")
	v.SetDefault("logging.redactAPIKeys", true)
}

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "fbgen")
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./fbgen.db"
	}
	return filepath.Join(home, ".config", "fbgen", "fbgen.db")
}
