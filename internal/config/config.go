// Package config loads the configuration of the classpath command.
//
// Settings are layered: built-in defaults, then an optional YAML file, then
// CLASSPATH_* environment variables. Command-line flags are applied last by
// the command itself.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/meigma/classpath"
	"github.com/meigma/classpath/policy"
)

// PathEnv names the environment variable holding the config file path.
const PathEnv = "CLASSPATH_CONFIG"

// Config is the classpath command configuration.
type Config struct {
	// CacheDir is the cache root shared by every process instrumenting
	// the same classpath entries.
	CacheDir string `yaml:"cache_dir" env:"CLASSPATH_CACHE_DIR"`

	// Jobs bounds how many classpath entries are transformed at once.
	Jobs int `yaml:"jobs" env:"CLASSPATH_JOBS"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level" env:"CLASSPATH_LOG_LEVEL"`

	// LockTimeout bounds the wait for another process holding a cache
	// entry. Zero waits indefinitely.
	LockTimeout time.Duration `yaml:"lock_timeout" env:"CLASSPATH_LOCK_TIMEOUT"`

	// Relocations are package relocations written FROM=TO, such as
	// "com/google/common/=shaded/guava/". They are applied in order.
	Relocations []string `yaml:"relocations" env:"CLASSPATH_RELOCATIONS" envSeparator:","`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	return &Config{
		CacheDir: filepath.Join(cacheDir, "classpath"),
		Jobs:     runtime.GOMAXPROCS(0),
		LogLevel: "info",
	}
}

// Load returns the defaults overlaid with the file at path, if path is not
// empty, and then with the environment. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile merges the YAML file at path into c. Unknown keys are errors.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ParseEnv loads configuration from environment variables into target.
// Fields whose variables are unset keep their values.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.CacheDir == "" {
		return errors.New("cache_dir must not be empty")
	}
	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", c.Jobs)
	}
	if c.LockTimeout < 0 {
		return fmt.Errorf("lock_timeout must not be negative, got %s", c.LockTimeout)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	return nil
}

// Level returns the configured log level.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// Policy returns the instrumentation policy described by the relocations.
// Without relocations classes are left unchanged.
func (c *Config) Policy() (classpath.Policy, error) {
	if len(c.Relocations) == 0 {
		return policy.Identity{}, nil
	}
	policies := make([]classpath.Policy, 0, len(c.Relocations))
	for _, spec := range c.Relocations {
		from, to, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("relocation %q: want FROM=TO", spec)
		}
		r, err := policy.NewRelocate(strings.TrimSpace(from), strings.TrimSpace(to))
		if err != nil {
			return nil, fmt.Errorf("relocation %q: %w", spec, err)
		}
		policies = append(policies, r)
	}
	return policy.Chain(policies...), nil
}
