// Package config holds the runtime constants and the YAML configuration
// file (funphp.yaml) that tunes an interpreter session.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents funphp.yaml.
type Config struct {
	// StrictVariables turns reads of undefined variables into errors
	// instead of warnings.
	StrictVariables bool `yaml:"strict_variables,omitempty"`

	// MaxCallDepth bounds user function nesting. Exceeding it is fatal.
	MaxCallDepth int `yaml:"max_call_depth,omitempty"`

	// MaxEvalDepth bounds expression nesting inside the evaluator.
	MaxEvalDepth int `yaml:"max_eval_depth,omitempty"`

	// Precision is the number of significant digits used when floats are
	// converted to strings.
	Precision int `yaml:"precision,omitempty"`

	// Superglobals lists extra names that always resolve in the global
	// frame, in addition to GLOBALS.
	Superglobals []string `yaml:"superglobals,omitempty"`

	// Warnings is "report" (default) or "silent".
	Warnings string `yaml:"warnings,omitempty"`

	// DefaultCharset is the encoding assumed for strings without one.
	DefaultCharset string `yaml:"default_charset,omitempty"`

	// Session configures the session_* builtins.
	Session SessionConfig `yaml:"session,omitempty"`

	// Server seeds $_SERVER.
	Server map[string]string `yaml:"server,omitempty"`
}

// SessionConfig configures the SQLite-backed session store.
type SessionConfig struct {
	// DB is the SQLite database path. Relative paths are resolved against
	// the config file directory. Empty means an in-memory store.
	DB string `yaml:"db,omitempty"`

	// Name is the session cookie name reported by session_name().
	Name string `yaml:"name,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// LoadConfig reads and parses a funphp.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses funphp.yaml content from bytes.
// The path argument is used for error messages and relative paths.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	if cfg.Session.DB != "" && cfg.Session.DB != ":memory:" && !filepath.IsAbs(cfg.Session.DB) {
		cfg.Session.DB = filepath.Join(filepath.Dir(path), cfg.Session.DB)
	}
	return &cfg, nil
}

// FindConfig searches for funphp.yaml starting from dir and walking up to
// parent directories. It returns "" when none is found.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	for {
		for _, name := range []string{"funphp.yaml", "funphp.yml"} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (c *Config) validate(path string) error {
	if c.MaxCallDepth < 0 {
		return fmt.Errorf("%s: max_call_depth must not be negative", path)
	}
	if c.MaxEvalDepth < 0 {
		return fmt.Errorf("%s: max_eval_depth must not be negative", path)
	}
	if c.Precision < 0 || c.Precision > 17 {
		return fmt.Errorf("%s: precision must be between 1 and 17, got %d", path, c.Precision)
	}
	switch c.Warnings {
	case "", WarningsReport, WarningsSilent:
	default:
		return fmt.Errorf("%s: warnings must be %q or %q, got %q", path, WarningsReport, WarningsSilent, c.Warnings)
	}
	for i, name := range c.Superglobals {
		if name == "" || strings.ContainsAny(name, "$ \t") {
			return fmt.Errorf("%s: superglobals[%d]: invalid variable name %q", path, i, name)
		}
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.MaxCallDepth == 0 {
		c.MaxCallDepth = DefaultMaxCallDepth
	}
	if c.MaxEvalDepth == 0 {
		c.MaxEvalDepth = DefaultMaxEvalDepth
	}
	if c.Precision == 0 {
		c.Precision = DefaultPrecision
	}
	if c.Warnings == "" {
		c.Warnings = WarningsReport
	}
	if c.DefaultCharset == "" {
		c.DefaultCharset = DefaultCharset
	}
	if c.Session.Name == "" {
		c.Session.Name = DefaultSessionName
	}
}

// SuperglobalNames returns the default superglobals plus the configured ones.
func (c *Config) SuperglobalNames() []string {
	names := append([]string(nil), DefaultSuperglobals...)
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	for _, n := range c.Superglobals {
		if !seen[n] {
			names = append(names, n)
			seen[n] = true
		}
	}
	return names
}
