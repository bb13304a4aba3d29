// Package config handles the configuration directory, config file and
// settings layering.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	// AppName is the application directory name.
	AppName = "todoctl"

	// ConfigFile is the optional settings filename inside Dir.
	ConfigFile = "config.toml"

	// DefaultBaseURL is the Todo API the client talks to unless overridden.
	DefaultBaseURL = "https://learn-testing-api.mfyuu.workers.dev"

	// DefaultFocusThrottle limits focus revalidation per cache key.
	DefaultFocusThrottle = 5 * time.Second

	// EnvBaseURL overrides the base URL from the config file.
	EnvBaseURL = "TODOCTL_BASE_URL"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string `toml:"-"`

	// BaseURL is the root of the Todo API.
	BaseURL string `toml:"base_url"`

	// FocusThrottle is the minimum interval between focus revalidations.
	FocusThrottle Duration `toml:"focus_throttle"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// LogFormat is one of text, json, logfmt.
	LogFormat string `toml:"log_format"`

	// OTLPEndpoint is the OTLP/HTTP base URL. Export is off when empty.
	OTLPEndpoint string `toml:"otlp_endpoint"`

	// Debug enables debug logging.
	Debug bool `toml:"-"`

	// Quiet suppresses informational output.
	Quiet bool `toml:"-"`
}

// Duration is a time.Duration that decodes from a TOML string like "5s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// New creates a Config with defaults for the given config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/todoctl or $HOME/.config/todoctl.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{
		Dir:           dir,
		BaseURL:       DefaultBaseURL,
		FocusThrottle: Duration{DefaultFocusThrottle},
		LogLevel:      "info",
		LogFormat:     "text",
	}, nil
}

// Load builds a Config in priority order:
//  1. Defaults
//  2. config.toml in the config directory
//  3. TODOCTL_BASE_URL
//  4. baseURL argument (the --base-url flag), when non-empty
func Load(configDir, baseURL string) (*Config, error) {
	cfg, err := New(configDir)
	if err != nil {
		return nil, err
	}

	if err := cfg.loadFile(); err != nil {
		return nil, fmt.Errorf("loading config file %s: %w", cfg.FilePath(), err)
	}

	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		cfg.BaseURL = v
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile() error {
	_, err := toml.DecodeFile(c.FilePath(), c)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Validate checks derived settings.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base url %q: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base url %q: scheme must be http or https", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid base url %q: missing host", c.BaseURL)
	}
	if c.FocusThrottle.Duration < 0 {
		return fmt.Errorf("invalid focus_throttle: %s", c.FocusThrottle.Duration)
	}
	return nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// FilePath returns the path to config.toml.
func (c *Config) FilePath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// HasFile checks if config.toml exists.
func (c *Config) HasFile() bool {
	_, err := os.Stat(c.FilePath())
	return err == nil
}
