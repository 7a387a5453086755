package core

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the kiosk client.
// It supports three-layer configuration priority:
//  1. Default values (lowest priority)
//  2. Environment variables (medium priority)
//  3. Functional options (highest priority)
//
// Example usage:
//
//	cfg, err := NewConfig(
//	    WithAPIURL("https://orders.example.com"),
//	    WithPollInterval(3*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
type Config struct {
	// APIURL is the base URL of the external order API. Required.
	APIURL string `json:"api_url" yaml:"api_url" env:"KIOSK_API_URL"`

	// WebSocketURL is the push channel endpoint. When empty it is derived
	// from APIURL (http->ws scheme swap plus /ws).
	WebSocketURL string `json:"ws_url" yaml:"ws_url" env:"KIOSK_WS_URL"`

	// MenuPath points at a YAML menu catalog file. Empty means the built-in menu.
	MenuPath string `json:"menu_path" yaml:"menu_path" env:"KIOSK_MENU_PATH"`

	// StateDir is where the persisted identity (user id, device token) lives.
	StateDir string `json:"state_dir" yaml:"state_dir" env:"KIOSK_STATE_DIR"`

	// RedisURL switches identity storage to Redis when set (multi-instance
	// staff dashboards). File storage is the default.
	RedisURL string `json:"redis_url" yaml:"redis_url" env:"KIOSK_REDIS_URL"`

	// PollInterval is the order list refresh cadence. Default 4s.
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval" env:"KIOSK_POLL_INTERVAL" default:"4s"`

	// HTTPTimeout bounds every API request. Default 10s.
	HTTPTimeout time.Duration `json:"http_timeout" yaml:"http_timeout" env:"KIOSK_HTTP_TIMEOUT" default:"10s"`

	// LogLevel is DEBUG, INFO, WARN or ERROR. Default INFO.
	LogLevel string `json:"log_level" yaml:"log_level" env:"KIOSK_LOG_LEVEL" default:"INFO"`

	// TracingEnabled wraps the HTTP transport with OpenTelemetry instrumentation.
	TracingEnabled bool `json:"tracing" yaml:"tracing" env:"KIOSK_TRACING" default:"false"`

	// fileErr carries a config-file load failure out of WithConfigFile,
	// since functional options cannot return errors themselves.
	fileErr error
}

// Option is a functional option for configuring the client
type Option func(*Config)

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		PollInterval: 4 * time.Second,
		HTTPTimeout:  10 * time.Second,
		LogLevel:     "INFO",
	}
}

// LoadFromEnv overlays environment variables onto the config
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("KIOSK_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("KIOSK_WS_URL"); v != "" {
		c.WebSocketURL = v
	}
	if v := os.Getenv("KIOSK_MENU_PATH"); v != "" {
		c.MenuPath = v
	}
	if v := os.Getenv("KIOSK_STATE_DIR"); v != "" {
		c.StateDir = v
	}
	if v := os.Getenv("KIOSK_REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv("KIOSK_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("KIOSK_POLL_INTERVAL %q: %w", v, ErrInvalidConfiguration)
		}
		c.PollInterval = d
	}
	if v := os.Getenv("KIOSK_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("KIOSK_HTTP_TIMEOUT %q: %w", v, ErrInvalidConfiguration)
		}
		c.HTTPTimeout = d
	}
	if v := os.Getenv("KIOSK_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("KIOSK_TRACING"); v != "" {
		c.TracingEnabled = parseBool(v)
	}
	return nil
}

// fileConfig mirrors Config for file decoding. Durations are strings
// ("4s", "500ms") since neither encoding parses time.Duration directly.
type fileConfig struct {
	APIURL       *string `json:"api_url" yaml:"api_url"`
	WebSocketURL *string `json:"ws_url" yaml:"ws_url"`
	MenuPath     *string `json:"menu_path" yaml:"menu_path"`
	StateDir     *string `json:"state_dir" yaml:"state_dir"`
	RedisURL     *string `json:"redis_url" yaml:"redis_url"`
	PollInterval *string `json:"poll_interval" yaml:"poll_interval"`
	HTTPTimeout  *string `json:"http_timeout" yaml:"http_timeout"`
	LogLevel     *string `json:"log_level" yaml:"log_level"`
	Tracing      *bool   `json:"tracing" yaml:"tracing"`
}

// LoadFromFile overlays a JSON or YAML config file onto the config
func (c *Config) LoadFromFile(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config file type %q: %w", ext, ErrInvalidConfiguration)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &fc); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	return c.apply(path, &fc)
}

func (c *Config) apply(path string, fc *fileConfig) error {
	if fc.APIURL != nil {
		c.APIURL = *fc.APIURL
	}
	if fc.WebSocketURL != nil {
		c.WebSocketURL = *fc.WebSocketURL
	}
	if fc.MenuPath != nil {
		c.MenuPath = *fc.MenuPath
	}
	if fc.StateDir != nil {
		c.StateDir = *fc.StateDir
	}
	if fc.RedisURL != nil {
		c.RedisURL = *fc.RedisURL
	}
	if fc.PollInterval != nil {
		d, err := time.ParseDuration(*fc.PollInterval)
		if err != nil {
			return fmt.Errorf("%s: poll_interval %q: %w", path, *fc.PollInterval, ErrInvalidConfiguration)
		}
		c.PollInterval = d
	}
	if fc.HTTPTimeout != nil {
		d, err := time.ParseDuration(*fc.HTTPTimeout)
		if err != nil {
			return fmt.Errorf("%s: http_timeout %q: %w", path, *fc.HTTPTimeout, ErrInvalidConfiguration)
		}
		c.HTTPTimeout = d
	}
	if fc.LogLevel != nil {
		c.LogLevel = *fc.LogLevel
	}
	if fc.Tracing != nil {
		c.TracingEnabled = *fc.Tracing
	}
	return nil
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("api url: %w", ErrMissingConfiguration)
	}
	if _, err := url.Parse(c.APIURL); err != nil {
		return fmt.Errorf("api url %q: %w", c.APIURL, ErrInvalidConfiguration)
	}
	if c.PollInterval < time.Second {
		return fmt.Errorf("poll interval %s below 1s: %w", c.PollInterval, ErrInvalidConfiguration)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout %s: %w", c.HTTPTimeout, ErrInvalidConfiguration)
	}
	return nil
}

// DeriveWebSocketURL fills WebSocketURL from APIURL when it is unset
func (c *Config) DeriveWebSocketURL() error {
	if c.WebSocketURL != "" || c.APIURL == "" {
		return nil
	}
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("api url %q: %w", c.APIURL, ErrInvalidConfiguration)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	c.WebSocketURL = u.String()
	return nil
}

// NewConfig creates a validated config from defaults, environment and options
func NewConfig(opts ...Option) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.fileErr != nil {
		return nil, cfg.fileErr
	}
	if err := cfg.DeriveWebSocketURL(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WithAPIURL sets the order API base URL
func WithAPIURL(u string) Option {
	return func(c *Config) {
		c.APIURL = u
	}
}

// WithWebSocketURL sets the push channel endpoint explicitly
func WithWebSocketURL(u string) Option {
	return func(c *Config) {
		c.WebSocketURL = u
	}
}

// WithMenuPath sets the YAML menu catalog file
func WithMenuPath(path string) Option {
	return func(c *Config) {
		c.MenuPath = path
	}
}

// WithStateDir sets the identity persistence directory
func WithStateDir(dir string) Option {
	return func(c *Config) {
		c.StateDir = dir
	}
}

// WithRedisURL switches identity storage to Redis
func WithRedisURL(u string) Option {
	return func(c *Config) {
		c.RedisURL = u
	}
}

// WithPollInterval sets the order list refresh cadence
func WithPollInterval(d time.Duration) Option {
	return func(c *Config) {
		c.PollInterval = d
	}
}

// WithHTTPTimeout bounds every API request
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.HTTPTimeout = d
	}
}

// WithLogLevel sets the log level
func WithLogLevel(level string) Option {
	return func(c *Config) {
		c.LogLevel = level
	}
}

// WithTracing enables OpenTelemetry HTTP instrumentation
func WithTracing(enabled bool) Option {
	return func(c *Config) {
		c.TracingEnabled = enabled
	}
}

// WithConfigFile overlays a JSON/YAML file. A missing or malformed file
// fails NewConfig; it is never silently ignored.
func WithConfigFile(path string) Option {
	return func(c *Config) {
		if err := c.LoadFromFile(path); err != nil {
			c.fileErr = err
		}
	}
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}
