// Package config loads server configuration from defaults, an optional YAML
// file, a .env file and WEBDRIVER_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Timeouts  TimeoutsConfig  `yaml:"timeouts"`
	Backend   BackendConfig   `yaml:"backend"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type SessionsConfig struct {
	Policy      string        `yaml:"policy"`
	Max         int           `yaml:"max"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

type TimeoutsConfig struct {
	ImplicitPollInterval time.Duration `yaml:"implicit_poll_interval"`
}

type BackendConfig struct {
	Kind     string         `yaml:"kind"`
	Document DocumentConfig `yaml:"document"`
	Bridge   BridgeConfig   `yaml:"bridge"`
}

type DocumentConfig struct {
	UserAgent      string        `yaml:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
}

type BridgeConfig struct {
	URL            string       `yaml:"url"`
	BrowserName    string       `yaml:"browser_name"`
	BrowserVersion string       `yaml:"browser_version"`
	PlatformName   string       `yaml:"platform_name"`
	Docker         DockerConfig `yaml:"docker"`
}

type DockerConfig struct {
	Image        string        `yaml:"image"`
	ReadyTimeout time.Duration `yaml:"ready_timeout"`
	Pull         bool          `yaml:"pull"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type TracingConfig struct {
	Stdout bool `yaml:"stdout"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Backend kinds.
const (
	BackendDocument = "document"
	BackendBridge   = "bridge"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":4444",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    330 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Sessions: SessionsConfig{
			Policy:      "multi",
			Max:         10,
			IdleTimeout: 30 * time.Minute,
		},
		Timeouts: TimeoutsConfig{ImplicitPollInterval: 50 * time.Millisecond},
		Backend: BackendConfig{
			Kind: BackendDocument,
			Document: DocumentConfig{
				UserAgent:      "webdriver-mini",
				RequestTimeout: 60 * time.Second,
				MaxBodyBytes:   10 << 20,
			},
			Bridge: BridgeConfig{
				Docker: DockerConfig{ReadyTimeout: 30 * time.Second},
			},
		},
		RateLimit: RateLimitConfig{RequestsPerMinute: 600, Burst: 60},
		Logging:   LoggingConfig{Level: "info", Format: "json"},
		Metrics:   MetricsConfig{Enabled: true},
	}
}

// Load builds the configuration. path may be empty; a missing .env file is
// not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing YAML: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	switch c.Sessions.Policy {
	case "single", "multi":
	default:
		errs = append(errs, fmt.Errorf("sessions.policy must be single or multi, got %q", c.Sessions.Policy))
	}
	if c.Sessions.Max < 0 {
		errs = append(errs, errors.New("sessions.max must not be negative"))
	}
	if c.Sessions.IdleTimeout < 0 {
		errs = append(errs, errors.New("sessions.idle_timeout must not be negative"))
	}
	if c.Timeouts.ImplicitPollInterval <= 0 {
		errs = append(errs, errors.New("timeouts.implicit_poll_interval must be positive"))
	}
	switch c.Backend.Kind {
	case BackendDocument:
	case BackendBridge:
		if c.Backend.Bridge.URL == "" && c.Backend.Bridge.Docker.Image == "" {
			errs = append(errs, errors.New("backend.bridge needs url or docker.image"))
		}
	default:
		errs = append(errs, fmt.Errorf("backend.kind must be document or bridge, got %q", c.Backend.Kind))
	}
	if c.RateLimit.RequestsPerMinute < 0 || c.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("ratelimit values must not be negative"))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

type lookupFunc func(string) (string, bool)

// applyEnv overrides cfg from WEBDRIVER_* variables.
func applyEnv(cfg *Config, lookup lookupFunc) error {
	strs := map[string]*string{
		"WEBDRIVER_ADDR":                &cfg.Server.Addr,
		"WEBDRIVER_SESSION_POLICY":      &cfg.Sessions.Policy,
		"WEBDRIVER_BACKEND":             &cfg.Backend.Kind,
		"WEBDRIVER_USER_AGENT":          &cfg.Backend.Document.UserAgent,
		"WEBDRIVER_BRIDGE_URL":          &cfg.Backend.Bridge.URL,
		"WEBDRIVER_BRIDGE_DOCKER_IMAGE": &cfg.Backend.Bridge.Docker.Image,
		"WEBDRIVER_LOG_LEVEL":           &cfg.Logging.Level,
		"WEBDRIVER_LOG_FORMAT":          &cfg.Logging.Format,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"WEBDRIVER_MAX_SESSIONS":       &cfg.Sessions.Max,
		"WEBDRIVER_RATE_LIMIT_PER_MIN": &cfg.RateLimit.RequestsPerMinute,
		"WEBDRIVER_RATE_LIMIT_BURST":   &cfg.RateLimit.Burst,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{
		"WEBDRIVER_IDLE_TIMEOUT":  &cfg.Sessions.IdleTimeout,
		"WEBDRIVER_POLL_INTERVAL": &cfg.Timeouts.ImplicitPollInterval,
	}
	for key, dst := range durations {
		if v, ok := lookup(key); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}

	bools := map[string]*bool{
		"WEBDRIVER_TRACING_STDOUT": &cfg.Tracing.Stdout,
		"WEBDRIVER_METRICS":        &cfg.Metrics.Enabled,
	}
	for key, dst := range bools {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
	}
	return nil
}
