package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webdriver.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9515"
sessions:
  policy: single
  idle_timeout: 90s
backend:
  kind: bridge
  bridge:
    url: ws://127.0.0.1:9000/agent
logging:
  level: debug
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9515", cfg.Server.Addr)
	assert.Equal(t, "single", cfg.Sessions.Policy)
	assert.Equal(t, 90*time.Second, cfg.Sessions.IdleTimeout)
	assert.Equal(t, BackendBridge, cfg.Backend.Kind)
	assert.Equal(t, "ws://127.0.0.1:9000/agent", cfg.Backend.Bridge.URL)
	assert.Equal(t, "debug", cfg.Logging.Level)

	assert.Equal(t, 10, cfg.Sessions.Max, "unset keys keep their defaults")
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webdriver.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9515\"\n"), 0o600))
	t.Setenv("WEBDRIVER_ADDR", ":7000")
	t.Setenv("WEBDRIVER_MAX_SESSIONS", "3")
	t.Setenv("WEBDRIVER_POLL_INTERVAL", "10ms")
	t.Setenv("WEBDRIVER_TRACING_STDOUT", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.Sessions.Max)
	assert.Equal(t, 10*time.Millisecond, cfg.Timeouts.ImplicitPollInterval)
	assert.True(t, cfg.Tracing.Stdout)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [\n"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestApplyEnvRejectsMalformedValues(t *testing.T) {
	for key, value := range map[string]string{
		"WEBDRIVER_MAX_SESSIONS": "many",
		"WEBDRIVER_IDLE_TIMEOUT": "forever",
		"WEBDRIVER_METRICS":      "maybe",
	} {
		t.Run(key, func(t *testing.T) {
			cfg := Default()
			err := applyEnv(&cfg, func(k string) (string, bool) {
				if k == key {
					return value, true
				}
				return "", false
			})
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"bad policy", func(c *Config) { c.Sessions.Policy = "shared" }},
		{"negative max", func(c *Config) { c.Sessions.Max = -1 }},
		{"zero poll interval", func(c *Config) { c.Timeouts.ImplicitPollInterval = 0 }},
		{"unknown backend", func(c *Config) { c.Backend.Kind = "chrome" }},
		{"bridge without target", func(c *Config) { c.Backend.Kind = BackendBridge }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
