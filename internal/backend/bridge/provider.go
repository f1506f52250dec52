package bridge

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/shehryarbajwa/webdriver-mini/internal/backend"
	"github.com/shehryarbajwa/webdriver-mini/internal/browser"
)

const shutdownTimeout = 5 * time.Second

// ProviderConfig configures how sessions reach their agent.
type ProviderConfig struct {
	// URL of a shared agent endpoint. Ignored when a Launcher is set.
	URL     string
	Header  http.Header
	Support backend.Support
}

// Launcher starts a dedicated agent per session.
type Launcher interface {
	Launch(ctx context.Context, sessionID string) (*browser.AgentInstance, error)
	Stop(ctx context.Context, containerID string) error
}

// Provider hands each session a Backend connected to an agent.
type Provider struct {
	cfg      ProviderConfig
	launcher Launcher
	logger   *zap.Logger
}

// NewProvider creates a provider. launcher may be nil, in which case every
// session dials cfg.URL.
func NewProvider(cfg ProviderConfig, launcher Launcher, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{cfg: cfg, launcher: launcher, logger: logger}
}

// Support returns the configured agent description.
func (p *Provider) Support() backend.Support {
	return p.cfg.Support
}

// Launch connects a new backend for sessionID, starting a container first
// when a launcher is configured.
func (p *Provider) Launch(ctx context.Context, sessionID string, caps map[string]any) (backend.Backend, error) {
	logger := p.logger.With(zap.String("session_id", sessionID))
	if p.launcher == nil {
		conn, err := Dial(ctx, p.cfg.URL, p.cfg.Header, logger)
		if err != nil {
			return nil, err
		}
		return NewBackend(conn, nil), nil
	}

	instance, err := p.launcher.Launch(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to launch agent: %w", err)
	}
	stop := func() error {
		stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return p.launcher.Stop(stopCtx, instance.ContainerID)
	}

	conn, err := Dial(ctx, instance.ConnectURL, p.cfg.Header, logger)
	if err != nil {
		if stopErr := stop(); stopErr != nil {
			logger.Warn("failed to stop agent after dial failure", zap.Error(stopErr))
		}
		return nil, err
	}
	return NewBackend(conn, stop), nil
}

// Close is a no-op; containers are stopped with their sessions.
func (p *Provider) Close() error {
	return nil
}
