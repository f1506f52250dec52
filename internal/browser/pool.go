// Package browser runs remote automation agents in docker containers, one
// container per session.
package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const managedBy = "webdriver-mini"

// AgentInstance is a running agent container.
type AgentInstance struct {
	ContainerID string
	SessionID   string
	ConnectURL  string
	Port        string
}

// PoolConfig describes the agent image and how to reach it.
type PoolConfig struct {
	Image string
	// AgentPort is the container port the agent listens on, e.g. "9515/tcp".
	AgentPort string
	// AgentPath is the websocket path served by the agent.
	AgentPath string
	// StatusPath answers 200 once the agent accepts connections.
	StatusPath    string
	Env           []string
	ReadyTimeout  time.Duration
	ReadyInterval time.Duration
}

func (c *PoolConfig) setDefaults() {
	if c.AgentPort == "" {
		c.AgentPort = "9515/tcp"
	}
	if c.AgentPath == "" {
		c.AgentPath = "/agent"
	}
	if c.StatusPath == "" {
		c.StatusPath = "/status"
	}
	if c.ReadyTimeout <= 0 {
		c.ReadyTimeout = 30 * time.Second
	}
	if c.ReadyInterval <= 0 {
		c.ReadyInterval = 500 * time.Millisecond
	}
}

// Pool launches and stops agent containers.
type Pool struct {
	client *client.Client
	cfg    PoolConfig
	logger *zap.Logger

	mu        sync.Mutex
	instances map[string]*AgentInstance
}

// NewPool connects to the docker daemon configured in the environment.
func NewPool(cfg PoolConfig, logger *zap.Logger) (*Pool, error) {
	if cfg.Image == "" {
		return nil, fmt.Errorf("agent image is required")
	}
	cfg.setDefaults()
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		client:    cli,
		cfg:       cfg,
		logger:    logger,
		instances: make(map[string]*AgentInstance),
	}, nil
}

// containerConfig builds the container and host configuration for a session.
func (p *Pool) containerConfig(sessionID string) (*container.Config, *container.HostConfig) {
	port := nat.Port(p.cfg.AgentPort)
	cfg := &container.Config{
		Image: p.cfg.Image,
		Labels: map[string]string{
			"session-id": sessionID,
			"managed-by": managedBy,
		},
		Env: append([]string{"AGENT_SESSION_ID=" + sessionID}, p.cfg.Env...),
		ExposedPorts: nat.PortSet{
			port: struct{}{},
		},
	}
	host := &container.HostConfig{
		PortBindings: nat.PortMap{
			port: []nat.PortBinding{{HostIP: "127.0.0.1", HostPort: "0"}},
		},
	}
	return cfg, host
}

func containerName(sessionID string) string {
	short := sessionID
	if len(short) > 8 {
		short = short[:8]
	}
	return "webdriver-agent-" + short
}

// Launch starts an agent container for sessionID and waits until it is
// ready. A container that fails to become ready is removed.
func (p *Pool) Launch(ctx context.Context, sessionID string) (*AgentInstance, error) {
	cfg, host := p.containerConfig(sessionID)
	resp, err := p.client.ContainerCreate(ctx, cfg, host, nil, nil, containerName(sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	cleanup := func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := p.Stop(stopCtx, resp.ID); err != nil {
			p.logger.Warn("failed to remove agent container", zap.String("container_id", resp.ID), zap.Error(err))
		}
	}

	if err := p.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	inspect, err := p.client.ContainerInspect(ctx, resp.ID)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to inspect container: %w", err)
	}
	bindings := inspect.NetworkSettings.Ports[nat.Port(p.cfg.AgentPort)]
	if len(bindings) == 0 {
		cleanup()
		return nil, fmt.Errorf("container %s exposes no binding for %s", resp.ID, p.cfg.AgentPort)
	}
	port := bindings[0].HostPort

	readyCtx, cancel := context.WithTimeout(ctx, p.cfg.ReadyTimeout)
	defer cancel()
	statusURL := fmt.Sprintf("http://127.0.0.1:%s%s", port, p.cfg.StatusPath)
	if err := waitForAgentReady(readyCtx, statusURL, p.cfg.ReadyInterval); err != nil {
		cleanup()
		return nil, fmt.Errorf("agent failed to become ready: %w", err)
	}

	instance := &AgentInstance{
		ContainerID: resp.ID,
		SessionID:   sessionID,
		ConnectURL:  fmt.Sprintf("ws://127.0.0.1:%s%s", port, p.cfg.AgentPath),
		Port:        port,
	}
	p.mu.Lock()
	p.instances[resp.ID] = instance
	p.mu.Unlock()

	p.logger.Info("agent container started",
		zap.String("session_id", sessionID),
		zap.String("container_id", resp.ID),
		zap.String("port", port))
	return instance, nil
}

// Stop stops and removes a container.
func (p *Pool) Stop(ctx context.Context, containerID string) error {
	p.mu.Lock()
	delete(p.instances, containerID)
	p.mu.Unlock()

	timeout := 10
	if err := p.client.ContainerStop(ctx, containerID, container.StopOptions{Timeout: &timeout}); err != nil {
		return fmt.Errorf("failed to stop container: %w", err)
	}
	if err := p.client.ContainerRemove(ctx, containerID, container.RemoveOptions{}); err != nil {
		return fmt.Errorf("failed to remove container: %w", err)
	}
	return nil
}

// StopAll stops every container launched by the pool.
func (p *Pool) StopAll(ctx context.Context) error {
	p.mu.Lock()
	ids := make([]string, 0, len(p.instances))
	for id := range p.instances {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		g.Go(func() error {
			return p.Stop(ctx, id)
		})
	}
	return g.Wait()
}

// EnsureImage pulls the agent image unless it is present locally.
func (p *Pool) EnsureImage(ctx context.Context) error {
	images, err := p.client.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}
	for _, img := range images {
		for _, tag := range img.RepoTags {
			if tag == p.cfg.Image {
				return nil
			}
		}
	}

	p.logger.Info("pulling agent image", zap.String("image", p.cfg.Image))
	reader, err := p.client.ImagePull(ctx, p.cfg.Image, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	defer reader.Close()

	_, err = io.Copy(io.Discard, reader)
	return err
}

// Close releases the docker client.
func (p *Pool) Close() error {
	return p.client.Close()
}

// waitForAgentReady polls statusURL until it answers 200 or ctx ends.
func waitForAgentReady(ctx context.Context, statusURL string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
		if err != nil {
			return err
		}
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("agent at %s not ready: %w", statusURL, ctx.Err())
		case <-ticker.C:
		}
	}
}
