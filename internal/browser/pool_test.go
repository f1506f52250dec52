package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainerName(t *testing.T) {
	assert.Equal(t, "webdriver-agent-0123abcd", containerName("0123abcd-4567-89ef"))
	assert.Equal(t, "webdriver-agent-abc", containerName("abc"))
}

func TestContainerConfig(t *testing.T) {
	cfg := PoolConfig{Image: "example/agent:1", Env: []string{"HEADLESS=1"}}
	cfg.setDefaults()
	p := &Pool{cfg: cfg}

	c, host := p.containerConfig("s-1")
	assert.Equal(t, "example/agent:1", c.Image)
	assert.Equal(t, "s-1", c.Labels["session-id"])
	assert.Equal(t, managedBy, c.Labels["managed-by"])
	assert.Equal(t, []string{"AGENT_SESSION_ID=s-1", "HEADLESS=1"}, c.Env)
	assert.Contains(t, c.ExposedPorts, nat.Port("9515/tcp"))
	require.Len(t, host.PortBindings[nat.Port("9515/tcp")], 1)
	assert.Equal(t, "0", host.PortBindings[nat.Port("9515/tcp")][0].HostPort)
}

func TestWaitForAgentReady(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, waitForAgentReady(ctx, srv.URL+"/status", 10*time.Millisecond))
	assert.Equal(t, int32(3), calls.Load())
}

func TestWaitForAgentReadyTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := waitForAgentReady(ctx, srv.URL, 10*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
