package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/shehryarbajwa/webdriver-mini/internal/backend"
	"github.com/shehryarbajwa/webdriver-mini/internal/capabilities"
	"github.com/shehryarbajwa/webdriver-mini/internal/locator"
	"github.com/shehryarbajwa/webdriver-mini/internal/metrics"
	"github.com/shehryarbajwa/webdriver-mini/internal/wderr"
)

// Session policies.
const (
	PolicySingle = "single"
	PolicyMulti  = "multi"
)

// Reasons a session ended, as reported to metrics and logs.
const (
	ReasonDeleted    = "deleted"
	ReasonIdle       = "idle"
	ReasonLastWindow = "last_window_closed"
	ReasonShutdown   = "shutdown"
)

const teardownTimeout = 30 * time.Second

// Config controls session admission and expiry.
type Config struct {
	// Policy is PolicySingle or PolicyMulti.
	Policy string
	// MaxSessions caps concurrent sessions under PolicyMulti. Zero means no cap.
	MaxSessions int
	// IdleTimeout deletes sessions that receive no command for this long.
	// Zero disables expiry.
	IdleTimeout time.Duration
	// PollInterval is the implicit wait polling interval.
	PollInterval time.Duration
}

// Manager creates, resolves and deletes sessions.
type Manager struct {
	cfg      Config
	provider backend.Provider
	engine   *locator.Engine
	metrics  *metrics.Metrics
	logger   *zap.Logger

	sessions sync.Map // map[string]*Session
	capacity *semaphore.Weighted
	limit    int64
	admitted atomic.Int64
}

// NewManager creates a manager that launches backends from provider.
func NewManager(cfg Config, provider backend.Provider, engine *locator.Engine, m *metrics.Metrics, logger *zap.Logger) *Manager {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = locator.DefaultPollInterval
	}
	if engine == nil {
		engine = locator.NewEngine()
	}
	mgr := &Manager{
		cfg:      cfg,
		provider: provider,
		engine:   engine,
		metrics:  m,
		logger:   logger,
	}
	switch {
	case cfg.Policy == PolicySingle:
		mgr.limit = 1
	case cfg.MaxSessions > 0:
		mgr.limit = int64(cfg.MaxSessions)
	}
	if mgr.limit > 0 {
		mgr.capacity = semaphore.NewWeighted(mgr.limit)
	}
	return mgr
}

// Create negotiates capabilities from body, launches a backend and opens the
// session's first window.
func (m *Manager) Create(ctx context.Context, body map[string]any) (*Session, error) {
	req, err := capabilities.ParseRequest(body)
	if err != nil {
		return nil, err
	}
	result, err := capabilities.Negotiate(req, m.provider.Support())
	if err != nil {
		return nil, err
	}

	if !m.acquireSlot() {
		return nil, wderr.New(wderr.SessionNotCreated, "maximum number of active sessions reached")
	}

	id := uuid.New().String()
	logger := m.logger.With(zap.String("session_id", id))

	b, err := m.provider.Launch(ctx, id, result.Capabilities)
	if err != nil {
		m.releaseSlot()
		return nil, wderr.Wrap(err, wderr.SessionNotCreated, "failed to start a backend for the session")
	}
	window, err := b.OpenWindow(ctx)
	if err != nil {
		if cerr := b.Close(); cerr != nil {
			logger.Warn("failed to close backend", zap.Error(cerr))
		}
		m.releaseSlot()
		return nil, wderr.Wrap(err, wderr.SessionNotCreated, "failed to open the initial window")
	}

	s := newSession(id, result.Capabilities, b, window, options{
		engine:   m.engine,
		poll:     m.cfg.PollInterval,
		logger:   logger,
		timeouts: result.Timeouts,
	})
	m.sessions.Store(id, s)
	s.setIdleTimeout(m.cfg.IdleTimeout, func() { m.expire(s) })

	m.metrics.SessionStarted()
	logger.Info("session created",
		zap.String("browser", fmt.Sprint(result.Capabilities["browserName"])),
		zap.Int("candidate", result.Candidate))
	return s, nil
}

// Get resolves id to a live session.
func (m *Manager) Get(id string) (*Session, error) {
	value, ok := m.sessions.Load(id)
	if !ok {
		return nil, wderr.New(wderr.NoSuchSession, "session %s does not exist", id)
	}
	return value.(*Session), nil
}

// Delete ends a session once its in-flight command, if any, has finished.
// Deleting a session that no longer exists fails with NoSuchSession.
func (m *Manager) Delete(ctx context.Context, id, reason string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	release, err := s.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return m.end(s, reason)
}

// End deletes s from within a command that already holds its slot.
func (m *Manager) End(s *Session, reason string) error {
	return m.end(s, reason)
}

// end tears the session down. The caller holds its slot.
func (m *Manager) end(s *Session, reason string) error {
	if !s.markClosed() {
		return wderr.New(wderr.NoSuchSession, "session %s does not exist", s.ID)
	}
	m.sessions.Delete(s.ID)

	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()
	err := s.teardown(ctx)

	m.releaseSlot()
	m.metrics.SessionEnded(reason)
	s.logger.Info("session ended", zap.String("reason", reason), zap.Duration("age", time.Since(s.CreatedAt)))
	if err != nil {
		s.logger.Warn("backend shutdown failed", zap.Error(err))
	}
	return nil
}

// expire ends s if it is still idle once any running command has finished.
func (m *Manager) expire(s *Session) {
	if err := s.slot.Acquire(context.Background(), 1); err != nil {
		return
	}
	defer s.slot.Release(1)

	if s.Closed() || s.IdleFor() < m.cfg.IdleTimeout {
		return
	}
	if err := m.end(s, ReasonIdle); err != nil {
		s.logger.Debug("idle session already ended", zap.Error(err))
	}
}

// List returns the live sessions ordered by creation time.
func (m *Manager) List() []*Session {
	var sessions []*Session
	m.sessions.Range(func(_, value any) bool {
		sessions = append(sessions, value.(*Session))
		return true
	})
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	n := 0
	m.sessions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Ready reports whether a New Session command could currently be admitted.
// It only reads the admission count and never holds a slot.
func (m *Manager) Ready() bool {
	return m.capacity == nil || m.admitted.Load() < m.limit
}

// CloseAll ends every session concurrently and closes the provider.
func (m *Manager) CloseAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, s := range m.List() {
		g.Go(func() error {
			err := m.Delete(ctx, s.ID, ReasonShutdown)
			if wderr.Is(err, wderr.NoSuchSession) {
				return nil
			}
			return err
		})
	}
	err := g.Wait()
	if cerr := m.provider.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// acquireSlot tries to admit one more session.
func (m *Manager) acquireSlot() bool {
	if m.capacity == nil {
		return true
	}
	if !m.capacity.TryAcquire(1) {
		return false
	}
	m.admitted.Add(1)
	return true
}

// releaseSlot returns an admission slot.
func (m *Manager) releaseSlot() {
	if m.capacity != nil {
		m.admitted.Add(-1)
		m.capacity.Release(1)
	}
}
