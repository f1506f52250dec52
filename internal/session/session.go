// Package session owns WebDriver sessions: their negotiated capabilities,
// timeouts, browsing context state and element registry, and the manager
// that creates, routes to and deletes them.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/shehryarbajwa/webdriver-mini/internal/backend"
	"github.com/shehryarbajwa/webdriver-mini/internal/capabilities"
	"github.com/shehryarbajwa/webdriver-mini/internal/element"
	"github.com/shehryarbajwa/webdriver-mini/internal/locator"
	"github.com/shehryarbajwa/webdriver-mini/internal/wderr"
)

// Session is one isolated automation context. Commands run one at a time:
// callers hold the session's slot, obtained with Acquire, for the whole of a
// command. State read outside the slot is guarded by mu.
type Session struct {
	ID           string
	Capabilities capabilities.Set
	CreatedAt    time.Time

	backend  backend.Backend
	registry *element.Registry
	engine   *locator.Engine
	poll     time.Duration
	logger   *zap.Logger

	slot *semaphore.Weighted

	mu       sync.Mutex
	timeouts capabilities.Timeouts
	current  backend.WindowHandle
	frames   []backend.FrameID
	lastUsed time.Time
	closed   bool

	idleAfter time.Duration
	idle      *time.Timer
}

type options struct {
	engine   *locator.Engine
	poll     time.Duration
	logger   *zap.Logger
	timeouts capabilities.Timeouts
}

func newSession(id string, caps capabilities.Set, b backend.Backend, window backend.WindowHandle, opts options) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Capabilities: caps,
		CreatedAt:    now,
		backend:      b,
		registry:     element.NewRegistry(),
		engine:       opts.engine,
		poll:         opts.poll,
		logger:       opts.logger,
		slot:         semaphore.NewWeighted(1),
		timeouts:     opts.timeouts,
		current:      window,
		lastUsed:     now,
	}
}

// Acquire waits for the session's exclusive execution slot. Commands for the
// same session queue here in arrival order. It fails with NoSuchSession once
// the session has been deleted.
func (s *Session) Acquire(ctx context.Context) (release func(), err error) {
	if err := s.slot.Acquire(ctx, 1); err != nil {
		return nil, wderr.Wrap(err, wderr.Timeout, "gave up waiting for the session to become free")
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.slot.Release(1)
		return nil, wderr.New(wderr.NoSuchSession, "session %s does not exist", s.ID)
	}
	s.lastUsed = time.Now()
	if s.idle != nil {
		s.idle.Stop()
	}
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.lastUsed = time.Now()
			s.armIdle()
			s.mu.Unlock()
			s.slot.Release(1)
		})
	}, nil
}

// Timeouts returns the session's current timeouts.
func (s *Session) Timeouts() capabilities.Timeouts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeouts
}

// Target is the current browsing context: the current window and the top of
// the frame stack.
func (s *Session) Target() backend.Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target()
}

func (s *Session) target() backend.Target {
	t := backend.Target{Window: s.current}
	if n := len(s.frames); n > 0 {
		t.Frame = s.frames[n-1]
	}
	return t
}

// Closed reports whether the session has been deleted.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// IdleFor reports how long the session has gone without a command.
func (s *Session) IdleFor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastUsed)
}

// setIdleTimeout arranges for fn to run after d without commands.
func (s *Session) setIdleTimeout(d time.Duration, fn func()) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idleAfter = d
	s.idle = time.AfterFunc(d, fn)
}

func (s *Session) armIdle() {
	if s.idle == nil || s.closed {
		return
	}
	s.idle.Reset(s.idleAfter)
}

// markClosed flips the session to closed. It returns false if it already was.
func (s *Session) markClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	if s.idle != nil {
		s.idle.Stop()
	}
	return true
}

// teardown closes every window and the backend and invalidates all element
// references. The caller holds the slot and has marked the session closed.
func (s *Session) teardown(ctx context.Context) error {
	s.registry.InvalidateAll()
	handles, err := s.backend.ListWindows(ctx)
	if err == nil {
		for _, h := range handles {
			if err := s.backend.CloseWindow(ctx, h); err != nil {
				s.logger.Warn("failed to close window", zap.String("window", string(h)), zap.Error(err))
			}
		}
	}
	return s.backend.Close()
}
