package session

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/shehryarbajwa/webdriver-mini/internal/backend"
	"github.com/shehryarbajwa/webdriver-mini/internal/capabilities"
	"github.com/shehryarbajwa/webdriver-mini/internal/element"
	"github.com/shehryarbajwa/webdriver-mini/internal/locator"
	"github.com/shehryarbajwa/webdriver-mini/internal/wderr"
)

// Every method below expects the caller to hold the session slot.

// FrameSelector names the frame to switch to. A zero FrameSelector selects
// the top-level browsing context.
type FrameSelector struct {
	Index   *int
	Element element.ID
}

// IsTop reports whether f selects the top-level browsing context.
func (f FrameSelector) IsTop() bool {
	return f.Index == nil && f.Element == ""
}

// NewWindowResult describes a window created by NewWindow.
type NewWindowResult struct {
	Handle string `json:"handle"`
	Type   string `json:"type"`
}

// CheckContext fails with NoSuchWindow when the current browsing context has
// been closed.
func (s *Session) CheckContext(ctx context.Context) error {
	t := s.Target()
	if t.Window == "" {
		return wderr.New(wderr.NoSuchWindow, "the current window has been closed")
	}
	ok, err := s.backend.FrameExists(ctx, t)
	if err != nil {
		return fmt.Errorf("check context %s: %w", t, err)
	}
	if !ok {
		return wderr.New(wderr.NoSuchWindow, "browsing context %s is no longer open", t)
	}
	return nil
}

// Navigate loads url in the current window. The frame stack and the elements
// of the window are reset only once the load has committed.
func (s *Session) Navigate(ctx context.Context, url string) error {
	w := s.Target().Window
	if err := s.backend.Navigate(ctx, w, url); err != nil {
		return fmt.Errorf("navigate to %q: %w", url, err)
	}
	s.afterLoad(w)
	return nil
}

// Back traverses the current window's history one step back. At the first
// entry it does nothing and the window keeps its elements.
func (s *Session) Back(ctx context.Context) error {
	w := s.Target().Window
	err := s.backend.Back(ctx, w)
	if errors.Is(err, backend.ErrNoHistory) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("back: %w", err)
	}
	s.afterLoad(w)
	return nil
}

// Forward traverses the current window's history one step forward. At the
// last entry it does nothing.
func (s *Session) Forward(ctx context.Context) error {
	w := s.Target().Window
	err := s.backend.Forward(ctx, w)
	if errors.Is(err, backend.ErrNoHistory) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("forward: %w", err)
	}
	s.afterLoad(w)
	return nil
}

// Refresh reloads the current window's document.
func (s *Session) Refresh(ctx context.Context) error {
	w := s.Target().Window
	if err := s.backend.Refresh(ctx, w); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	s.afterLoad(w)
	return nil
}

func (s *Session) afterLoad(w backend.WindowHandle) {
	s.mu.Lock()
	s.frames = nil
	s.mu.Unlock()
	n := s.registry.InvalidateWindow(w)
	s.logger.Debug("document replaced", zap.String("window", string(w)), zap.Int("invalidated", n))
}

// CurrentURL returns the URL of the current top-level document.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	u, err := s.backend.CurrentURL(ctx, s.Target().Window)
	if err != nil {
		return "", fmt.Errorf("current url: %w", err)
	}
	return u, nil
}

// Title returns the title of the current top-level document.
func (s *Session) Title(ctx context.Context) (string, error) {
	title, err := s.backend.Title(ctx, s.Target().Window)
	if err != nil {
		return "", fmt.Errorf("title: %w", err)
	}
	return title, nil
}

// WindowHandle returns the current window's handle.
func (s *Session) WindowHandle(ctx context.Context) (string, error) {
	w := s.Target().Window
	if w == "" {
		return "", wderr.New(wderr.NoSuchWindow, "the current window has been closed")
	}
	if err := s.windowOpen(ctx, w); err != nil {
		return "", err
	}
	return string(w), nil
}

// WindowHandles lists the session's windows in creation order.
func (s *Session) WindowHandles(ctx context.Context) ([]string, error) {
	handles, err := s.backend.ListWindows(ctx)
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	out := make([]string, len(handles))
	for i, h := range handles {
		out[i] = string(h)
	}
	return out, nil
}

// SwitchWindow makes handle the current window and selects its top-level
// context. Elements of the previous window stay valid for when it is
// selected again.
func (s *Session) SwitchWindow(ctx context.Context, handle string) error {
	w := backend.WindowHandle(handle)
	if err := s.windowOpen(ctx, w); err != nil {
		return err
	}
	s.mu.Lock()
	s.current = w
	s.frames = nil
	s.mu.Unlock()
	return nil
}

func (s *Session) windowOpen(ctx context.Context, w backend.WindowHandle) error {
	handles, err := s.backend.ListWindows(ctx)
	if err != nil {
		return fmt.Errorf("list windows: %w", err)
	}
	if !slices.Contains(handles, w) {
		return wderr.New(wderr.NoSuchWindow, "no window with handle %q", w)
	}
	return nil
}

// CloseWindow closes the current window and returns the handles that remain.
// ended reports that no windows remain and the session must be deleted.
func (s *Session) CloseWindow(ctx context.Context) (remaining []string, ended bool, err error) {
	w, err := s.WindowHandle(ctx)
	if err != nil {
		return nil, false, err
	}
	if err := s.backend.CloseWindow(ctx, backend.WindowHandle(w)); err != nil {
		return nil, false, fmt.Errorf("close window %s: %w", w, err)
	}

	s.mu.Lock()
	s.current = ""
	s.frames = nil
	s.mu.Unlock()
	s.registry.InvalidateWindow(backend.WindowHandle(w))

	remaining, err = s.WindowHandles(ctx)
	if err != nil {
		return nil, false, err
	}
	return remaining, len(remaining) == 0, nil
}

// NewWindow opens another window. The current window is unchanged.
func (s *Session) NewWindow(ctx context.Context) (NewWindowResult, error) {
	w, err := s.backend.OpenWindow(ctx)
	if err != nil {
		return NewWindowResult{}, fmt.Errorf("open window: %w", err)
	}
	return NewWindowResult{Handle: string(w), Type: "tab"}, nil
}

// SwitchFrame selects a child frame of the current context, or the top-level
// context of the current window. Elements of the context being left become
// stale.
func (s *Session) SwitchFrame(ctx context.Context, sel FrameSelector) error {
	current := s.Target()
	if sel.IsTop() {
		if current.IsTop() {
			return nil
		}
		s.registry.InvalidateContext(current)
		s.mu.Lock()
		s.frames = nil
		s.mu.Unlock()
		return nil
	}

	var ref backend.FrameRef
	switch {
	case sel.Index != nil:
		if *sel.Index < 0 || *sel.Index > 65535 {
			return wderr.Invalid("frame index %d is out of range", *sel.Index)
		}
		ref.Index = sel.Index
	default:
		node, err := s.registry.Resolve(ctx, sel.Element, current, s.backend)
		if err != nil {
			return err
		}
		ref.Node = node
	}

	frame, err := s.backend.SwitchFrame(ctx, current, ref)
	if err != nil {
		return fmt.Errorf("switch frame: %w", err)
	}
	s.registry.InvalidateContext(current)
	s.mu.Lock()
	s.frames = append(s.frames, frame)
	s.mu.Unlock()
	return nil
}

// SwitchParentFrame selects the parent of the current context. At the top
// level it does nothing.
func (s *Session) SwitchParentFrame(ctx context.Context) error {
	current := s.Target()
	if current.IsTop() {
		return nil
	}
	s.registry.InvalidateContext(current)
	s.mu.Lock()
	s.frames = s.frames[:len(s.frames)-1]
	s.mu.Unlock()
	return nil
}

// FindElements runs the locator strategy using with selector, from the
// document of the current context or below from when it is set. Empty
// results are retried until the implicit wait elapses.
func (s *Session) FindElements(ctx context.Context, from element.ID, using, selector string) ([]element.ID, error) {
	if _, err := s.engine.Lookup(using); err != nil {
		return nil, err
	}
	target := s.Target()
	scope := backend.Scope{Target: target}
	if from != "" {
		node, err := s.registry.Resolve(ctx, from, target, s.backend)
		if err != nil {
			return nil, err
		}
		scope.Node = node
	}

	nodes, err := locator.Wait(ctx, s.Timeouts().Implicit, s.poll, func(ctx context.Context) ([]backend.NodeRef, error) {
		return s.engine.Find(ctx, s.backend, scope, using, selector)
	})
	if err != nil {
		return nil, err
	}
	return s.registry.MintAll(nodes, target), nil
}

// FindElement is FindElements restricted to the first match. No match is a
// NoSuchElement error.
func (s *Session) FindElement(ctx context.Context, from element.ID, using, selector string) (element.ID, error) {
	ids, err := s.FindElements(ctx, from, using, selector)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", locator.NotFound(using, selector)
	}
	return ids[0], nil
}

// Resolve returns the live node behind id in the current context.
func (s *Session) Resolve(ctx context.Context, id element.ID) (backend.NodeRef, error) {
	return s.registry.Resolve(ctx, id, s.Target(), s.backend)
}

// ElementText returns the rendered text of an element.
func (s *Session) ElementText(ctx context.Context, id element.ID) (string, error) {
	node, err := s.Resolve(ctx, id)
	if err != nil {
		return "", err
	}
	text, err := s.backend.NodeText(ctx, node)
	if err != nil {
		return "", fmt.Errorf("text of %s: %w", id, err)
	}
	return text, nil
}

// ElementTag returns the lowercase tag name of an element.
func (s *Session) ElementTag(ctx context.Context, id element.ID) (string, error) {
	node, err := s.Resolve(ctx, id)
	if err != nil {
		return "", err
	}
	tag, err := s.backend.NodeTag(ctx, node)
	if err != nil {
		return "", fmt.Errorf("tag of %s: %w", id, err)
	}
	return tag, nil
}

// Click activates an element. A click that replaces the document detaches
// its nodes, which the registry notices on the next resolve.
func (s *Session) Click(ctx context.Context, id element.ID) error {
	node, err := s.Resolve(ctx, id)
	if err != nil {
		return err
	}
	if err := s.backend.Click(ctx, node); err != nil {
		return fmt.Errorf("click %s: %w", id, err)
	}
	return nil
}

// Clear empties an editable element.
func (s *Session) Clear(ctx context.Context, id element.ID) error {
	node, err := s.Resolve(ctx, id)
	if err != nil {
		return err
	}
	if err := s.backend.Clear(ctx, node); err != nil {
		return fmt.Errorf("clear %s: %w", id, err)
	}
	return nil
}

// SendKeys types text into an element.
func (s *Session) SendKeys(ctx context.Context, id element.ID, text string) error {
	node, err := s.Resolve(ctx, id)
	if err != nil {
		return err
	}
	if err := s.backend.SendKeys(ctx, node, text); err != nil {
		return fmt.Errorf("send keys to %s: %w", id, err)
	}
	return nil
}

// ExecuteScript runs script in the current context with args bound to
// arguments.
func (s *Session) ExecuteScript(ctx context.Context, script string, args []any) (any, error) {
	exec, ok := s.backend.(backend.ScriptExecutor)
	if !ok {
		return nil, fmt.Errorf("execute script: %w", backend.ErrUnsupported)
	}
	result, err := exec.ExecuteScript(ctx, s.Target(), script, args)
	if err != nil {
		return nil, fmt.Errorf("execute script: %w", err)
	}
	return result, nil
}

// SetTimeouts applies the keys present in raw to the session's timeouts and
// returns the result.
func (s *Session) SetTimeouts(raw map[string]any) (capabilities.Timeouts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := capabilities.ParseTimeouts(raw, s.timeouts)
	if err != nil {
		return capabilities.Timeouts{}, err
	}
	s.timeouts = t
	return t, nil
}
