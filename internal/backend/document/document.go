// Package document is an in-process backend that loads pages over net/http,
// keeps them as parsed HTML trees and performs element interactions on the
// tree directly. It runs no page scripts; Execute Script evaluates the
// command's own script in a sandboxed goja runtime.
package document

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/shehryarbajwa/webdriver-mini/internal/backend"
)

// Options configures a Backend.
type Options struct {
	Client    *http.Client
	UserAgent string
	// MaxBodyBytes bounds how much of a response is parsed.
	MaxBodyBytes int64
	Logger       *zap.Logger
}

const defaultMaxBodyBytes = 8 << 20

// Backend implements backend.Backend, backend.XPathQuerier and
// backend.ScriptExecutor.
type Backend struct {
	mu      sync.Mutex
	opts    Options
	logger  *zap.Logger
	windows map[backend.WindowHandle]*window
	order   []backend.WindowHandle
	frames  map[backend.FrameID]*browsingContext
	nodes   map[backend.NodeRef]*nodeEntry
	byNode  map[*html.Node]backend.NodeRef
	nodeSeq uint64
	closed  bool
}

type window struct {
	handle  backend.WindowHandle
	top     *browsingContext
	history []*url.URL
	index   int
}

// browsingContext is a window's top-level document or a nested frame.
type browsingContext struct {
	id       backend.FrameID
	window   *window
	parent   *browsingContext
	owner    *html.Node
	doc      *document
	children map[*html.Node]*browsingContext
}

type document struct {
	url  *url.URL
	root *html.Node
	refs []backend.NodeRef
}

type nodeEntry struct {
	node *html.Node
	bc   *browsingContext
	doc  *document
}

var (
	_ backend.Backend        = (*Backend)(nil)
	_ backend.XPathQuerier   = (*Backend)(nil)
	_ backend.ScriptExecutor = (*Backend)(nil)
)

// New returns a backend with no windows open.
func New(opts Options) *Backend {
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{
		opts:    opts,
		logger:  logger,
		windows: make(map[backend.WindowHandle]*window),
		frames:  make(map[backend.FrameID]*browsingContext),
		nodes:   make(map[backend.NodeRef]*nodeEntry),
		byNode:  make(map[*html.Node]backend.NodeRef),
	}
}

// OpenWindow creates a window showing about:blank.
func (b *Backend) OpenWindow(ctx context.Context) (backend.WindowHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return "", backend.ErrBackendClosed
	}

	blank, _ := url.Parse(aboutBlank)
	w := &window{
		handle:  backend.WindowHandle(strings.ToLower(ulid.Make().String())),
		history: []*url.URL{blank},
	}
	w.top = &browsingContext{window: w}
	b.setDocument(w.top, blankDocument(blank))

	b.windows[w.handle] = w
	b.order = append(b.order, w.handle)
	b.logger.Debug("window opened", zap.String("window", string(w.handle)))
	return w.handle, nil
}

// CloseWindow discards a window and everything loaded in it.
func (b *Backend) CloseWindow(ctx context.Context, h backend.WindowHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.window(h)
	if err != nil {
		return err
	}
	b.discard(w.top)
	delete(b.windows, h)
	for i, o := range b.order {
		if o == h {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	b.logger.Debug("window closed", zap.String("window", string(h)))
	return nil
}

// ListWindows returns open windows in creation order.
func (b *Backend) ListWindows(ctx context.Context) ([]backend.WindowHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, backend.ErrBackendClosed
	}
	return append([]backend.WindowHandle(nil), b.order...), nil
}

// Navigate loads rawURL into the window's top-level context and starts a new
// history entry.
func (b *Backend) Navigate(ctx context.Context, h backend.WindowHandle, rawURL string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.window(h)
	if err != nil {
		return err
	}
	u, err := parseURL(rawURL, nil)
	if err != nil {
		return err
	}
	return b.navigateTop(ctx, w, u)
}

func (b *Backend) navigateTop(ctx context.Context, w *window, u *url.URL) error {
	doc, err := b.load(ctx, u)
	if err != nil {
		return err
	}
	b.setDocument(w.top, doc)
	w.history = append(w.history[:w.index+1], doc.url)
	w.index = len(w.history) - 1
	return nil
}

// CurrentURL returns the URL of the window's top-level document.
func (b *Backend) CurrentURL(ctx context.Context, h backend.WindowHandle) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.window(h)
	if err != nil {
		return "", err
	}
	return w.top.doc.url.String(), nil
}

// Title returns the top-level document's title.
func (b *Backend) Title(ctx context.Context, h backend.WindowHandle) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.window(h)
	if err != nil {
		return "", err
	}
	return w.top.doc.title(), nil
}

// Back moves one entry back in the window's history. It is a no-op at the
// first entry.
func (b *Backend) Back(ctx context.Context, h backend.WindowHandle) error {
	return b.traverse(ctx, h, -1)
}

// Forward moves one entry forward in the window's history.
func (b *Backend) Forward(ctx context.Context, h backend.WindowHandle) error {
	return b.traverse(ctx, h, 1)
}

// Refresh reloads the current history entry.
func (b *Backend) Refresh(ctx context.Context, h backend.WindowHandle) error {
	return b.traverse(ctx, h, 0)
}

func (b *Backend) traverse(ctx context.Context, h backend.WindowHandle, delta int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.window(h)
	if err != nil {
		return err
	}
	next := w.index + delta
	if next < 0 || next >= len(w.history) {
		return fmt.Errorf("window %s at entry %d of %d: %w", h, w.index+1, len(w.history), backend.ErrNoHistory)
	}
	doc, err := b.load(ctx, w.history[next])
	if err != nil {
		return err
	}
	b.setDocument(w.top, doc)
	w.index = next
	return nil
}

// SwitchFrame resolves a child frame of t, loading its document on first use.
func (b *Backend) SwitchFrame(ctx context.Context, t backend.Target, ref backend.FrameRef) (backend.FrameID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bc, err := b.context(t)
	if err != nil {
		return "", err
	}

	var owner *html.Node
	switch {
	case ref.Index != nil:
		frames := frameElements(bc.doc.root)
		if *ref.Index < 0 || *ref.Index >= len(frames) {
			return "", fmt.Errorf("frame index %d of %d: %w", *ref.Index, len(frames), backend.ErrNoSuchFrame)
		}
		owner = frames[*ref.Index]
	case ref.Node != "":
		e, err := b.attached(ref.Node)
		if err != nil {
			return "", err
		}
		if e.bc != bc || !isFrameElement(e.node) {
			return "", fmt.Errorf("node %s is not a frame of %s: %w", ref.Node, t, backend.ErrNoSuchFrame)
		}
		owner = e.node
	default:
		return "", fmt.Errorf("empty frame reference: %w", backend.ErrNoSuchFrame)
	}

	if child, ok := bc.children[owner]; ok {
		return child.id, nil
	}

	child := &browsingContext{
		id:     backend.FrameID(uuid.NewString()),
		window: bc.window,
		parent: bc,
		owner:  owner,
	}
	doc, err := b.loadFrame(ctx, bc.doc, owner)
	if err != nil {
		return "", err
	}
	b.setDocument(child, doc)
	if bc.children == nil {
		bc.children = make(map[*html.Node]*browsingContext)
	}
	bc.children[owner] = child
	b.frames[child.id] = child
	return child.id, nil
}

// FrameExists reports whether t still names an open browsing context.
func (b *Backend) FrameExists(ctx context.Context, t backend.Target) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false, backend.ErrBackendClosed
	}
	_, err := b.context(t)
	return err == nil, nil
}

// Close discards every window.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	for _, w := range b.windows {
		b.discard(w.top)
	}
	b.windows = nil
	b.order = nil
	b.closed = true
	return nil
}

func (b *Backend) window(h backend.WindowHandle) (*window, error) {
	if b.closed {
		return nil, backend.ErrBackendClosed
	}
	w, ok := b.windows[h]
	if !ok {
		return nil, fmt.Errorf("window %s: %w", h, backend.ErrNoSuchWindow)
	}
	return w, nil
}

func (b *Backend) context(t backend.Target) (*browsingContext, error) {
	w, err := b.window(t.Window)
	if err != nil {
		return nil, err
	}
	if t.IsTop() {
		return w.top, nil
	}
	bc, ok := b.frames[t.Frame]
	if !ok || bc.window != w {
		return nil, fmt.Errorf("frame %s: %w", t, backend.ErrNoSuchFrame)
	}
	return bc, nil
}

// setDocument replaces bc's document, discarding nested frames and node refs
// belonging to the previous one.
func (b *Backend) setDocument(bc *browsingContext, doc *document) {
	if bc.doc != nil {
		b.forgetDocument(bc.doc)
	}
	for _, child := range bc.children {
		b.discard(child)
	}
	bc.children = nil
	bc.doc = doc
}

func (b *Backend) discard(bc *browsingContext) {
	for _, child := range bc.children {
		b.discard(child)
	}
	bc.children = nil
	if bc.doc != nil {
		b.forgetDocument(bc.doc)
	}
	if bc.id != "" {
		delete(b.frames, bc.id)
	}
}

func (b *Backend) forgetDocument(doc *document) {
	for _, ref := range doc.refs {
		if e, ok := b.nodes[ref]; ok {
			delete(b.byNode, e.node)
			delete(b.nodes, ref)
		}
	}
	doc.refs = nil
}

func (d *document) title() string {
	if n := htmlquery.FindOne(d.root, "//title"); n != nil {
		return strings.Join(strings.Fields(htmlquery.InnerText(n)), " ")
	}
	return ""
}
