package bridge

import (
	"context"

	"github.com/shehryarbajwa/webdriver-mini/internal/backend"
)

// Agent method names.
const (
	MethodOpenWindow    = "window.open"
	MethodCloseWindow   = "window.close"
	MethodListWindows   = "window.list"
	MethodNavigate      = "navigate"
	MethodCurrentURL    = "url"
	MethodTitle         = "title"
	MethodBack          = "back"
	MethodForward       = "forward"
	MethodRefresh       = "refresh"
	MethodSwitchFrame   = "frame.switch"
	MethodFrameExists   = "frame.exists"
	MethodQuerySelector = "query.css"
	MethodQueryXPath    = "query.xpath"
	MethodNodeText      = "node.text"
	MethodNodeTag       = "node.tag"
	MethodClick         = "node.click"
	MethodClear         = "node.clear"
	MethodSendKeys      = "node.sendKeys"
	MethodIsAttached    = "node.attached"
	MethodExecuteScript = "script.execute"
	MethodShutdown      = "shutdown"
)

type windowParams struct {
	Window backend.WindowHandle `json:"window"`
}

type navigateParams struct {
	Window backend.WindowHandle `json:"window"`
	URL    string               `json:"url"`
}

type targetParams struct {
	Window backend.WindowHandle `json:"window"`
	Frame  backend.FrameID      `json:"frame,omitempty"`
}

type frameParams struct {
	targetParams
	Index *int            `json:"index,omitempty"`
	Node  backend.NodeRef `json:"node,omitempty"`
}

type queryParams struct {
	targetParams
	Node     backend.NodeRef `json:"node,omitempty"`
	Selector string          `json:"selector"`
}

type nodeParams struct {
	Node backend.NodeRef `json:"node"`
	Text string          `json:"text,omitempty"`
}

type scriptParams struct {
	targetParams
	Script string `json:"script"`
	Args   []any  `json:"args"`
}

// Backend forwards every operation to a remote agent.
type Backend struct {
	conn    *Conn
	onClose func() error
}

var (
	_ backend.Backend        = (*Backend)(nil)
	_ backend.XPathQuerier   = (*Backend)(nil)
	_ backend.ScriptExecutor = (*Backend)(nil)
)

// NewBackend wraps an established agent connection. onClose, if set, runs
// after the connection is closed.
func NewBackend(conn *Conn, onClose func() error) *Backend {
	return &Backend{conn: conn, onClose: onClose}
}

func target(t backend.Target) targetParams {
	return targetParams{Window: t.Window, Frame: t.Frame}
}

func (b *Backend) OpenWindow(ctx context.Context) (backend.WindowHandle, error) {
	var out struct {
		Handle backend.WindowHandle `json:"handle"`
	}
	err := b.conn.Call(ctx, MethodOpenWindow, nil, &out)
	return out.Handle, err
}

func (b *Backend) CloseWindow(ctx context.Context, w backend.WindowHandle) error {
	return b.conn.Call(ctx, MethodCloseWindow, windowParams{w}, nil)
}

func (b *Backend) ListWindows(ctx context.Context) ([]backend.WindowHandle, error) {
	var out struct {
		Handles []backend.WindowHandle `json:"handles"`
	}
	err := b.conn.Call(ctx, MethodListWindows, nil, &out)
	return out.Handles, err
}

func (b *Backend) Navigate(ctx context.Context, w backend.WindowHandle, url string) error {
	return b.conn.Call(ctx, MethodNavigate, navigateParams{Window: w, URL: url}, nil)
}

func (b *Backend) CurrentURL(ctx context.Context, w backend.WindowHandle) (string, error) {
	return b.stringCall(ctx, MethodCurrentURL, windowParams{w})
}

func (b *Backend) Title(ctx context.Context, w backend.WindowHandle) (string, error) {
	return b.stringCall(ctx, MethodTitle, windowParams{w})
}

func (b *Backend) Back(ctx context.Context, w backend.WindowHandle) error {
	return b.conn.Call(ctx, MethodBack, windowParams{w}, nil)
}

func (b *Backend) Forward(ctx context.Context, w backend.WindowHandle) error {
	return b.conn.Call(ctx, MethodForward, windowParams{w}, nil)
}

func (b *Backend) Refresh(ctx context.Context, w backend.WindowHandle) error {
	return b.conn.Call(ctx, MethodRefresh, windowParams{w}, nil)
}

func (b *Backend) SwitchFrame(ctx context.Context, t backend.Target, ref backend.FrameRef) (backend.FrameID, error) {
	var out struct {
		Frame backend.FrameID `json:"frame"`
	}
	err := b.conn.Call(ctx, MethodSwitchFrame, frameParams{targetParams: target(t), Index: ref.Index, Node: ref.Node}, &out)
	return out.Frame, err
}

func (b *Backend) FrameExists(ctx context.Context, t backend.Target) (bool, error) {
	return b.boolCall(ctx, MethodFrameExists, target(t))
}

func (b *Backend) QuerySelector(ctx context.Context, scope backend.Scope, css string) ([]backend.NodeRef, error) {
	return b.query(ctx, MethodQuerySelector, scope, css)
}

func (b *Backend) QueryXPath(ctx context.Context, scope backend.Scope, expr string) ([]backend.NodeRef, error) {
	return b.query(ctx, MethodQueryXPath, scope, expr)
}

func (b *Backend) NodeText(ctx context.Context, n backend.NodeRef) (string, error) {
	return b.stringCall(ctx, MethodNodeText, nodeParams{Node: n})
}

func (b *Backend) NodeTag(ctx context.Context, n backend.NodeRef) (string, error) {
	return b.stringCall(ctx, MethodNodeTag, nodeParams{Node: n})
}

func (b *Backend) Click(ctx context.Context, n backend.NodeRef) error {
	return b.conn.Call(ctx, MethodClick, nodeParams{Node: n}, nil)
}

func (b *Backend) Clear(ctx context.Context, n backend.NodeRef) error {
	return b.conn.Call(ctx, MethodClear, nodeParams{Node: n}, nil)
}

func (b *Backend) SendKeys(ctx context.Context, n backend.NodeRef, text string) error {
	return b.conn.Call(ctx, MethodSendKeys, nodeParams{Node: n, Text: text}, nil)
}

func (b *Backend) IsAttached(ctx context.Context, n backend.NodeRef) (bool, error) {
	return b.boolCall(ctx, MethodIsAttached, nodeParams{Node: n})
}

func (b *Backend) ExecuteScript(ctx context.Context, t backend.Target, script string, args []any) (any, error) {
	if args == nil {
		args = []any{}
	}
	var out struct {
		Value any `json:"value"`
	}
	err := b.conn.Call(ctx, MethodExecuteScript, scriptParams{targetParams: target(t), Script: script, Args: args}, &out)
	return out.Value, err
}

// Close asks the agent to shut down, then closes the connection and runs the
// onClose hook.
func (b *Backend) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = b.conn.Call(ctx, MethodShutdown, nil, nil)
	err := b.conn.Close()
	if b.onClose != nil {
		if hookErr := b.onClose(); hookErr != nil && err == nil {
			err = hookErr
		}
	}
	return err
}

func (b *Backend) query(ctx context.Context, method string, scope backend.Scope, selector string) ([]backend.NodeRef, error) {
	var out struct {
		Nodes []backend.NodeRef `json:"nodes"`
	}
	err := b.conn.Call(ctx, method, queryParams{targetParams: target(scope.Target), Node: scope.Node, Selector: selector}, &out)
	return out.Nodes, err
}

func (b *Backend) stringCall(ctx context.Context, method string, params any) (string, error) {
	var out struct {
		Value string `json:"value"`
	}
	err := b.conn.Call(ctx, method, params, &out)
	return out.Value, err
}

func (b *Backend) boolCall(ctx context.Context, method string, params any) (bool, error) {
	var out struct {
		Value bool `json:"value"`
	}
	err := b.conn.Call(ctx, method, params, &out)
	return out.Value, err
}
