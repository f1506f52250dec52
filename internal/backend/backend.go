// Package backend declares the automation backend consumed by the protocol
// engine. A Backend renders pages and performs DOM work; it never sees
// sessions, element ids or timeouts, only windows, frames and node refs.
package backend

import (
	"context"
	"errors"
)

//go:generate mockgen -source=backend.go -destination=mocks/backend_mock.go -package=mocks

// WindowHandle identifies a top-level browsing context owned by a backend.
type WindowHandle string

// FrameID identifies a nested browsing context. The empty FrameID denotes the
// top-level document of a window.
type FrameID string

// NodeRef is a backend-issued reference to a DOM node. It does not keep the
// node alive; IsAttached reports whether it still denotes a live node.
type NodeRef string

// Target addresses one browsing context.
type Target struct {
	Window WindowHandle
	Frame  FrameID
}

// IsTop reports whether t is a top-level browsing context.
func (t Target) IsTop() bool {
	return t.Frame == ""
}

// String renders t for logs and registry keys.
func (t Target) String() string {
	if t.Frame == "" {
		return string(t.Window)
	}
	return string(t.Window) + "/" + string(t.Frame)
}

// Scope is where a query runs: the document of Target, or the subtree of
// Node when Node is set.
type Scope struct {
	Target Target
	Node   NodeRef
}

// FrameRef selects a child frame of the current context, either by its
// index among the document's frames or by the frame element's node.
type FrameRef struct {
	Index *int
	Node  NodeRef
}

// Backend is the capability interface the protocol engine drives.
type Backend interface {
	OpenWindow(ctx context.Context) (WindowHandle, error)
	CloseWindow(ctx context.Context, w WindowHandle) error
	ListWindows(ctx context.Context) ([]WindowHandle, error)

	Navigate(ctx context.Context, w WindowHandle, url string) error
	CurrentURL(ctx context.Context, w WindowHandle) (string, error)
	Title(ctx context.Context, w WindowHandle) (string, error)
	Back(ctx context.Context, w WindowHandle) error
	Forward(ctx context.Context, w WindowHandle) error
	Refresh(ctx context.Context, w WindowHandle) error

	// SwitchFrame resolves ref inside t and returns the child frame's id.
	// It does not change any backend state.
	SwitchFrame(ctx context.Context, t Target, ref FrameRef) (FrameID, error)
	// FrameExists reports whether t is still an open browsing context.
	FrameExists(ctx context.Context, t Target) (bool, error)

	QuerySelector(ctx context.Context, scope Scope, css string) ([]NodeRef, error)
	NodeText(ctx context.Context, n NodeRef) (string, error)
	NodeTag(ctx context.Context, n NodeRef) (string, error)
	Click(ctx context.Context, n NodeRef) error
	Clear(ctx context.Context, n NodeRef) error
	SendKeys(ctx context.Context, n NodeRef, text string) error
	IsAttached(ctx context.Context, n NodeRef) (bool, error)

	// Close releases every window and resource held by the backend.
	Close() error
}

// XPathQuerier is implemented by backends that evaluate XPath expressions.
type XPathQuerier interface {
	QueryXPath(ctx context.Context, scope Scope, expr string) ([]NodeRef, error)
}

// ScriptExecutor is implemented by backends that run scripts in a context.
type ScriptExecutor interface {
	ExecuteScript(ctx context.Context, t Target, script string, args []any) (any, error)
}

// Errors a backend returns so the engine can map them to protocol errors.
// Anything else is reported to clients as an unknown error.
var (
	ErrNoSuchWindow    = errors.New("no such window")
	ErrNoSuchFrame     = errors.New("no such frame")
	ErrDetached        = errors.New("node is detached")
	ErrInvalidSelector = errors.New("invalid selector")
	ErrNotInteractable = errors.New("element not interactable")
	ErrInvalidURL      = errors.New("invalid url")
	ErrScript          = errors.New("script error")
	ErrUnsupported     = errors.New("operation not supported by backend")
	ErrBackendClosed   = errors.New("backend closed")

	// ErrNoHistory reports a Back or Forward with no entry to move to.
	// Nothing was loaded.
	ErrNoHistory = errors.New("no history entry")
)

// Support describes what a backend provider can satisfy during capability
// negotiation.
type Support struct {
	BrowserName    string
	BrowserVersion string
	PlatformName   string

	// ExtensionPrefixes lists vendor prefixes ("goog", "moz", ...) whose
	// extension capabilities the backend understands.
	ExtensionPrefixes   []string
	AcceptInsecureCerts bool
	Proxy               bool
}

// Provider starts backends, one per session.
type Provider interface {
	Support() Support
	Launch(ctx context.Context, sessionID string, caps map[string]any) (Backend, error)
	Close() error
}
