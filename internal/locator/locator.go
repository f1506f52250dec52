// Package locator runs element location strategies against a backend.
package locator

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/xpath"

	"github.com/shehryarbajwa/webdriver-mini/internal/backend"
	"github.com/shehryarbajwa/webdriver-mini/internal/wderr"
)

// Strategy names as used on the wire.
const (
	CSSSelector     = "css selector"
	TagName         = "tag name"
	LinkText        = "link text"
	PartialLinkText = "partial link text"
	XPath           = "xpath"
)

// Strategy finds nodes matching selector within scope, in document order.
type Strategy func(ctx context.Context, b backend.Backend, scope backend.Scope, selector string) ([]backend.NodeRef, error)

// Engine maps strategy names to their implementations.
type Engine struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

// NewEngine returns an engine with the built-in strategies registered.
func NewEngine() *Engine {
	e := &Engine{strategies: make(map[string]Strategy)}
	e.Register(CSSSelector, findCSS)
	e.Register(TagName, findTagName)
	e.Register(LinkText, linkText(false))
	e.Register(PartialLinkText, linkText(true))
	e.Register(XPath, findXPath)
	return e
}

// Register adds or replaces a strategy.
func (e *Engine) Register(name string, s Strategy) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.strategies[name] = s
}

// Strategies lists the registered strategy names.
func (e *Engine) Strategies() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.strategies))
	for name := range e.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the strategy registered under name.
func (e *Engine) Lookup(name string) (Strategy, error) {
	e.mu.RLock()
	s, ok := e.strategies[name]
	e.mu.RUnlock()
	if !ok {
		return nil, wderr.Invalid("unknown location strategy %q, expected one of %s", name, strings.Join(e.Strategies(), ", "))
	}
	return s, nil
}

// Find runs the named strategy once. A well-formed selector that matches
// nothing yields an empty slice and no error.
func (e *Engine) Find(ctx context.Context, b backend.Backend, scope backend.Scope, using, selector string) ([]backend.NodeRef, error) {
	s, err := e.Lookup(using)
	if err != nil {
		return nil, err
	}
	nodes, err := s(ctx, b, scope, selector)
	if err != nil {
		return nil, wderr.FromBackend(fmt.Errorf("%s %q: %w", using, selector, err), wderr.Timeout)
	}
	return nodes, nil
}

// NotFound is the error for a search that matched nothing.
func NotFound(using, selector string) *wderr.Error {
	return wderr.New(wderr.NoSuchElement, "unable to locate element using %s %q", using, selector)
}

func findCSS(ctx context.Context, b backend.Backend, scope backend.Scope, selector string) ([]backend.NodeRef, error) {
	if err := validateCSS(selector); err != nil {
		return nil, err
	}
	return b.QuerySelector(ctx, scope, selector)
}

func validateCSS(selector string) error {
	if strings.TrimSpace(selector) == "" {
		return wderr.New(wderr.InvalidSelector, "css selector must not be empty")
	}
	if _, err := cascadia.ParseGroup(selector); err != nil {
		return wderr.Wrap(err, wderr.InvalidSelector, fmt.Sprintf("%q is not a valid css selector", selector))
	}
	return nil
}

var tagNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*$`)

func findTagName(ctx context.Context, b backend.Backend, scope backend.Scope, selector string) ([]backend.NodeRef, error) {
	if !tagNameRe.MatchString(selector) {
		return nil, wderr.New(wderr.InvalidSelector, "%q is not a valid tag name", selector)
	}
	return b.QuerySelector(ctx, scope, selector)
}

func linkText(partial bool) Strategy {
	return func(ctx context.Context, b backend.Backend, scope backend.Scope, selector string) ([]backend.NodeRef, error) {
		anchors, err := b.QuerySelector(ctx, scope, "a")
		if err != nil {
			return nil, err
		}
		var out []backend.NodeRef
		for _, a := range anchors {
			text, err := b.NodeText(ctx, a)
			if err != nil {
				return nil, err
			}
			text = strings.TrimSpace(text)
			if (partial && strings.Contains(text, selector)) || (!partial && text == selector) {
				out = append(out, a)
			}
		}
		return out, nil
	}
}

func findXPath(ctx context.Context, b backend.Backend, scope backend.Scope, selector string) ([]backend.NodeRef, error) {
	q, ok := b.(backend.XPathQuerier)
	if !ok {
		return nil, wderr.Invalid("the xpath strategy is not supported by this backend")
	}
	if _, err := xpath.Compile(selector); err != nil {
		return nil, wderr.Wrap(err, wderr.InvalidSelector, fmt.Sprintf("%q is not a valid xpath expression", selector))
	}
	return q.QueryXPath(ctx, scope, selector)
}
