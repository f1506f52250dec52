package document

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/shehryarbajwa/webdriver-mini/internal/backend"
)

// QuerySelector returns elements under scope matching css, in document order.
func (b *Backend) QuerySelector(ctx context.Context, scope backend.Scope, css string) ([]backend.NodeRef, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bc, root, err := b.scopeRoot(scope)
	if err != nil {
		return nil, err
	}
	if _, err := cascadia.ParseGroup(css); err != nil {
		return nil, fmt.Errorf("%q: %v: %w", css, err, backend.ErrInvalidSelector)
	}
	return b.mintAll(bc, goquery.NewDocumentFromNode(root).Find(css).Nodes), nil
}

// QueryXPath evaluates expr with the scope's node, or document, as context
// node. Only element results are returned.
func (b *Backend) QueryXPath(ctx context.Context, scope backend.Scope, expr string) ([]backend.NodeRef, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bc, root, err := b.scopeRoot(scope)
	if err != nil {
		return nil, err
	}
	found, err := htmlquery.QueryAll(root, expr)
	if err != nil {
		return nil, fmt.Errorf("%q: %v: %w", expr, err, backend.ErrInvalidSelector)
	}
	elements := found[:0]
	for _, n := range found {
		// attribute results are synthesized nodes outside the tree
		if n.Type == html.ElementNode && rootOf(n) == bc.doc.root {
			elements = append(elements, n)
		}
	}
	return b.mintAll(bc, elements), nil
}

// NodeText returns the rendered text of the node's subtree with whitespace
// collapsed.
func (b *Backend) NodeText(ctx context.Context, n backend.NodeRef) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, err := b.attached(n)
	if err != nil {
		return "", err
	}
	return renderedText(e.node), nil
}

// NodeTag returns the lowercase tag name.
func (b *Backend) NodeTag(ctx context.Context, n backend.NodeRef) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, err := b.attached(n)
	if err != nil {
		return "", err
	}
	return strings.ToLower(e.node.Data), nil
}

// IsAttached reports whether n still belongs to its context's current
// document.
func (b *Backend) IsAttached(ctx context.Context, n backend.NodeRef) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false, backend.ErrBackendClosed
	}
	_, err := b.attached(n)
	return err == nil, nil
}

// Click performs the element's default activation: toggling checkboxes and
// radios, following links and submitting forms.
func (b *Backend) Click(ctx context.Context, n backend.NodeRef) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, err := b.attached(n)
	if err != nil {
		return err
	}
	el := e.node
	if !interactable(el) {
		return fmt.Errorf("click %s <%s>: %w", n, el.Data, backend.ErrNotInteractable)
	}

	switch {
	case el.Data == "input" && inputType(el) == "checkbox":
		if hasAttr(el, "checked") {
			removeAttr(el, "checked")
		} else {
			setAttr(el, "checked", "checked")
		}
		return nil
	case el.Data == "input" && inputType(el) == "radio":
		if name, ok := attr(el, "name"); ok && name != "" {
			group := goquery.NewDocumentFromNode(rootOf(el)).Find("input[type=radio]")
			for _, radio := range group.Nodes {
				if other, _ := attr(radio, "name"); other == name {
					removeAttr(radio, "checked")
				}
			}
		}
		setAttr(el, "checked", "checked")
		return nil
	}

	if link := closest(el, "a"); link != nil {
		if href, ok := attr(link, "href"); ok && strings.TrimSpace(href) != "" {
			return b.follow(ctx, e.bc, href)
		}
		return nil
	}

	if isSubmitter(el) {
		if form := closest(el, "form"); form != nil {
			return b.submit(ctx, e.bc, form)
		}
	}
	return nil
}

// Clear empties an editable input or textarea.
func (b *Backend) Clear(ctx context.Context, n backend.NodeRef) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, err := b.attached(n)
	if err != nil {
		return err
	}
	if !editable(e.node) {
		return fmt.Errorf("clear %s <%s>: %w", n, e.node.Data, backend.ErrNotInteractable)
	}
	setValue(e.node, "")
	return nil
}

// SendKeys appends text to an editable input or textarea. Backspace removes
// the last character and Enter submits the enclosing form of an input; other
// key codes from the Unicode private use area are ignored.
func (b *Backend) SendKeys(ctx context.Context, n backend.NodeRef, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, err := b.attached(n)
	if err != nil {
		return err
	}
	el := e.node
	if !editable(el) {
		return fmt.Errorf("send keys %s <%s>: %w", n, el.Data, backend.ErrNotInteractable)
	}

	buf := []rune(value(el))
	submit := false
	for _, r := range text {
		switch {
		case r == keyBackspace:
			if len(buf) > 0 {
				buf = buf[:len(buf)-1]
			}
		case r == keyEnter || r == keyReturn:
			if el.Data == "textarea" {
				buf = append(buf, '\n')
			} else {
				submit = true
			}
		case r >= 0xE000 && r <= 0xF8FF:
		default:
			buf = append(buf, r)
		}
	}
	setValue(el, string(buf))

	if submit {
		if form := closest(el, "form"); form != nil {
			return b.submit(ctx, e.bc, form)
		}
	}
	return nil
}

const (
	keyBackspace = '\uE003'
	keyReturn    = '\uE006'
	keyEnter     = '\uE007'
)

// follow navigates the context that contains a clicked link.
func (b *Backend) follow(ctx context.Context, bc *browsingContext, href string) error {
	u, err := parseURL(href, bc.doc.url)
	if err != nil {
		return err
	}
	if bc.parent == nil {
		return b.navigateTop(ctx, bc.window, u)
	}
	doc, err := b.load(ctx, u)
	if err != nil {
		return err
	}
	b.setDocument(bc, doc)
	return nil
}

// submit sends the form's successful controls and loads the response into
// the form's browsing context.
func (b *Backend) submit(ctx context.Context, bc *browsingContext, form *html.Node) error {
	action, _ := attr(form, "action")
	target, err := parseURL(action, bc.doc.url)
	if err != nil {
		return err
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return fmt.Errorf("form action %s: %w", target, backend.ErrUnsupported)
	}
	method, _ := attr(form, "method")
	values := formValues(form)

	var req *http.Request
	if strings.EqualFold(method, http.MethodPost) {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, target.String(), strings.NewReader(values.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		target.RawQuery = values.Encode()
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	}
	if err != nil {
		return fmt.Errorf("failed to build form submission: %w", err)
	}

	doc, err := b.fetch(ctx, req)
	if err != nil {
		return err
	}
	if bc.parent == nil {
		w := bc.window
		b.setDocument(bc, doc)
		w.history = append(w.history[:w.index+1], doc.url)
		w.index = len(w.history) - 1
		return nil
	}
	b.setDocument(bc, doc)
	return nil
}

func formValues(form *html.Node) url.Values {
	values := url.Values{}
	controls := goquery.NewDocumentFromNode(form).Find("input, textarea, select")
	for _, c := range controls.Nodes {
		name, _ := attr(c, "name")
		if name == "" || hasAttr(c, "disabled") {
			continue
		}
		switch c.Data {
		case "input":
			switch inputType(c) {
			case "checkbox", "radio":
				if hasAttr(c, "checked") {
					v, ok := attr(c, "value")
					if !ok {
						v = "on"
					}
					values.Add(name, v)
				}
			case "submit", "reset", "button", "image", "file":
			default:
				values.Add(name, value(c))
			}
		case "textarea":
			values.Add(name, value(c))
		case "select":
			options := goquery.NewDocumentFromNode(c).Find("option")
			selected := options.FilterFunction(func(_ int, s *goquery.Selection) bool {
				_, ok := s.Attr("selected")
				return ok
			})
			if selected.Length() == 0 {
				selected = options.First()
			}
			if selected.Length() > 0 {
				v, ok := selected.First().Attr("value")
				if !ok {
					v = strings.TrimSpace(selected.First().Text())
				}
				values.Add(name, v)
			}
		}
	}
	return values
}

func (b *Backend) scopeRoot(scope backend.Scope) (*browsingContext, *html.Node, error) {
	bc, err := b.context(scope.Target)
	if err != nil {
		return nil, nil, err
	}
	if scope.Node == "" {
		return bc, bc.doc.root, nil
	}
	e, err := b.attached(scope.Node)
	if err != nil {
		return nil, nil, err
	}
	if e.bc != bc {
		return nil, nil, fmt.Errorf("node %s belongs to another context: %w", scope.Node, backend.ErrDetached)
	}
	return bc, e.node, nil
}

func (b *Backend) attached(ref backend.NodeRef) (*nodeEntry, error) {
	if b.closed {
		return nil, backend.ErrBackendClosed
	}
	e, ok := b.nodes[ref]
	if !ok || e.bc.doc != e.doc || rootOf(e.node) != e.doc.root {
		return nil, fmt.Errorf("node %s: %w", ref, backend.ErrDetached)
	}
	return e, nil
}

func (b *Backend) mintAll(bc *browsingContext, nodes []*html.Node) []backend.NodeRef {
	refs := make([]backend.NodeRef, 0, len(nodes))
	for _, n := range nodes {
		refs = append(refs, b.mint(bc, n))
	}
	return refs
}

func (b *Backend) mint(bc *browsingContext, n *html.Node) backend.NodeRef {
	if ref, ok := b.byNode[n]; ok {
		return ref
	}
	b.nodeSeq++
	ref := backend.NodeRef(fmt.Sprintf("node-%d", b.nodeSeq))
	b.nodes[ref] = &nodeEntry{node: n, bc: bc, doc: bc.doc}
	b.byNode[n] = ref
	bc.doc.refs = append(bc.doc.refs, ref)
	return ref
}

func rootOf(n *html.Node) *html.Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

func closest(n *html.Node, tag string) *html.Node {
	for ; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && n.Data == tag {
			return n
		}
	}
	return nil
}

func interactable(n *html.Node) bool {
	if hasAttr(n, "disabled") || hasAttr(n, "hidden") {
		return false
	}
	return !(n.Data == "input" && inputType(n) == "hidden")
}

func editable(n *html.Node) bool {
	if !interactable(n) || hasAttr(n, "readonly") {
		return false
	}
	switch n.Data {
	case "textarea":
		return true
	case "input":
		switch inputType(n) {
		case "checkbox", "radio", "submit", "reset", "button", "image", "file", "hidden":
			return false
		}
		return true
	}
	return false
}

func isSubmitter(n *html.Node) bool {
	switch n.Data {
	case "button":
		t, ok := attr(n, "type")
		return !ok || strings.EqualFold(t, "submit")
	case "input":
		t := inputType(n)
		return t == "submit" || t == "image"
	}
	return false
}

func inputType(n *html.Node) string {
	t, _ := attr(n, "type")
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "" {
		return "text"
	}
	return t
}

func value(n *html.Node) string {
	if n.Data == "textarea" {
		return textContent(n)
	}
	v, _ := attr(n, "value")
	return v
}

func setValue(n *html.Node, v string) {
	if n.Data != "textarea" {
		setAttr(n, "value", v)
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	if v != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: v})
	}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasAttr(n *html.Node, key string) bool {
	_, ok := attr(n, key)
	return ok
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}
