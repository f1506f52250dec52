package document

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shehryarbajwa/webdriver-mini/internal/backend"
)

func page(body string) string {
	return "data:text/html," + url.PathEscape(body)
}

func newWindow(t *testing.T) (*Backend, backend.WindowHandle) {
	t.Helper()
	b := New(Options{})
	t.Cleanup(func() { _ = b.Close() })
	w, err := b.OpenWindow(context.Background())
	require.NoError(t, err)
	return b, w
}

func top(w backend.WindowHandle) backend.Scope {
	return backend.Scope{Target: backend.Target{Window: w}}
}

// site serves a handful of linked pages and records form submissions.
type site struct {
	*httptest.Server
	mu      sync.Mutex
	queries []url.Values
}

func newSite(t *testing.T) *site {
	t.Helper()
	s := &site{}
	mux := http.NewServeMux()
	mux.HandleFunc("/one", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>One</title></head><body><a id="next" href="/two">next</a></body></html>`)
	})
	mux.HandleFunc("/two", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Two</title></head><body><p>second</p></body></html>`)
	})
	mux.HandleFunc("/form", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><form action="/search">
			<input name="q" type="text">
			<input name="agree" type="checkbox" value="yes">
			<button id="go">Go</button>
		</form></body></html>`)
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.queries = append(s.queries, r.URL.Query())
		s.mu.Unlock()
		fmt.Fprintf(w, `<html><head><title>Results for %s</title></head><body></body></html>`, r.URL.Query().Get("q"))
	})
	mux.HandleFunc("/plain", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "<b>not markup</b>")
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *site) lastQuery() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queries) == 0 {
		return nil
	}
	return s.queries[len(s.queries)-1]
}

func TestOpenWindowStartsBlank(t *testing.T) {
	b, w := newWindow(t)
	ctx := context.Background()

	u, err := b.CurrentURL(ctx, w)
	require.NoError(t, err)
	assert.Equal(t, "about:blank", u)

	title, err := b.Title(ctx, w)
	require.NoError(t, err)
	assert.Empty(t, title)
}

func TestNavigateDataURL(t *testing.T) {
	b, w := newWindow(t)
	ctx := context.Background()

	require.NoError(t, b.Navigate(ctx, w, page(`<title> Hello   World </title><p id="a">x</p>`)))
	title, err := b.Title(ctx, w)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", title)
}

func TestNavigateRejectsBadURLs(t *testing.T) {
	b, w := newWindow(t)
	for _, raw := range []string{"ftp://example.com/", "about:config", "http:///nohost", "data:nopayload"} {
		err := b.Navigate(context.Background(), w, raw)
		assert.ErrorIs(t, err, backend.ErrInvalidURL, raw)
	}
}

func TestNavigateHonoursContext(t *testing.T) {
	s := newSite(t)
	b, w := newWindow(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := b.Navigate(ctx, w, s.URL+"/slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	u, err := b.CurrentURL(context.Background(), w)
	require.NoError(t, err)
	assert.Equal(t, "about:blank", u)
}

func TestNonHTMLBodyIsShownAsText(t *testing.T) {
	s := newSite(t)
	b, w := newWindow(t)
	ctx := context.Background()

	require.NoError(t, b.Navigate(ctx, w, s.URL+"/plain"))
	nodes, err := b.QuerySelector(ctx, top(w), "pre")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	text, err := b.NodeText(ctx, nodes[0])
	require.NoError(t, err)
	assert.Equal(t, "<b>not markup</b>", text)
}

func TestQuerySelector(t *testing.T) {
	b, w := newWindow(t)
	ctx := context.Background()
	require.NoError(t, b.Navigate(ctx, w, page(`
		<div id="list"><p class="item">one</p><p class="item">two</p></div>
		<p class="item">three</p>
		<script>var hidden = "no";</script>`)))

	items, err := b.QuerySelector(ctx, top(w), ".item")
	require.NoError(t, err)
	require.Len(t, items, 3)

	var texts []string
	for _, n := range items {
		text, err := b.NodeText(ctx, n)
		require.NoError(t, err)
		texts = append(texts, text)
	}
	assert.Equal(t, []string{"one", "two", "three"}, texts)

	list, err := b.QuerySelector(ctx, top(w), "#list")
	require.NoError(t, err)
	require.Len(t, list, 1)
	scoped, err := b.QuerySelector(ctx, backend.Scope{Target: backend.Target{Window: w}, Node: list[0]}, "p")
	require.NoError(t, err)
	assert.Equal(t, items[:2], scoped)

	tag, err := b.NodeTag(ctx, list[0])
	require.NoError(t, err)
	assert.Equal(t, "div", tag)

	again, err := b.QuerySelector(ctx, top(w), ".item")
	require.NoError(t, err)
	assert.Equal(t, items, again)

	_, err = b.QuerySelector(ctx, top(w), "p[")
	assert.ErrorIs(t, err, backend.ErrInvalidSelector)
}

func TestRenderedText(t *testing.T) {
	b, w := newWindow(t)
	ctx := context.Background()
	require.NoError(t, b.Navigate(ctx, w, page(`<div id="d">Hello,
		<b>brave</b>   new<p>world</p><span hidden>secret</span><style>p{}</style></div>`)))

	nodes, err := b.QuerySelector(ctx, top(w), "#d")
	require.NoError(t, err)
	text, err := b.NodeText(ctx, nodes[0])
	require.NoError(t, err)
	assert.Equal(t, "Hello, brave new\nworld", text)
}

func TestQueryXPath(t *testing.T) {
	b, w := newWindow(t)
	ctx := context.Background()
	require.NoError(t, b.Navigate(ctx, w, page(`<ul><li>a</li><li class="x">b</li></ul>`)))

	nodes, err := b.QueryXPath(ctx, top(w), "//li[@class='x']")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	text, err := b.NodeText(ctx, nodes[0])
	require.NoError(t, err)
	assert.Equal(t, "b", text)

	attrs, err := b.QueryXPath(ctx, top(w), "//li/@class")
	require.NoError(t, err)
	assert.Empty(t, attrs)

	_, err = b.QueryXPath(ctx, top(w), "//li[")
	assert.ErrorIs(t, err, backend.ErrInvalidSelector)
}

func TestNavigationDetachesNodes(t *testing.T) {
	b, w := newWindow(t)
	ctx := context.Background()
	require.NoError(t, b.Navigate(ctx, w, page(`<p>old</p>`)))
	nodes, err := b.QuerySelector(ctx, top(w), "p")
	require.NoError(t, err)

	require.NoError(t, b.Navigate(ctx, w, page(`<p>new</p>`)))

	attached, err := b.IsAttached(ctx, nodes[0])
	require.NoError(t, err)
	assert.False(t, attached)
	_, err = b.NodeText(ctx, nodes[0])
	assert.ErrorIs(t, err, backend.ErrDetached)

	fresh, err := b.QuerySelector(ctx, top(w), "p")
	require.NoError(t, err)
	assert.NotEqual(t, nodes[0], fresh[0])
}

func TestHistory(t *testing.T) {
	s := newSite(t)
	b, w := newWindow(t)
	ctx := context.Background()

	require.NoError(t, b.Navigate(ctx, w, s.URL+"/one"))
	links, err := b.QuerySelector(ctx, top(w), "#next")
	require.NoError(t, err)
	require.NoError(t, b.Click(ctx, links[0]))

	title, _ := b.Title(ctx, w)
	assert.Equal(t, "Two", title)

	require.NoError(t, b.Back(ctx, w))
	title, _ = b.Title(ctx, w)
	assert.Equal(t, "One", title)

	require.NoError(t, b.Forward(ctx, w))
	u, _ := b.CurrentURL(ctx, w)
	assert.Equal(t, s.URL+"/two", u)

	assert.ErrorIs(t, b.Forward(ctx, w), backend.ErrNoHistory)
	require.NoError(t, b.Refresh(ctx, w))
	u, _ = b.CurrentURL(ctx, w)
	assert.Equal(t, s.URL+"/two", u)

	require.NoError(t, b.Back(ctx, w))
	require.NoError(t, b.Back(ctx, w))
	assert.ErrorIs(t, b.Back(ctx, w), backend.ErrNoHistory)
	u, _ = b.CurrentURL(ctx, w)
	assert.Equal(t, "about:blank", u)
}

func TestFormSubmission(t *testing.T) {
	s := newSite(t)
	b, w := newWindow(t)
	ctx := context.Background()
	require.NoError(t, b.Navigate(ctx, w, s.URL+"/form"))

	q, _ := b.QuerySelector(ctx, top(w), "input[name=q]")
	agree, _ := b.QuerySelector(ctx, top(w), "input[name=agree]")
	goButton, _ := b.QuerySelector(ctx, top(w), "#go")

	require.NoError(t, b.SendKeys(ctx, q[0], "gophers!\uE003"))
	require.NoError(t, b.Click(ctx, agree[0]))
	require.NoError(t, b.Click(ctx, goButton[0]))

	assert.Equal(t, url.Values{"q": {"gophers"}, "agree": {"yes"}}, s.lastQuery())
	title, _ := b.Title(ctx, w)
	assert.Equal(t, "Results for gophers", title)
}

func TestEnterSubmitsForm(t *testing.T) {
	s := newSite(t)
	b, w := newWindow(t)
	ctx := context.Background()
	require.NoError(t, b.Navigate(ctx, w, s.URL+"/form"))

	q, _ := b.QuerySelector(ctx, top(w), "input[name=q]")
	require.NoError(t, b.SendKeys(ctx, q[0], "go\uE007"))
	assert.Equal(t, "go", s.lastQuery().Get("q"))
}

func TestCheckboxAndRadio(t *testing.T) {
	b, w := newWindow(t)
	ctx := context.Background()
	require.NoError(t, b.Navigate(ctx, w, page(`
		<input id="c" type="checkbox">
		<input id="r1" type="radio" name="g" checked>
		<input id="r2" type="radio" name="g">`)))

	c, _ := b.QuerySelector(ctx, top(w), "#c")
	r2, _ := b.QuerySelector(ctx, top(w), "#r2")

	require.NoError(t, b.Click(ctx, c[0]))
	checked, _ := b.QuerySelector(ctx, top(w), "#c:checked")
	assert.Len(t, checked, 1)

	require.NoError(t, b.Click(ctx, c[0]))
	checked, _ = b.QuerySelector(ctx, top(w), "#c:checked")
	assert.Empty(t, checked)

	require.NoError(t, b.Click(ctx, r2[0]))
	checked, _ = b.QuerySelector(ctx, top(w), "input[type=radio]:checked")
	assert.Equal(t, r2, checked)
}

func TestClearAndSendKeys(t *testing.T) {
	b, w := newWindow(t)
	ctx := context.Background()
	require.NoError(t, b.Navigate(ctx, w, page(`
		<textarea id="t">draft</textarea>
		<div id="d">text</div>
		<input id="off" disabled>`)))

	ta, _ := b.QuerySelector(ctx, top(w), "#t")
	div, _ := b.QuerySelector(ctx, top(w), "#d")
	off, _ := b.QuerySelector(ctx, top(w), "#off")

	require.NoError(t, b.Clear(ctx, ta[0]))
	require.NoError(t, b.SendKeys(ctx, ta[0], "line\uE007next"))
	text, err := b.NodeText(ctx, ta[0])
	require.NoError(t, err)
	assert.Equal(t, "line\nnext", text)

	assert.ErrorIs(t, b.SendKeys(ctx, div[0], "x"), backend.ErrNotInteractable)
	assert.ErrorIs(t, b.Clear(ctx, div[0]), backend.ErrNotInteractable)
	assert.ErrorIs(t, b.Click(ctx, off[0]), backend.ErrNotInteractable)
}

func TestFrames(t *testing.T) {
	b, w := newWindow(t)
	ctx := context.Background()
	require.NoError(t, b.Navigate(ctx, w, page(`
		<p id="outer">outer</p>
		<iframe srcdoc="<p id='inner'>inner</p>"></iframe>`)))
	topTarget := backend.Target{Window: w}

	zero := 0
	frame, err := b.SwitchFrame(ctx, topTarget, backend.FrameRef{Index: &zero})
	require.NoError(t, err)
	inside := backend.Target{Window: w, Frame: frame}

	inner, err := b.QuerySelector(ctx, backend.Scope{Target: inside}, "#inner")
	require.NoError(t, err)
	require.Len(t, inner, 1)
	outer, err := b.QuerySelector(ctx, backend.Scope{Target: inside}, "#outer")
	require.NoError(t, err)
	assert.Empty(t, outer)

	iframes, _ := b.QuerySelector(ctx, top(w), "iframe")
	same, err := b.SwitchFrame(ctx, topTarget, backend.FrameRef{Node: iframes[0]})
	require.NoError(t, err)
	assert.Equal(t, frame, same)

	p, _ := b.QuerySelector(ctx, top(w), "#outer")
	_, err = b.SwitchFrame(ctx, topTarget, backend.FrameRef{Node: p[0]})
	assert.ErrorIs(t, err, backend.ErrNoSuchFrame)

	five := 5
	_, err = b.SwitchFrame(ctx, topTarget, backend.FrameRef{Index: &five})
	assert.ErrorIs(t, err, backend.ErrNoSuchFrame)

	ok, err := b.FrameExists(ctx, inside)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, b.Navigate(ctx, w, "about:blank"))
	ok, err = b.FrameExists(ctx, inside)
	require.NoError(t, err)
	assert.False(t, ok)
	attached, _ := b.IsAttached(ctx, inner[0])
	assert.False(t, attached)
}

func TestWindows(t *testing.T) {
	b, first := newWindow(t)
	ctx := context.Background()

	second, err := b.OpenWindow(ctx)
	require.NoError(t, err)
	handles, err := b.ListWindows(ctx)
	require.NoError(t, err)
	assert.Equal(t, []backend.WindowHandle{first, second}, handles)

	require.NoError(t, b.Navigate(ctx, second, page(`<p>x</p>`)))
	nodes, _ := b.QuerySelector(ctx, top(second), "p")

	require.NoError(t, b.CloseWindow(ctx, second))
	assert.ErrorIs(t, b.CloseWindow(ctx, second), backend.ErrNoSuchWindow)
	_, err = b.Title(ctx, second)
	assert.ErrorIs(t, err, backend.ErrNoSuchWindow)
	attached, _ := b.IsAttached(ctx, nodes[0])
	assert.False(t, attached)

	handles, _ = b.ListWindows(ctx)
	assert.Equal(t, []backend.WindowHandle{first}, handles)

	require.NoError(t, b.Close())
	_, err = b.ListWindows(ctx)
	assert.ErrorIs(t, err, backend.ErrBackendClosed)
}

func TestExecuteScript(t *testing.T) {
	b, w := newWindow(t)
	ctx := context.Background()
	require.NoError(t, b.Navigate(ctx, w, page(`<title>Scripted</title>`)))
	target := backend.Target{Window: w}

	v, err := b.ExecuteScript(ctx, target, "return arguments[0] + arguments[1];", []any{float64(2), float64(3)})
	require.NoError(t, err)
	assert.Equal(t, float64(5), v)

	v, err = b.ExecuteScript(ctx, target, "return {title: document.title, n: [1, 'two']};", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "Scripted", "n": []any{float64(1), "two"}}, v)

	v, err = b.ExecuteScript(ctx, target, "var x = 1;", nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = b.ExecuteScript(ctx, target, "throw new Error('boom');", nil)
	assert.ErrorIs(t, err, backend.ErrScript)

	_, err = b.ExecuteScript(ctx, target, "return (;", nil)
	assert.ErrorIs(t, err, backend.ErrScript)
}

func TestExecuteScriptInterrupted(t *testing.T) {
	b, w := newWindow(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := b.ExecuteScript(ctx, backend.Target{Window: w}, "for (;;) {}", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestProviderLaunch(t *testing.T) {
	p := NewProvider(ProviderConfig{UserAgent: "test"}, nil)
	support := p.Support()
	assert.Equal(t, BrowserName, support.BrowserName)
	assert.True(t, support.Proxy)

	b, err := p.Launch(context.Background(), "s1", map[string]any{
		"acceptInsecureCerts": true,
		"proxy":               map[string]any{"proxyType": "manual", "httpProxy": "proxy.local:3128", "noProxy": []any{"internal"}},
	})
	require.NoError(t, err)
	require.NoError(t, b.Close())

	_, err = p.Launch(context.Background(), "s2", map[string]any{"proxy": map[string]any{"proxyType": "pac"}})
	assert.ErrorIs(t, err, backend.ErrUnsupported)
}

func TestProxyFunc(t *testing.T) {
	fn, err := proxyFunc(map[string]any{"proxyType": "manual", "httpProxy": "proxy.local:3128", "noProxy": []any{"skip.example"}})
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	u, err := fn(req)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "proxy.local:3128", u.Host)

	req, _ = http.NewRequest(http.MethodGet, "http://skip.example/", nil)
	u, err = fn(req)
	require.NoError(t, err)
	assert.Nil(t, u)
}
