package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shehryarbajwa/webdriver-mini/internal/backend"
	"github.com/shehryarbajwa/webdriver-mini/internal/browser"
)

type handlerFunc func(req Request) (any, *AgentError)

// newAgent serves a websocket agent answering requests with handle.
func newAgent(t *testing.T, handle handlerFunc) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		for {
			var raw struct {
				ID     uint64          `json:"id"`
				Method string          `json:"method"`
				Params json.RawMessage `json:"params"`
			}
			if err := ws.ReadJSON(&raw); err != nil {
				return
			}
			result, agentErr := handle(Request{ID: raw.ID, Method: raw.Method, Params: raw.Params})
			if result == "stale-first" {
				_ = ws.WriteJSON(Response{ID: raw.ID + 1000, Result: json.RawMessage(`{"value":"wrong"}`)})
				result = map[string]any{"value": "right"}
			}
			resp := Response{ID: raw.ID, Error: agentErr}
			if result != nil {
				resp.Result, _ = json.Marshal(result)
			}
			if err := ws.WriteJSON(resp); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, srv *httptest.Server) *Backend {
	t.Helper()
	conn, err := Dial(context.Background(), wsURL(srv), nil, nil)
	require.NoError(t, err)
	b := NewBackend(conn, nil)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestRoundTrip(t *testing.T) {
	var mu sync.Mutex
	var seen []Request
	srv := newAgent(t, func(req Request) (any, *AgentError) {
		mu.Lock()
		seen = append(seen, req)
		mu.Unlock()
		switch req.Method {
		case MethodOpenWindow:
			return map[string]any{"handle": "w-1"}, nil
		case MethodTitle:
			return map[string]any{"value": "Agent Page"}, nil
		case MethodQuerySelector:
			return map[string]any{"nodes": []string{"n1", "n2"}}, nil
		case MethodIsAttached:
			return map[string]any{"value": true}, nil
		case MethodExecuteScript:
			return map[string]any{"value": map[string]any{"ok": true}}, nil
		}
		return nil, nil
	})
	b := dial(t, srv)
	ctx := context.Background()

	w, err := b.OpenWindow(ctx)
	require.NoError(t, err)
	assert.Equal(t, backend.WindowHandle("w-1"), w)

	require.NoError(t, b.Navigate(ctx, w, "https://example.com/"))

	title, err := b.Title(ctx, w)
	require.NoError(t, err)
	assert.Equal(t, "Agent Page", title)

	nodes, err := b.QuerySelector(ctx, backend.Scope{Target: backend.Target{Window: w, Frame: "f1"}}, "p")
	require.NoError(t, err)
	assert.Equal(t, []backend.NodeRef{"n1", "n2"}, nodes)

	ok, err := b.IsAttached(ctx, "n1")
	require.NoError(t, err)
	assert.True(t, ok)

	v, err := b.ExecuteScript(ctx, backend.Target{Window: w}, "return 1", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, v)

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(seen), 4)
	var nav navigateParams
	require.NoError(t, json.Unmarshal(seen[1].Params.(json.RawMessage), &nav))
	assert.Equal(t, navigateParams{Window: "w-1", URL: "https://example.com/"}, nav)
	var q queryParams
	require.NoError(t, json.Unmarshal(seen[3].Params.(json.RawMessage), &q))
	assert.Equal(t, backend.FrameID("f1"), q.Frame)
	assert.Equal(t, "p", q.Selector)
}

func TestAgentErrorsMapToSentinels(t *testing.T) {
	codes := map[string]error{
		MethodNodeText:      backend.ErrDetached,
		MethodSwitchFrame:   backend.ErrNoSuchFrame,
		MethodCloseWindow:   backend.ErrNoSuchWindow,
		MethodQuerySelector: backend.ErrInvalidSelector,
		MethodClick:         backend.ErrNotInteractable,
		MethodExecuteScript: backend.ErrScript,
	}
	srv := newAgent(t, func(req Request) (any, *AgentError) {
		switch req.Method {
		case MethodNodeText:
			return nil, &AgentError{Code: "stale element reference", Message: "gone"}
		case MethodSwitchFrame:
			return nil, &AgentError{Code: "no such frame"}
		case MethodCloseWindow:
			return nil, &AgentError{Code: "no such window"}
		case MethodQuerySelector:
			return nil, &AgentError{Code: "invalid selector"}
		case MethodClick:
			return nil, &AgentError{Code: "element not interactable"}
		case MethodExecuteScript:
			return nil, &AgentError{Code: "javascript error"}
		}
		return nil, &AgentError{Code: "session crashed", Message: "renderer died"}
	})
	b := dial(t, srv)
	ctx := context.Background()

	_, err := b.NodeText(ctx, "n1")
	assert.ErrorIs(t, err, codes[MethodNodeText])
	_, err = b.SwitchFrame(ctx, backend.Target{Window: "w"}, backend.FrameRef{Node: "n1"})
	assert.ErrorIs(t, err, codes[MethodSwitchFrame])
	assert.ErrorIs(t, b.CloseWindow(ctx, "w"), codes[MethodCloseWindow])
	_, err = b.QuerySelector(ctx, backend.Scope{}, "p[")
	assert.ErrorIs(t, err, codes[MethodQuerySelector])
	assert.ErrorIs(t, b.Click(ctx, "n1"), codes[MethodClick])
	_, err = b.ExecuteScript(ctx, backend.Target{Window: "w"}, "throw 1", nil)
	assert.ErrorIs(t, err, codes[MethodExecuteScript])

	err = b.Refresh(ctx, "w")
	require.Error(t, err)
	var agentErr *AgentError
	require.ErrorAs(t, err, &agentErr)
	assert.Equal(t, "session crashed", agentErr.Code)
	assert.Nil(t, agentErr.Unwrap())
}

func TestStaleResponsesAreDropped(t *testing.T) {
	srv := newAgent(t, func(req Request) (any, *AgentError) {
		return "stale-first", nil
	})
	b := dial(t, srv)

	title, err := b.Title(context.Background(), "w")
	require.NoError(t, err)
	assert.Equal(t, "right", title)
}

func TestCallHonoursContext(t *testing.T) {
	release := make(chan struct{})
	srv := newAgent(t, func(req Request) (any, *AgentError) {
		if req.Method == MethodNavigate {
			<-release
		}
		return map[string]any{"value": "after"}, nil
	})
	b := dial(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := b.Navigate(ctx, "w", "https://slow.example/")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)

	title, err := b.Title(context.Background(), "w")
	require.NoError(t, err)
	assert.Equal(t, "after", title)
}

func TestClosedConnection(t *testing.T) {
	srv := newAgent(t, func(req Request) (any, *AgentError) { return nil, nil })
	conn, err := Dial(context.Background(), wsURL(srv), nil, nil)
	require.NoError(t, err)
	b := NewBackend(conn, nil)
	require.NoError(t, b.Close())

	_, err = b.Title(context.Background(), "w")
	assert.ErrorIs(t, err, backend.ErrBackendClosed)
}

func TestDialFailure(t *testing.T) {
	_, err := Dial(context.Background(), "ws://127.0.0.1:1/agent", nil, nil)
	assert.Error(t, err)
}

type fakeLauncher struct {
	url     string
	stopped atomic.Int32
}

func (f *fakeLauncher) Launch(ctx context.Context, sessionID string) (*browser.AgentInstance, error) {
	return &browser.AgentInstance{ContainerID: "c-" + sessionID, SessionID: sessionID, ConnectURL: f.url}, nil
}

func (f *fakeLauncher) Stop(ctx context.Context, containerID string) error {
	f.stopped.Add(1)
	return nil
}

func TestProviderStopsContainerOnClose(t *testing.T) {
	srv := newAgent(t, func(req Request) (any, *AgentError) { return nil, nil })
	launcher := &fakeLauncher{url: wsURL(srv)}
	support := backend.Support{BrowserName: "agent", BrowserVersion: "2.0.0", PlatformName: "linux"}
	p := NewProvider(ProviderConfig{Support: support}, launcher, nil)
	assert.Equal(t, support, p.Support())

	b, err := p.Launch(context.Background(), "s1", nil)
	require.NoError(t, err)
	require.NoError(t, b.Close())
	assert.Equal(t, int32(1), launcher.stopped.Load())
}

func TestProviderStopsContainerWhenDialFails(t *testing.T) {
	launcher := &fakeLauncher{url: "ws://127.0.0.1:1/agent"}
	p := NewProvider(ProviderConfig{}, launcher, nil)

	_, err := p.Launch(context.Background(), "s1", nil)
	assert.Error(t, err)
	assert.Equal(t, int32(1), launcher.stopped.Load())
}

func TestProviderSharedURL(t *testing.T) {
	srv := newAgent(t, func(req Request) (any, *AgentError) {
		return map[string]any{"handles": []string{"a", "b"}}, nil
	})
	p := NewProvider(ProviderConfig{URL: wsURL(srv)}, nil, nil)

	b, err := p.Launch(context.Background(), "s1", nil)
	require.NoError(t, err)
	defer b.Close()
	handles, err := b.ListWindows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []backend.WindowHandle{"a", "b"}, handles)
}
