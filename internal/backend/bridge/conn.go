// Package bridge drives a remote automation agent over a websocket. Each
// backend call is one request frame answered by one response frame.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/shehryarbajwa/webdriver-mini/internal/backend"
)

// Request is a frame sent to the agent.
type Request struct {
	ID     uint64 `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// Response is a frame received from the agent.
type Response struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *AgentError     `json:"error,omitempty"`
}

// AgentError is a failure reported by the agent.
type AgentError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("agent: %s: %s", e.Code, e.Message)
}

// Unwrap exposes the backend sentinel for well-known agent codes.
func (e *AgentError) Unwrap() error {
	return agentCodes[e.Code]
}

var agentCodes = map[string]error{
	"no such window":           backend.ErrNoSuchWindow,
	"no such frame":            backend.ErrNoSuchFrame,
	"stale element reference":  backend.ErrDetached,
	"invalid selector":         backend.ErrInvalidSelector,
	"element not interactable": backend.ErrNotInteractable,
	"invalid url":              backend.ErrInvalidURL,
	"javascript error":         backend.ErrScript,
	"unsupported operation":    backend.ErrUnsupported,
	"no history":               backend.ErrNoHistory,
}

// Conn is a request/response channel to one agent. A reader goroutine
// routes each response to the caller waiting on its id; responses nobody is
// waiting for, such as replies to timed out calls, are dropped.
type Conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
	logger  *zap.Logger

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]chan Response
	err     error
	done    chan struct{}
}

// Dial connects to an agent endpoint.
func Dial(ctx context.Context, url string, header http.Header, logger *zap.Logger) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to agent at %s: %w", url, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Conn{
		ws:      ws,
		logger:  logger,
		pending: make(map[uint64]chan Response),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Call sends method with params and decodes the result into out, which may
// be nil. The context bounds the wait for the reply.
func (c *Conn) Call(ctx context.Context, method string, params, out any) error {
	c.mu.Lock()
	if c.err != nil {
		c.mu.Unlock()
		return fmt.Errorf("%s: %w", method, backend.ErrBackendClosed)
	}
	c.nextID++
	id := c.nextID
	ch := make(chan Response, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := c.write(ctx, Request{ID: id, Method: method, Params: params}); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return fmt.Errorf("%s: %w", method, resp.Error)
		}
		if out == nil || len(resp.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("%s: malformed result: %w", method, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", method, ctx.Err())
	case <-c.done:
		return fmt.Errorf("%s: %w", method, backend.ErrBackendClosed)
	}
}

func (c *Conn) write(ctx context.Context, req Request) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	deadline, _ := ctx.Deadline()
	_ = c.ws.SetWriteDeadline(deadline)
	if err := c.ws.WriteJSON(req); err != nil {
		c.shutdown(err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", backend.ErrBackendClosed, err)
	}
	return nil
}

func (c *Conn) readLoop() {
	for {
		var resp Response
		if err := c.ws.ReadJSON(&resp); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("agent connection closed unexpectedly", zap.Error(err))
			}
			c.shutdown(err)
			return
		}

		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		c.mu.Unlock()
		if !ok {
			c.logger.Debug("dropping unmatched agent response", zap.Uint64("id", resp.ID))
			continue
		}
		select {
		case ch <- resp:
		default:
		}
	}
}

func (c *Conn) shutdown(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return
	}
	c.err = err
	close(c.done)
	_ = c.ws.Close()
}

// Close sends a close frame and releases the connection.
func (c *Conn) Close() error {
	c.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	c.writeMu.Unlock()
	c.shutdown(net.ErrClosed)
	return nil
}
