package dispatch

import (
	"context"
	"net/http"
	"strings"

	"github.com/shehryarbajwa/webdriver-mini/internal/element"
	"github.com/shehryarbajwa/webdriver-mini/internal/session"
	"github.com/shehryarbajwa/webdriver-mini/internal/wderr"
	"github.com/shehryarbajwa/webdriver-mini/pkg/models"
)

// Bound selects the session timeout that limits a command.
type Bound int

const (
	BoundNone Bound = iota
	BoundPageLoad
	BoundScript
)

// Handler executes a validated command.
type Handler func(ctx context.Context, c *Call) (any, error)

// Command describes one entry of the command table.
type Command struct {
	Name   string
	Method string
	// Path is a route template; {sessionId} and {elementId} are bound into
	// the Request.
	Path string

	// Session commands run holding the session's slot.
	Session bool
	// Context commands need the current browsing context to be open.
	Context bool
	// Element commands address the element in the path, which is resolved
	// before the handler runs.
	Element bool
	Bound   Bound
	Handler Handler
}

// Call is the state a handler works with.
type Call struct {
	Request
	Manager *session.Manager
	Session *session.Session
}

func (c *Call) element() element.ID {
	return element.ID(c.ElementID)
}

const (
	sessionPath = "/session/{sessionId}"
	elementPath = sessionPath + "/element/{elementId}"
)

func commandTable() []Command {
	return []Command{
		{Name: "NewSession", Method: http.MethodPost, Path: "/session", Handler: newSession},
		{Name: "DeleteSession", Method: http.MethodDelete, Path: sessionPath, Handler: deleteSession},
		{Name: "Status", Method: http.MethodGet, Path: "/status", Handler: status},
		{Name: "GetSessions", Method: http.MethodGet, Path: "/sessions", Handler: listSessions},

		{Name: "GetTimeouts", Method: http.MethodGet, Path: sessionPath + "/timeouts", Session: true, Handler: getTimeouts},
		{Name: "SetTimeouts", Method: http.MethodPost, Path: sessionPath + "/timeouts", Session: true, Handler: setTimeouts},

		{Name: "NavigateTo", Method: http.MethodPost, Path: sessionPath + "/url", Session: true, Context: true, Bound: BoundPageLoad, Handler: navigateTo},
		{Name: "GetCurrentURL", Method: http.MethodGet, Path: sessionPath + "/url", Session: true, Context: true, Handler: currentURL},
		{Name: "Back", Method: http.MethodPost, Path: sessionPath + "/back", Session: true, Context: true, Bound: BoundPageLoad, Handler: back},
		{Name: "Forward", Method: http.MethodPost, Path: sessionPath + "/forward", Session: true, Context: true, Bound: BoundPageLoad, Handler: forward},
		{Name: "Refresh", Method: http.MethodPost, Path: sessionPath + "/refresh", Session: true, Context: true, Bound: BoundPageLoad, Handler: refresh},
		{Name: "GetTitle", Method: http.MethodGet, Path: sessionPath + "/title", Session: true, Context: true, Handler: title},

		{Name: "GetWindowHandle", Method: http.MethodGet, Path: sessionPath + "/window", Session: true, Handler: windowHandle},
		{Name: "CloseWindow", Method: http.MethodDelete, Path: sessionPath + "/window", Session: true, Handler: closeWindow},
		{Name: "SwitchToWindow", Method: http.MethodPost, Path: sessionPath + "/window", Session: true, Handler: switchToWindow},
		{Name: "GetWindowHandles", Method: http.MethodGet, Path: sessionPath + "/window/handles", Session: true, Handler: windowHandles},
		{Name: "NewWindow", Method: http.MethodPost, Path: sessionPath + "/window/new", Session: true, Context: true, Handler: newWindow},
		{Name: "SwitchToFrame", Method: http.MethodPost, Path: sessionPath + "/frame", Session: true, Context: true, Bound: BoundPageLoad, Handler: switchToFrame},
		{Name: "SwitchToParentFrame", Method: http.MethodPost, Path: sessionPath + "/frame/parent", Session: true, Context: true, Handler: switchToParentFrame},

		{Name: "FindElement", Method: http.MethodPost, Path: sessionPath + "/element", Session: true, Context: true, Handler: findElement},
		{Name: "FindElements", Method: http.MethodPost, Path: sessionPath + "/elements", Session: true, Context: true, Handler: findElements},
		{Name: "FindElementFromElement", Method: http.MethodPost, Path: elementPath + "/element", Session: true, Context: true, Element: true, Handler: findElement},
		{Name: "FindElementsFromElement", Method: http.MethodPost, Path: elementPath + "/elements", Session: true, Context: true, Element: true, Handler: findElements},
		{Name: "GetElementText", Method: http.MethodGet, Path: elementPath + "/text", Session: true, Context: true, Element: true, Handler: elementText},
		{Name: "GetElementTagName", Method: http.MethodGet, Path: elementPath + "/name", Session: true, Context: true, Element: true, Handler: elementTag},
		{Name: "ElementClick", Method: http.MethodPost, Path: elementPath + "/click", Session: true, Context: true, Element: true, Bound: BoundPageLoad, Handler: elementClick},
		{Name: "ElementClear", Method: http.MethodPost, Path: elementPath + "/clear", Session: true, Context: true, Element: true, Handler: elementClear},
		{Name: "ElementSendKeys", Method: http.MethodPost, Path: elementPath + "/value", Session: true, Context: true, Element: true, Bound: BoundPageLoad, Handler: elementSendKeys},

		{Name: "ExecuteScript", Method: http.MethodPost, Path: sessionPath + "/execute/sync", Session: true, Context: true, Bound: BoundScript, Handler: executeScript},
	}
}

func newSession(ctx context.Context, c *Call) (any, error) {
	s, err := c.Manager.Create(ctx, c.Params)
	if err != nil {
		return nil, err
	}
	return models.NewSessionResponse{SessionID: s.ID, Capabilities: s.Capabilities}, nil
}

func deleteSession(ctx context.Context, c *Call) (any, error) {
	return nil, c.Manager.Delete(ctx, c.SessionID, session.ReasonDeleted)
}

func status(_ context.Context, c *Call) (any, error) {
	st := models.Status{Ready: c.Manager.Ready(), Sessions: c.Manager.Len()}
	if st.Ready {
		st.Message = "ready to create a session"
	} else {
		st.Message = "session capacity reached"
	}
	return st, nil
}

func listSessions(_ context.Context, c *Call) (any, error) {
	live := c.Manager.List()
	out := make([]models.SessionInfo, 0, len(live))
	for _, s := range live {
		out = append(out, models.SessionInfo{ID: s.ID, Capabilities: s.Capabilities})
	}
	return out, nil
}

func getTimeouts(_ context.Context, c *Call) (any, error) {
	return c.Session.Timeouts().Map(), nil
}

func setTimeouts(_ context.Context, c *Call) (any, error) {
	if c.Params == nil {
		return nil, wderr.Invalid("timeouts must be an object")
	}
	_, err := c.Session.SetTimeouts(c.Params)
	return nil, err
}

func navigateTo(ctx context.Context, c *Call) (any, error) {
	url, err := stringParam(c.Params, "url")
	if err != nil {
		return nil, err
	}
	return nil, c.Session.Navigate(ctx, url)
}

func currentURL(ctx context.Context, c *Call) (any, error) {
	return c.Session.CurrentURL(ctx)
}

func back(ctx context.Context, c *Call) (any, error) {
	return nil, c.Session.Back(ctx)
}

func forward(ctx context.Context, c *Call) (any, error) {
	return nil, c.Session.Forward(ctx)
}

func refresh(ctx context.Context, c *Call) (any, error) {
	return nil, c.Session.Refresh(ctx)
}

func title(ctx context.Context, c *Call) (any, error) {
	return c.Session.Title(ctx)
}

func windowHandle(ctx context.Context, c *Call) (any, error) {
	return c.Session.WindowHandle(ctx)
}

func closeWindow(ctx context.Context, c *Call) (any, error) {
	remaining, ended, err := c.Session.CloseWindow(ctx)
	if err != nil {
		return nil, err
	}
	if ended {
		if err := c.Manager.End(c.Session, session.ReasonLastWindow); err != nil {
			return nil, err
		}
	}
	return remaining, nil
}

func switchToWindow(ctx context.Context, c *Call) (any, error) {
	handle, err := stringParam(c.Params, "handle")
	if err != nil {
		legacy, lerr := stringParam(c.Params, "name")
		if lerr != nil {
			return nil, err
		}
		handle = legacy
	}
	return nil, c.Session.SwitchWindow(ctx, handle)
}

func windowHandles(ctx context.Context, c *Call) (any, error) {
	return c.Session.WindowHandles(ctx)
}

func newWindow(ctx context.Context, c *Call) (any, error) {
	if v, ok := c.Params["type"]; ok && v != nil {
		if _, ok := v.(string); !ok {
			return nil, wderr.Invalid("window type must be a string, got %T", v)
		}
	}
	return c.Session.NewWindow(ctx)
}

func switchToFrame(ctx context.Context, c *Call) (any, error) {
	raw, ok := c.Params["id"]
	if !ok {
		return nil, wderr.Invalid("missing frame id")
	}

	var sel session.FrameSelector
	switch v := raw.(type) {
	case nil:
	case float64:
		index, ok := integer(v)
		if !ok {
			return nil, wderr.Invalid("frame index must be an integer, got %v", v)
		}
		sel.Index = &index
	case map[string]any:
		id, ok := models.ElementID(v)
		if !ok {
			return nil, wderr.Invalid("frame id object is not an element reference")
		}
		sel.Element = element.ID(id)
	default:
		return nil, wderr.Invalid("frame id must be null, a number or an element, got %T", raw)
	}
	return nil, c.Session.SwitchFrame(ctx, sel)
}

func switchToParentFrame(ctx context.Context, c *Call) (any, error) {
	return nil, c.Session.SwitchParentFrame(ctx)
}

func locatorParams(params map[string]any) (using, value string, err error) {
	if using, err = stringParam(params, "using"); err != nil {
		return "", "", err
	}
	if value, err = stringParam(params, "value"); err != nil {
		return "", "", err
	}
	return using, value, nil
}

func findElement(ctx context.Context, c *Call) (any, error) {
	using, value, err := locatorParams(c.Params)
	if err != nil {
		return nil, err
	}
	id, err := c.Session.FindElement(ctx, c.element(), using, value)
	if err != nil {
		return nil, err
	}
	return models.NewElement(string(id)), nil
}

func findElements(ctx context.Context, c *Call) (any, error) {
	using, value, err := locatorParams(c.Params)
	if err != nil {
		return nil, err
	}
	ids, err := c.Session.FindElements(ctx, c.element(), using, value)
	if err != nil {
		return nil, err
	}
	out := make([]models.Element, len(ids))
	for i, id := range ids {
		out[i] = models.NewElement(string(id))
	}
	return out, nil
}

func elementText(ctx context.Context, c *Call) (any, error) {
	return c.Session.ElementText(ctx, c.element())
}

func elementTag(ctx context.Context, c *Call) (any, error) {
	return c.Session.ElementTag(ctx, c.element())
}

func elementClick(ctx context.Context, c *Call) (any, error) {
	return nil, c.Session.Click(ctx, c.element())
}

func elementClear(ctx context.Context, c *Call) (any, error) {
	return nil, c.Session.Clear(ctx, c.element())
}

func elementSendKeys(ctx context.Context, c *Call) (any, error) {
	text, err := keysParam(c.Params)
	if err != nil {
		return nil, err
	}
	return nil, c.Session.SendKeys(ctx, c.element(), text)
}

func executeScript(ctx context.Context, c *Call) (any, error) {
	script, err := stringParam(c.Params, "script")
	if err != nil {
		return nil, err
	}
	var args []any
	if raw, ok := c.Params["args"]; ok && raw != nil {
		list, ok := raw.([]any)
		if !ok {
			return nil, wderr.Invalid("args must be an array, got %T", raw)
		}
		args = list
	}
	if models.ContainsElement(args) {
		return nil, wderr.Invalid("element references are not supported as script arguments")
	}

	result, err := c.Session.ExecuteScript(ctx, script, args)
	if err != nil {
		return nil, err
	}
	if models.ContainsElement(result) {
		return nil, wderr.Invalid("scripts may not return element references")
	}
	return result, nil
}

// keysParam reads the text to type from "text", or from the legacy "value"
// array of strings.
func keysParam(params map[string]any) (string, error) {
	if raw, ok := params["text"]; ok {
		text, ok := raw.(string)
		if !ok {
			return "", wderr.Invalid("text must be a string, got %T", raw)
		}
		return text, nil
	}
	raw, ok := params["value"].([]any)
	if !ok {
		return "", wderr.Invalid("missing text")
	}
	var b strings.Builder
	for _, part := range raw {
		s, ok := part.(string)
		if !ok {
			return "", wderr.Invalid("value entries must be strings, got %T", part)
		}
		b.WriteString(s)
	}
	return b.String(), nil
}
