package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/shehryarbajwa/webdriver-mini/internal/dispatch"
	"github.com/shehryarbajwa/webdriver-mini/internal/wderr"
	"github.com/shehryarbajwa/webdriver-mini/pkg/models"
)

const maxBodyBytes = 8 << 20

// Handler holds dependencies for HTTP handlers
type Handler struct {
	dispatcher *dispatch.Dispatcher
	logger     *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(dispatcher *dispatch.Dispatcher, logger *zap.Logger) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Command returns the HTTP handler for one dispatcher command.
func (h *Handler) Command(cmd dispatch.Command) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		req := dispatch.Request{
			SessionID: vars["sessionId"],
			ElementID: vars["elementId"],
		}

		if r.Method == http.MethodPost {
			params, err := decodeBody(r)
			if err != nil {
				writeError(w, err)
				return
			}
			req.Params = params
		}

		value, err := h.dispatcher.Execute(r.Context(), cmd.Name, req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeValue(w, http.StatusOK, value)
	}
}

// decodeBody reads a command's JSON object parameters. An empty body is an
// empty object.
func decodeBody(r *http.Request) (map[string]any, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, wderr.Wrap(err, wderr.InvalidArgument, "failed to read request body")
	}
	if len(data) > maxBodyBytes {
		return nil, wderr.Invalid("request body exceeds %d bytes", maxBodyBytes)
	}
	if len(data) == 0 {
		return map[string]any{}, nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, wderr.Wrap(err, wderr.InvalidArgument, "request body is not valid JSON")
	}
	params, ok := raw.(map[string]any)
	if !ok {
		return nil, wderr.Invalid("request body must be a JSON object")
	}
	return params, nil
}

// UnknownCommand answers requests that match no route.
func UnknownCommand(w http.ResponseWriter, r *http.Request) {
	writeError(w, wderr.New(wderr.UnknownCommand, "no command is mapped to %s %s", r.Method, r.URL.Path))
}

// UnknownMethod answers requests whose path exists under another method.
func UnknownMethod(w http.ResponseWriter, r *http.Request) {
	writeError(w, wderr.New(wderr.UnknownMethod, "%s is not supported for %s", r.Method, r.URL.Path))
}

func writeValue(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.Response{Value: value})
}

func writeError(w http.ResponseWriter, err error) {
	wdErr := wderr.From(err)
	status := wdErr.Status()
	var rateErr *rateLimitError
	if errors.As(err, &rateErr) {
		status = http.StatusTooManyRequests
	}
	writeValue(w, status, models.ErrorValue{
		Error:      string(wdErr.Kind),
		Message:    wdErr.Message,
		Stacktrace: wdErr.Diagnostic,
	})
}
