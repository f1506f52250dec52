package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/shehryarbajwa/webdriver-mini/internal/metrics"
	"github.com/shehryarbajwa/webdriver-mini/internal/ratelimit"
)

// RateLimit configures RateLimitMiddleware. A nil Limiter disables it.
type RateLimit struct {
	Limiter           *ratelimit.Limiter
	RequestsPerMinute int
}

// SetupRoutes configures all HTTP routes
func (h *Handler) SetupRoutes(rl RateLimit, m *metrics.Metrics) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(UnknownCommand)
	r.MethodNotAllowedHandler = http.HandlerFunc(UnknownMethod)

	if m != nil {
		r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}

	// Every command is registered on the root router so a path that exists
	// under another method reaches MethodNotAllowedHandler. Status stays
	// reachable while a client is being throttled.
	limit := func(next http.Handler) http.Handler { return next }
	if rl.Limiter != nil {
		limit = RateLimitMiddleware(rl.Limiter, rl.RequestsPerMinute, m)
	}
	for _, cmd := range h.dispatcher.Commands() {
		var handler http.Handler = h.Command(cmd)
		if cmd.Name != "Status" {
			handler = limit(handler)
		}
		r.Handle(cmd.Path, handler).Methods(cmd.Method).Name(cmd.Name)
	}

	r.Use(otelhttp.NewMiddleware("webdriver"))
	r.Use(LoggingMiddleware(h.logger))
	r.Use(RecoverMiddleware(h.logger))
	return r
}
