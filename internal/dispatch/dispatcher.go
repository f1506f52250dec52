// Package dispatch validates and executes WebDriver commands. Each command
// moves through Received, Validated, Executing and Completed; commands that
// address a session run while holding that session's execution slot.
package dispatch

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/shehryarbajwa/webdriver-mini/internal/metrics"
	"github.com/shehryarbajwa/webdriver-mini/internal/session"
	"github.com/shehryarbajwa/webdriver-mini/internal/wderr"
)

const tracerName = "github.com/shehryarbajwa/webdriver-mini/internal/dispatch"

// Stage is a command's position in its lifecycle.
type Stage string

const (
	StageReceived  Stage = "received"
	StageValidated Stage = "validated"
	StageExecuting Stage = "executing"
	StageCompleted Stage = "completed"
)

// Request is one incoming command.
type Request struct {
	SessionID string
	ElementID string
	// Params is the decoded JSON body, or nil for bodiless commands.
	Params map[string]any
}

// Dispatcher routes commands to sessions.
type Dispatcher struct {
	sessions *session.Manager
	commands map[string]Command
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	logger   *zap.Logger
}

// New creates a dispatcher over the standard command table.
func New(sessions *session.Manager, m *metrics.Metrics, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		sessions: sessions,
		commands: make(map[string]Command),
		metrics:  m,
		tracer:   otel.Tracer(tracerName),
		logger:   logger,
	}
	for _, c := range commandTable() {
		d.commands[c.Name] = c
	}
	return d
}

// Commands lists the commands the dispatcher executes, in route order.
func (d *Dispatcher) Commands() []Command {
	return commandTable()
}

// Execute runs the named command. The returned error is always a *wderr.Error.
func (d *Dispatcher) Execute(ctx context.Context, name string, req Request) (any, error) {
	start := time.Now()
	ctx, span := d.tracer.Start(ctx, "webdriver."+name, trace.WithAttributes(
		attribute.String("webdriver.command", name),
		attribute.String("webdriver.session_id", req.SessionID),
	))
	defer span.End()

	logger := d.logger.With(zap.String("command", name))
	if req.SessionID != "" {
		logger = logger.With(zap.String("session_id", req.SessionID))
	}
	logger.Debug("command", zap.String("stage", string(StageReceived)))

	value, err := d.execute(ctx, name, req, logger)

	result := "success"
	if err != nil {
		wdErr := wderr.From(err)
		err = wdErr
		result = string(wdErr.Kind)
		span.RecordError(wdErr)
		span.SetStatus(codes.Error, string(wdErr.Kind))
		logger.Debug("command failed", zap.String("error", string(wdErr.Kind)), zap.Error(wdErr.Err))
	}
	elapsed := time.Since(start)
	d.metrics.ObserveCommand(name, result, elapsed)
	logger.Debug("command",
		zap.String("stage", string(StageCompleted)),
		zap.String("result", result),
		zap.Duration("duration", elapsed))
	return value, err
}

func (d *Dispatcher) execute(ctx context.Context, name string, req Request, logger *zap.Logger) (any, error) {
	cmd, ok := d.commands[name]
	if !ok {
		return nil, wderr.New(wderr.UnknownCommand, "unknown command %q", name)
	}
	call := &Call{Request: req, Manager: d.sessions}

	if !cmd.Session {
		logger.Debug("command", zap.String("stage", string(StageValidated)))
		logger.Debug("command", zap.String("stage", string(StageExecuting)))
		value, err := cmd.Handler(ctx, call)
		if err != nil {
			return nil, wderr.FromBackend(err, wderr.Timeout)
		}
		return value, nil
	}

	s, err := d.sessions.Get(req.SessionID)
	if err != nil {
		return nil, err
	}
	release, err := s.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	call.Session = s

	if err := d.validate(ctx, cmd, call); err != nil {
		return nil, wderr.FromBackend(err, wderr.Timeout)
	}
	logger.Debug("command", zap.String("stage", string(StageValidated)))

	runCtx, cancel, timeoutKind := bound(ctx, cmd.Bound, s)
	defer cancel()
	logger.Debug("command", zap.String("stage", string(StageExecuting)))
	value, err := cmd.Handler(runCtx, call)
	if err != nil {
		return nil, wderr.FromBackend(err, timeoutKind)
	}
	return value, nil
}

// validate checks the preconditions of cmd before any backend effect: the
// browsing context is open and any element in the path still resolves.
func (d *Dispatcher) validate(ctx context.Context, cmd Command, call *Call) error {
	if cmd.Context {
		if err := call.Session.CheckContext(ctx); err != nil {
			return err
		}
	}
	if cmd.Element {
		if call.ElementID == "" {
			return wderr.Invalid("missing element id")
		}
		if _, err := call.Session.Resolve(ctx, call.element()); err != nil {
			return err
		}
	}
	return nil
}

// bound derives the context a command executes under from the session's
// timeouts and reports the error kind its expiry maps to.
func bound(ctx context.Context, b Bound, s *session.Session) (context.Context, context.CancelFunc, wderr.Kind) {
	timeouts := s.Timeouts()
	switch b {
	case BoundPageLoad:
		if timeouts.PageLoad != nil {
			ctx, cancel := context.WithTimeout(ctx, *timeouts.PageLoad)
			return ctx, cancel, wderr.Timeout
		}
	case BoundScript:
		if timeouts.Script != nil {
			ctx, cancel := context.WithTimeout(ctx, *timeouts.Script)
			return ctx, cancel, wderr.ScriptTimeout
		}
		return ctx, func() {}, wderr.ScriptTimeout
	}
	return ctx, func() {}, wderr.Timeout
}
