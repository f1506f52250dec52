// Package wderr is the error model shared by every protocol component.
// A Kind is the wire error code; the dispatcher turns any error into an
// *Error before it reaches the transport.
package wderr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind is a WebDriver error code as it appears on the wire.
type Kind string

const (
	InvalidArgument        Kind = "invalid argument"
	SessionNotCreated      Kind = "session not created"
	NoSuchSession          Kind = "invalid session id"
	NoSuchWindow           Kind = "no such window"
	NoSuchFrame            Kind = "no such frame"
	NoSuchElement          Kind = "no such element"
	StaleElementReference  Kind = "stale element reference"
	InvalidSelector        Kind = "invalid selector"
	ElementNotInteractable Kind = "element not interactable"
	Timeout                Kind = "timeout"
	ScriptTimeout          Kind = "script timeout"
	JavascriptError        Kind = "javascript error"
	UnknownCommand         Kind = "unknown command"
	UnknownMethod          Kind = "unknown method"
	UnknownError           Kind = "unknown error"
)

var statusByKind = map[Kind]int{
	InvalidArgument:        http.StatusBadRequest,
	SessionNotCreated:      http.StatusInternalServerError,
	NoSuchSession:          http.StatusNotFound,
	NoSuchWindow:           http.StatusNotFound,
	NoSuchFrame:            http.StatusNotFound,
	NoSuchElement:          http.StatusNotFound,
	StaleElementReference:  http.StatusNotFound,
	InvalidSelector:        http.StatusBadRequest,
	ElementNotInteractable: http.StatusBadRequest,
	Timeout:                http.StatusInternalServerError,
	ScriptTimeout:          http.StatusInternalServerError,
	JavascriptError:        http.StatusInternalServerError,
	UnknownCommand:         http.StatusNotFound,
	UnknownMethod:          http.StatusMethodNotAllowed,
	UnknownError:           http.StatusInternalServerError,
}

// HTTPStatus returns the HTTP status paired with k. Unrecognized kinds map to 500.
func HTTPStatus(k Kind) int {
	if status, ok := statusByKind[k]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Retryable reports whether a client may reasonably retry a command that
// failed with k without changing its input.
func Retryable(k Kind) bool {
	switch k {
	case Timeout, ScriptTimeout, NoSuchElement:
		return true
	}
	return false
}

// Error is a protocol error. Kind alone is enough for a client to branch on;
// Diagnostic carries backend detail for debugging and is sent as the stacktrace.
type Error struct {
	Kind       Kind
	Message    string
	Diagnostic string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status for the error's kind.
func (e *Error) Status() int {
	return HTTPStatus(e.Kind)
}

// New creates an Error of kind k.
func New(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of kind k around err. The wrapped error's text becomes
// the diagnostic.
func Wrap(err error, k Kind, message string) *Error {
	e := &Error{Kind: k, Message: message, Err: err}
	if err != nil {
		e.Diagnostic = err.Error()
	}
	return e
}

// Invalid is shorthand for an InvalidArgument error.
func Invalid(format string, args ...any) *Error {
	return New(InvalidArgument, format, args...)
}

// KindOf extracts the Kind from err. Errors that are not *Error report UnknownError.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var wdErr *Error
	if errors.As(err, &wdErr) {
		return wdErr.Kind
	}
	return UnknownError
}

// Is reports whether err carries kind k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// From returns err as an *Error. Protocol errors pass through unchanged,
// context expiry becomes Timeout and anything else becomes UnknownError so
// that no foreign error value reaches the wire.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var wdErr *Error
	if errors.As(err, &wdErr) {
		return wdErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(err, Timeout, "operation did not complete before its timeout expired")
	}
	return Wrap(err, UnknownError, "an unknown error occurred while processing the command")
}
