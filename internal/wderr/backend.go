package wderr

import (
	"context"
	"errors"

	"github.com/shehryarbajwa/webdriver-mini/internal/backend"
)

var backendKinds = []struct {
	err     error
	kind    Kind
	message string
}{
	{backend.ErrNoSuchWindow, NoSuchWindow, "the browsing context has been discarded"},
	{backend.ErrNoSuchFrame, NoSuchFrame, "unable to locate frame"},
	{backend.ErrDetached, StaleElementReference, "element is no longer attached to the DOM"},
	{backend.ErrInvalidSelector, InvalidSelector, "selector is not valid"},
	{backend.ErrNotInteractable, ElementNotInteractable, "element is not interactable"},
	{backend.ErrInvalidURL, InvalidArgument, "url is not valid"},
	{backend.ErrScript, JavascriptError, "script raised an error"},
	{backend.ErrUnsupported, UnknownCommand, "command is not supported by this backend"},
}

// FromBackend maps an error returned by a backend call onto the taxonomy.
// Deadline expiry maps to timeoutKind so callers can distinguish page load
// timeouts from script timeouts.
func FromBackend(err error, timeoutKind Kind) *Error {
	if err == nil {
		return nil
	}
	var wdErr *Error
	if errors.As(err, &wdErr) {
		return wdErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(err, timeoutKind, "operation did not complete before its timeout expired")
	}
	for _, m := range backendKinds {
		if errors.Is(err, m.err) {
			return Wrap(err, m.kind, m.message)
		}
	}
	return Wrap(err, UnknownError, "backend reported an unexpected failure")
}
