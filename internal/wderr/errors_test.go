package wderr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shehryarbajwa/webdriver-mini/internal/backend"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{InvalidArgument, http.StatusBadRequest},
		{SessionNotCreated, http.StatusInternalServerError},
		{NoSuchSession, http.StatusNotFound},
		{NoSuchWindow, http.StatusNotFound},
		{NoSuchElement, http.StatusNotFound},
		{StaleElementReference, http.StatusNotFound},
		{InvalidSelector, http.StatusBadRequest},
		{Timeout, http.StatusInternalServerError},
		{UnknownMethod, http.StatusMethodNotAllowed},
		{Kind("made up"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.kind))
		})
	}
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("find: %w", New(NoSuchElement, "nothing matched %q", "h1"))
	assert.Equal(t, NoSuchElement, KindOf(err))
	assert.True(t, Is(err, NoSuchElement))
	assert.Equal(t, UnknownError, KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestFromBackend(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"window", fmt.Errorf("close: %w", backend.ErrNoSuchWindow), NoSuchWindow},
		{"frame", backend.ErrNoSuchFrame, NoSuchFrame},
		{"detached", backend.ErrDetached, StaleElementReference},
		{"selector", backend.ErrInvalidSelector, InvalidSelector},
		{"interactable", backend.ErrNotInteractable, ElementNotInteractable},
		{"deadline", context.DeadlineExceeded, ScriptTimeout},
		{"foreign", errors.New("CDP error -32000"), UnknownError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromBackend(tt.err, ScriptTimeout)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Kind)
			assert.NotEmpty(t, got.Diagnostic)
		})
	}
	assert.Nil(t, FromBackend(nil, Timeout))
}

func TestFromPassesProtocolErrors(t *testing.T) {
	orig := Invalid("bad payload")
	assert.Same(t, orig, From(fmt.Errorf("decode: %w", orig)))
	assert.Equal(t, Timeout, From(context.DeadlineExceeded).Kind)
	assert.Equal(t, UnknownError, From(errors.New("boom")).Kind)
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(Timeout))
	assert.False(t, Retryable(InvalidArgument))
}
