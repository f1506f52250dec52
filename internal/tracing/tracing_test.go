package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestDisabled(t *testing.T) {
	p, err := Setup(context.Background(), Config{})
	require.NoError(t, err)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestStdoutExport(t *testing.T) {
	var buf bytes.Buffer
	p, err := Setup(context.Background(), Config{Stdout: true, Writer: &buf, ServiceName: "webdriver-mini", Version: "test"})
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "webdriver.GetTitle")
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), "webdriver.GetTitle")
	assert.Contains(t, buf.String(), "webdriver-mini")
}
