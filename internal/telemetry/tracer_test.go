package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitTracerExportsSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var out bytes.Buffer
	shutdown, err := InitTracer("hookci-test", &out, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "pipeline.execute")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, out.String(), "pipeline.execute")
	assert.Contains(t, out.String(), "hookci-test")
}
