package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTelemetryDisabled(t *testing.T) {
	shutdown, err := InitTelemetry(context.Background(), Options{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestNewTracerProvider(t *testing.T) {
	ctx := context.Background()
	recorder := tracetest.NewSpanRecorder()
	tp, err := NewTracerProvider(ctx, Options{ServiceName: "test"}, sdktrace.WithSpanProcessor(recorder))
	require.NoError(t, err)
	defer tp.Shutdown(ctx)

	_, span := tp.Tracer(InstrumentationName).Start(ctx, "tick")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "tick", spans[0].Name())

	found := false
	for _, attr := range spans[0].Resource().Attributes() {
		if attr.Key == "service.name" {
			found = true
			assert.Equal(t, "test", attr.Value.AsString())
		}
	}
	assert.True(t, found)
}
