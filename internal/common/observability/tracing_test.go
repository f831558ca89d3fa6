package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestEndSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer tp.Shutdown(context.Background())

	_, ok := tp.Tracer("test").Start(context.Background(), "ok")
	EndSpan(ok, nil)

	_, failed := tp.Tracer("test").Start(context.Background(), "failed")
	EndSpan(failed, errors.New("solver timed out"))

	ended := rec.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, codes.Unset, ended[0].Status().Code)
	assert.Equal(t, codes.Error, ended[1].Status().Code)
	assert.Equal(t, "solver timed out", ended[1].Status().Description)
	require.Len(t, ended[1].Events(), 1)
	assert.Equal(t, "exception", ended[1].Events()[0].Name)
}

func TestNewTracing(t *testing.T) {
	t.Run("without exporter", func(t *testing.T) {
		tr, err := NewTracing("basket-optimizer-test", "", 1)
		require.NoError(t, err)
		defer tr.Shutdown()

		_, span := Tracer("test").Start(context.Background(), "op")
		assert.True(t, span.SpanContext().IsSampled())
		span.End()
	})

	t.Run("with jaeger collector", func(t *testing.T) {
		tr, err := NewTracing("basket-optimizer-test", "http://127.0.0.1:14268/api/traces", 0)
		require.NoError(t, err)
		defer tr.Shutdown()

		_, span := Tracer("test").Start(context.Background(), "op")
		assert.False(t, span.SpanContext().IsSampled())
		span.End()
	})

	t.Run("nil shutdown", func(t *testing.T) {
		var tr *Tracing
		assert.NotPanics(t, tr.Shutdown)
	})
}
