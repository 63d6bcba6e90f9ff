package telemetry_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bradstire/wst-reader/internal/telemetry"
)

func TestInit_DisabledIsNoop(t *testing.T) {
	shutdown, err := telemetry.Init(context.Background(), telemetry.Options{})
	require.NoError(t, err)

	_, span := telemetry.Tracer("").Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_EnabledExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := telemetry.Init(context.Background(), telemetry.Options{
		Enabled: true,
		Service: "wst-test",
		Version: "test",
		Writer:  &buf,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = telemetry.Init(context.Background(), telemetry.Options{})
	})

	_, span := telemetry.Tracer("").Start(context.Background(), "reading.chapter")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "reading.chapter")
}
