package trace

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledTracingIsNoop(t *testing.T) {
	require.NoError(t, InitWithEnabled(false))
	assert.False(t, Enabled())

	ctx, span := StartSpan(context.Background(), "noop")
	span.End()
	_, _, ok := GetTraceFields(ctx)
	assert.False(t, ok)
}

func TestEnabledTracingProducesIDs(t *testing.T) {
	var buf bytes.Buffer
	exportTo = &buf
	require.NoError(t, InitWithEnabled(true))
	t.Cleanup(func() {
		_ = Shutdown(context.Background())
		tracerProvider = nil
		tracer = nil
		enabled = false
	})

	ctx, span := StartSpan(context.Background(), "scan")
	traceID, spanID, ok := GetTraceFields(ctx)
	span.End()

	require.True(t, ok)
	assert.Len(t, traceID, 32)
	assert.Len(t, spanID, 16)

	require.NoError(t, Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "scan")
}
