package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestProcessInput_Span(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	a := New(DefaultConfig(), nil, nil, WithTracerProvider(tp))

	a.ProcessInput(context.Background(), "/help", &Context{UserID: "u1", CurrentPage: "dashboard"})

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "agent.process_input", spans[0].Name())

	attrs := map[attribute.Key]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value.Emit()
	}
	assert.Equal(t, "command", attrs["agent.path"])
	assert.Equal(t, "help", attrs["agent.command"])
	assert.Equal(t, "text", attrs["agent.response_kind"])
	assert.Equal(t, "dashboard", attrs["agent.page"])
}
