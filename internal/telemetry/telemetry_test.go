package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInit_DisabledReturnsNoopProviders(t *testing.T) {
	p, err := Init(context.Background(), Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestShutdown_NilReceiverIsSafe(t *testing.T) {
	var p *Providers
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestTracer_ReturnsUsableTracer(t *testing.T) {
	tracer := Tracer("test")
	_, span := tracer.Start(context.Background(), "op")
	defer span.End()
	assert.NotNil(t, span)
}
