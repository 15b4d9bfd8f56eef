package telemetry_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestOTelTracer_EmitPlan(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mocks.NewMockRenderer(ctrl)
	renderer.EXPECT().OnPlanEmit([]string{"lib.kn", "main.kn"}).Times(1)

	tp, err := telemetry.NewProvider(nil, nil)
	require.NoError(t, err)

	telemetry.NewOTelTracer(tp, "kiln", renderer).EmitPlan(context.Background(), []string{"lib.kn", "main.kn"})
}

func TestNewProvider_TraceFile(t *testing.T) {
	buf := &bytes.Buffer{}
	tp, err := telemetry.NewProvider(nil, buf)
	require.NoError(t, err)

	tracer := telemetry.NewOTelTracer(tp, "kiln", nil)
	_, span := tracer.Start(context.Background(), "src/main.kn")
	span.SetAttribute(ports.AttrModule, "/p/src/main.kn")
	span.SetAttribute(ports.AttrCached, true)
	span.SetAttribute("kiln.deps", 3)
	span.End()

	require.NoError(t, tp.Shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, `"Name":"src/main.kn"`)
	assert.Contains(t, out, ports.AttrModule)
	assert.Contains(t, out, "/p/src/main.kn")
}

func TestNoOpTracer(t *testing.T) {
	tracer := telemetry.NewNoOpTracer()
	ctx := context.Background()

	newCtx, span := tracer.Start(ctx, "noop")
	assert.Equal(t, ctx, newCtx)
	span.SetAttribute(ports.AttrCached, true)
	span.RecordError(assert.AnError)
	span.End()
	tracer.EmitPlan(ctx, []string{"a"})
}
