package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/kiln/internal/core/ports"
)

var _ sdktrace.SpanProcessor = (*Bridge)(nil)

// Bridge is a span processor that turns span lifecycle events into renderer calls.
type Bridge struct {
	renderer ports.Renderer
}

// NewBridge returns a Bridge forwarding to renderer, which may be nil.
func NewBridge(renderer ports.Renderer) *Bridge {
	return &Bridge{renderer: renderer}
}

// OnStart is called when a span starts.
func (b *Bridge) OnStart(_ context.Context, s sdktrace.ReadWriteSpan) {
	if b.renderer == nil {
		return
	}
	sc := s.SpanContext()
	if !sc.IsValid() {
		return
	}
	b.renderer.OnModuleStart(sc.SpanID().String(), s.Name(), s.StartTime())
}

// OnEnd is called when a span ends.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.renderer == nil {
		return
	}
	sc := s.SpanContext()
	if !sc.IsValid() {
		return
	}

	outcome, err := spanOutcome(s)
	b.renderer.OnModuleComplete(sc.SpanID().String(), s.EndTime(), outcome, err)
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(_ context.Context) error {
	return nil
}

func spanOutcome(s sdktrace.ReadOnlySpan) (ports.Outcome, error) {
	if s.Status().Code == codes.Error {
		desc := s.Status().Description
		if desc == "" {
			desc = "module failed"
		}
		return ports.OutcomeFailed, errors.New(desc)
	}

	outcome := ports.OutcomeCompiled
	for _, kv := range s.Attributes() {
		if kv.Value.Type() != attribute.BOOL || !kv.Value.AsBool() {
			continue
		}
		switch string(kv.Key) {
		case ports.AttrSkipped:
			return ports.OutcomeSkipped, nil
		case ports.AttrCached:
			outcome = ports.OutcomeCached
		}
	}
	return outcome, nil
}
