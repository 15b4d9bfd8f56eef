package ports

import "context"

//go:generate go run go.uber.org/mock/mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Tracer is the entry point for creating spans.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string) (context.Context, Span)
	// EmitPlan announces the modules of a build in topological order.
	EmitPlan(ctx context.Context, modules []string)
}

// Span represents a unit of work.
type Span interface {
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
}

// Span attribute keys understood by the renderers.
const (
	AttrModule  = "kiln.module"
	AttrCached  = "kiln.cached"
	AttrSkipped = "kiln.skipped"
	AttrBuildID = "kiln.build_id"
)
