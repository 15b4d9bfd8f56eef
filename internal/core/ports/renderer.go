package ports

import (
	"context"
	"time"
)

// Outcome is how a rendered unit of work finished.
type Outcome uint8

const (
	// OutcomeCompiled means the work ran and succeeded.
	OutcomeCompiled Outcome = iota
	// OutcomeCached means the result came from the cache.
	OutcomeCached
	// OutcomeFailed means the work ran and failed.
	OutcomeFailed
	// OutcomeSkipped means the work was never attempted.
	OutcomeSkipped
)

// Renderer is the abstraction for build progress output.
// It decouples telemetry collection from presentation logic,
// allowing the same event stream to drive either a TUI or linear CI logs.
//
//go:generate go run go.uber.org/mock/mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// Start initializes the renderer and begins its lifecycle.
	Start(ctx context.Context) error

	// Stop signals the renderer to stop accepting events and flush its output.
	Stop() error

	// Wait blocks until the renderer has fully terminated.
	Wait() error

	// OnPlanEmit is called once with every module of the build in topological order.
	OnPlanEmit(modules []string)

	// OnModuleStart is called when a module is picked up by a worker.
	OnModuleStart(spanID, name string, startTime time.Time)

	// OnModuleComplete is called when a module reaches a terminal state.
	OnModuleComplete(spanID string, endTime time.Time, outcome Outcome, err error)
}
