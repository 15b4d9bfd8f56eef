package tui

import (
	"time"

	"go.trai.ch/kiln/internal/core/ports"
)

// MsgPlan announces the modules of a build in topological order.
type MsgPlan struct {
	Modules []string
}

// MsgModuleStart marks a module as picked up by a worker.
type MsgModuleStart struct {
	SpanID    string
	Name      string
	StartTime time.Time
}

// MsgModuleComplete marks a module as finished.
type MsgModuleComplete struct {
	SpanID  string
	EndTime time.Time
	Outcome ports.Outcome
	Err     error
}

type msgTick time.Time
