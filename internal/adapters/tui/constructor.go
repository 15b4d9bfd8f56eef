// Package tui provides the interactive terminal renderer for builds.
package tui

import (
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/kiln/internal/ui/output"
)

const defaultTickInterval = 100 * time.Millisecond

// NewModel creates a new TUI model with default settings.
// The writer is only used to pick the color profile.
func NewModel(w io.Writer) Model {
	out := output.New(w)
	lipgloss.SetColorProfile(out.Profile)

	return Model{
		Modules:      make([]*ModuleRow, 0),
		ModuleMap:    make(map[string]*ModuleRow),
		SpanMap:      make(map[string]*ModuleRow),
		FollowMode:   true,
		TickInterval: defaultTickInterval,
		Now:          time.Now,
	}
}

// WithDisableTick returns a copy of the model that never schedules redraw ticks.
//
//nolint:gocritic // hugeParam: builder on a value model
func (m Model) WithDisableTick() Model {
	m.disableTick = true
	return m
}
