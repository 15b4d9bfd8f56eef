package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer wraps the Bubble Tea model as a ports.Renderer.
type Renderer struct {
	program *tea.Program
	model   *Model
	errCh   chan error
}

// NewRenderer creates a new TUI renderer.
func NewRenderer(model *Model, opts ...tea.ProgramOption) *Renderer {
	return &Renderer{
		program: tea.NewProgram(model, opts...),
		model:   model,
		errCh:   make(chan error, 1),
	}
}

// Start launches the TUI in a background goroutine.
func (r *Renderer) Start(_ context.Context) error {
	go func() {
		_, err := r.program.Run()
		r.errCh <- err
	}()
	return nil
}

// Stop signals the TUI to quit after drawing its final frame.
func (r *Renderer) Stop() error {
	r.program.Quit()
	return nil
}

// Wait blocks until the TUI has terminated. A user interrupt is reported
// as domain.ErrBuildCancelled. A program killed by its context is not an error.
func (r *Renderer) Wait() error {
	err := <-r.errCh
	switch {
	case err == nil:
		return nil
	case errors.Is(err, tea.ErrInterrupted):
		return domain.ErrBuildCancelled
	case errors.Is(err, tea.ErrProgramKilled) && !errors.Is(err, tea.ErrProgramPanic):
		return nil
	default:
		return err
	}
}

// OnPlanEmit forwards the module plan to the TUI.
func (r *Renderer) OnPlanEmit(modules []string) {
	r.program.Send(MsgPlan{Modules: modules})
}

// OnModuleStart forwards module start events to the TUI.
func (r *Renderer) OnModuleStart(spanID, name string, startTime time.Time) {
	r.program.Send(MsgModuleStart{
		SpanID:    spanID,
		Name:      name,
		StartTime: startTime,
	})
}

// OnModuleComplete forwards module completion events to the TUI.
func (r *Renderer) OnModuleComplete(spanID string, endTime time.Time, outcome ports.Outcome, err error) {
	r.program.Send(MsgModuleComplete{
		SpanID:  spanID,
		EndTime: endTime,
		Outcome: outcome,
		Err:     err,
	})
}

// Model returns the model driven by the program.
func (r *Renderer) Model() *Model {
	return r.model
}
