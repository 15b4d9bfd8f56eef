// Package linear provides a synchronous, line-based renderer for CI environments.
package linear

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/ui/output"
	"go.trai.ch/kiln/internal/ui/style"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer implements ports.Renderer for CI and other non-interactive output.
// It prints one chronological line per finished module.
type Renderer struct {
	w      io.Writer
	output *termenv.Output

	mu      sync.Mutex
	modules map[string]*moduleState // spanID -> module
}

type moduleState struct {
	name      string
	startTime time.Time
}

// NewRenderer creates a linear renderer writing to w. A nil writer means os.Stderr.
func NewRenderer(w io.Writer) *Renderer {
	out := output.NewWithProfile(w, output.ColorProfileANSI)
	return &Renderer{
		w:       out,
		output:  out,
		modules: make(map[string]*moduleState),
	}
}

// Start is a no-op for the linear renderer.
func (r *Renderer) Start(_ context.Context) error {
	return nil
}

// Stop reports modules that never finished.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for spanID, m := range r.modules {
		prefix := r.output.String(fmt.Sprintf("[%s]", m.name)).Faint().String()
		_, _ = fmt.Fprintf(r.w, "%s %s Interrupted\n", prefix, style.Circle)
		delete(r.modules, spanID)
	}
	return nil
}

// Wait is a no-op for the linear renderer.
func (r *Renderer) Wait() error {
	return nil
}

// OnPlanEmit prints the number of planned modules.
func (r *Renderer) OnPlanEmit(modules []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.w, "Planning to build %d module(s)\n", len(modules))
}

// OnModuleStart records the module. Output is deferred until it completes.
func (r *Renderer) OnModuleStart(spanID, name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.modules[spanID] = &moduleState{name: name, startTime: startTime}
}

// OnModuleComplete prints the module's outcome.
func (r *Renderer) OnModuleComplete(spanID string, endTime time.Time, outcome ports.Outcome, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.modules[spanID]
	if !ok {
		return
	}
	delete(r.modules, spanID)

	prefix := fmt.Sprintf("[%s]", m.name)
	duration := endTime.Sub(m.startTime).Round(time.Millisecond)

	switch outcome {
	case ports.OutcomeFailed:
		symbol := r.output.String(style.Cross).Foreground(termenv.ANSIRed).String()
		_, _ = fmt.Fprintf(r.w, "%s %s Failed after %v\n", prefix, symbol, duration)
		if err != nil {
			for line := range strings.SplitSeq(strings.TrimSpace(err.Error()), "\n") {
				_, _ = fmt.Fprintf(r.w, "    %s\n", line)
			}
		}
	case ports.OutcomeSkipped:
		symbol := r.output.String(style.Skip).Foreground(termenv.ANSIYellow).String()
		_, _ = fmt.Fprintf(r.w, "%s %s Skipped\n", prefix, symbol)
	case ports.OutcomeCached:
		symbol := r.output.String(style.Cached).Foreground(termenv.ANSIBlue).String()
		_, _ = fmt.Fprintf(r.w, "%s %s Cached\n", prefix, symbol)
	default:
		symbol := r.output.String(style.Check).Foreground(termenv.ANSIGreen).String()
		_, _ = fmt.Fprintf(r.w, "%s %s Completed in %v\n", prefix, symbol, duration)
	}
}
