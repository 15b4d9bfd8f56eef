package tui

import tea "github.com/charmbracelet/bubbletea"

// Program exposes the underlying tea.Program for tests.
func (r *Renderer) Program() *tea.Program {
	return r.program
}
