package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/kiln/internal/ui/style"
)

const helpText = "↑/↓ select · esc follow · q cancel"

// View renders the UI.
func (m *Model) View() string {
	if m.ListHeight == 0 {
		return "Initializing..."
	}

	sections := []string{m.header(), "", m.moduleList()}
	if detail := m.detail(); detail != "" {
		sections = append(sections, "", detail)
	}
	sections = append(sections, "", helpStyle.Render(helpText))
	return strings.Join(sections, "\n")
}

func (m *Model) header() string {
	var planned, finished, cached, failed, skipped int
	for _, row := range m.Modules {
		if !row.Planned {
			continue
		}
		planned++
		if row.Status.Finished() {
			finished++
		}
		switch row.Status {
		case StatusCached:
			cached++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}

	summary := fmt.Sprintf("%d/%d modules", finished, planned)
	if cached > 0 {
		summary += fmt.Sprintf(" · %d cached", cached)
	}
	if failed > 0 {
		summary += fmt.Sprintf(" · %d failed", failed)
	}
	if skipped > 0 {
		summary += fmt.Sprintf(" · %d skipped", skipped)
	}
	return titleStyle.Render("KILN") + " " + summary
}

func (m *Model) moduleList() string {
	start := m.ListOffset
	end := min(m.ListOffset+m.ListHeight, len(m.Modules))
	start = min(start, end)

	nameWidth := 0
	for _, row := range m.Modules[start:end] {
		nameWidth = max(nameWidth, lipgloss.Width(row.Name))
	}

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, m.renderRow(i, m.Modules[i], nameWidth))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderRow(index int, row *ModuleRow, nameWidth int) string {
	rowStyle := rowStyleFor(row.Status)

	cursor := "  "
	if index == m.SelectedIdx {
		cursor = selectedStyle.Render("> ")
		if !row.Status.Finished() {
			rowStyle = selectedStyle
		}
	}

	content := iconFor(row.Status) + " " + row.Name
	if elapsed := m.elapsed(row); elapsed != "" {
		content += strings.Repeat(" ", nameWidth-lipgloss.Width(row.Name)+2) + elapsed
	}
	return cursor + rowStyle.Render(content)
}

// elapsed renders the running time of a module. Cached and skipped rows show none.
func (m *Model) elapsed(row *ModuleRow) string {
	switch row.Status {
	case StatusRunning:
		return formatDuration(m.Now().Sub(row.StartTime))
	case StatusDone, StatusFailed:
		return formatDuration(row.EndTime.Sub(row.StartTime))
	default:
		return ""
	}
}

func (m *Model) detail() string {
	row := m.selected()
	if row == nil || row.Status != StatusFailed || row.Err == nil {
		return ""
	}

	lines := strings.Split(strings.TrimSpace(row.Err.Error()), "\n")
	if len(lines) > detailLines-2 {
		lines = append(lines[:detailLines-3], fmt.Sprintf("… %d more line(s)", len(lines)-(detailLines-3)))
	}
	out := []string{failureTitleStyle.Render("FAILED " + row.Name)}
	for _, line := range lines {
		out = append(out, moduleFailedStyle.Render(line))
	}
	return strings.Join(out, "\n")
}

func iconFor(status ModuleStatus) string {
	switch status {
	case StatusRunning:
		return style.Dot
	case StatusDone:
		return style.Check
	case StatusCached:
		return style.Cached
	case StatusFailed:
		return style.Cross
	case StatusSkipped:
		return style.Skip
	default:
		return style.Circle
	}
}

func rowStyleFor(status ModuleStatus) lipgloss.Style {
	switch status {
	case StatusRunning:
		return moduleRunningStyle
	case StatusDone:
		return moduleDoneStyle
	case StatusCached:
		return moduleCachedStyle
	case StatusFailed:
		return moduleFailedStyle
	case StatusSkipped:
		return moduleSkippedStyle
	default:
		return modulePendingStyle
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
