package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/kiln/internal/core/ports"
)

const (
	// headerLines covers the title line and the blank line below it.
	headerLines = 2
	// footerLines covers the blank line and the key help.
	footerLines = 2
	// detailLines is reserved below the list once a module has failed.
	detailLines = 8
)

// ModuleStatus is the display state of a module row.
type ModuleStatus string

const (
	// StatusPending indicates the module is waiting for its dependencies.
	StatusPending ModuleStatus = "Pending"
	// StatusRunning indicates the module is being checked or compiled.
	StatusRunning ModuleStatus = "Running"
	// StatusDone indicates the module was compiled.
	StatusDone ModuleStatus = "Done"
	// StatusCached indicates the module was restored from the cache.
	StatusCached ModuleStatus = "Cached"
	// StatusFailed indicates the module failed.
	StatusFailed ModuleStatus = "Failed"
	// StatusSkipped indicates the module was not attempted.
	StatusSkipped ModuleStatus = "Skipped"
)

// Finished reports whether the row reached a terminal state.
func (s ModuleStatus) Finished() bool {
	return s != StatusPending && s != StatusRunning
}

// ModuleRow is a single module in the UI list.
type ModuleRow struct {
	Name      string
	Status    ModuleStatus
	StartTime time.Time
	EndTime   time.Time
	Err       error
	// Planned is false for work that was not part of the module plan, like the link step.
	Planned bool
}

// Model represents the TUI state.
type Model struct {
	Modules      []*ModuleRow
	ModuleMap    map[string]*ModuleRow
	SpanMap      map[string]*ModuleRow
	SelectedIdx  int
	ListOffset   int
	ListHeight   int
	Height       int
	Width        int
	FollowMode   bool
	TickInterval time.Duration
	Now          func() time.Time

	disableTick bool
}

// Init schedules the first redraw tick.
func (m *Model) Init() tea.Cmd {
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	if m.disableTick {
		return nil
	}
	return tea.Tick(m.TickInterval, func(t time.Time) tea.Msg {
		return msgTick(t)
	})
}

// Update handles incoming messages and updates the model state.
//
//nolint:cyclop // message dispatch
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Interrupt
		case "k", "up":
			if m.SelectedIdx > 0 {
				m.SelectedIdx--
				m.FollowMode = false
				m.ensureVisible()
			}
		case "j", "down":
			if m.SelectedIdx < len(m.Modules)-1 {
				m.SelectedIdx++
				m.FollowMode = false
				m.ensureVisible()
			}
		case "esc":
			m.FollowMode = true
			m.followLatest()
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.resize()

	case msgTick:
		return m, m.tick()

	case MsgPlan:
		m.Modules = make([]*ModuleRow, len(msg.Modules))
		m.ModuleMap = make(map[string]*ModuleRow, len(msg.Modules))
		m.SpanMap = make(map[string]*ModuleRow)
		for i, name := range msg.Modules {
			m.Modules[i] = &ModuleRow{Name: name, Status: StatusPending, Planned: true}
			m.ModuleMap[name] = m.Modules[i]
		}
		m.SelectedIdx = 0
		m.ListOffset = 0

	case MsgModuleStart:
		row, ok := m.ModuleMap[msg.Name]
		if !ok {
			row = &ModuleRow{Name: msg.Name}
			m.Modules = append(m.Modules, row)
			m.ModuleMap[msg.Name] = row
		}
		row.Status = StatusRunning
		row.StartTime = msg.StartTime
		m.SpanMap[msg.SpanID] = row
		if m.FollowMode && !m.selectedFailed() {
			m.selectRow(row)
		}

	case MsgModuleComplete:
		if row, ok := m.SpanMap[msg.SpanID]; ok {
			row.EndTime = msg.EndTime
			row.Err = msg.Err
			row.Status = statusFor(msg.Outcome)
			m.resize()
			if m.FollowMode && row.Status == StatusFailed {
				m.selectRow(row)
			}
		}
	}

	return m, nil
}

func statusFor(outcome ports.Outcome) ModuleStatus {
	switch outcome {
	case ports.OutcomeCached:
		return StatusCached
	case ports.OutcomeFailed:
		return StatusFailed
	case ports.OutcomeSkipped:
		return StatusSkipped
	default:
		return StatusDone
	}
}

// resize recomputes the list height from the window height.
func (m *Model) resize() {
	if m.Height <= 0 {
		return
	}
	h := m.Height - headerLines - footerLines
	if m.hasFailure() {
		h -= detailLines
	}
	m.ListHeight = max(h, 1)
	m.ensureVisible()
}

func (m *Model) hasFailure() bool {
	for _, row := range m.Modules {
		if row.Status == StatusFailed {
			return true
		}
	}
	return false
}

func (m *Model) selectRow(row *ModuleRow) {
	for i, r := range m.Modules {
		if r == row {
			m.SelectedIdx = i
			break
		}
	}
	m.ensureVisible()
}

// followLatest selects the first failed module, or else the most recently started running one.
func (m *Model) followLatest() {
	var latest *ModuleRow
	for _, row := range m.Modules {
		if row.Status == StatusFailed {
			m.selectRow(row)
			return
		}
		if row.Status == StatusRunning && (latest == nil || row.StartTime.After(latest.StartTime)) {
			latest = row
		}
	}
	if latest != nil {
		m.selectRow(latest)
	}
}

func (m *Model) ensureVisible() {
	if m.ListHeight <= 0 {
		return
	}
	if m.SelectedIdx < m.ListOffset {
		m.ListOffset = m.SelectedIdx
	} else if m.SelectedIdx >= m.ListOffset+m.ListHeight {
		m.ListOffset = m.SelectedIdx - m.ListHeight + 1
	}
	if maxOffset := max(len(m.Modules)-m.ListHeight, 0); m.ListOffset > maxOffset {
		m.ListOffset = maxOffset
	}
}

func (m *Model) selectedFailed() bool {
	row := m.selected()
	return row != nil && row.Status == StatusFailed
}

func (m *Model) selected() *ModuleRow {
	if m.SelectedIdx >= 0 && m.SelectedIdx < len(m.Modules) {
		return m.Modules[m.SelectedIdx]
	}
	return nil
}
