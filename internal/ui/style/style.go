// Package style holds the colors and icons shared by every kiln output surface.
package style

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	Ember  = lipgloss.Color("#E8590C")
	Ash    = lipgloss.Color("#6B7280")
	Clay   = lipgloss.Color("#F4EDE4")
	Char   = lipgloss.Color("#1C1917")
	Green  = lipgloss.Color("#2F9E44")
	Red    = lipgloss.Color("#E03131")
	Yellow = lipgloss.Color("#F59F00")
	Blue   = lipgloss.Color("#1C7ED6")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Cached  = "≡"
	Skip    = "-"
	Dot     = "●"
	Circle  = "○"
	Arrow   = "→"
)
