package tui

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/kiln/internal/ui/style"
)

var (
	modulePendingStyle = lipgloss.NewStyle().
				Foreground(style.Ash)

	moduleRunningStyle = lipgloss.NewStyle().
				Foreground(style.Ember).
				Bold(true)

	moduleDoneStyle = lipgloss.NewStyle().
			Foreground(style.Green)

	moduleCachedStyle = lipgloss.NewStyle().
				Foreground(style.Blue).
				Faint(true)

	moduleFailedStyle = lipgloss.NewStyle().
				Foreground(style.Red)

	moduleSkippedStyle = lipgloss.NewStyle().
				Foreground(style.Yellow).
				Faint(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(style.Ember).
			Bold(true)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Background(style.Ember).
			Foreground(style.Clay)

	failureTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Padding(0, 1).
				Background(style.Red).
				Foreground(style.Clay)

	helpStyle = lipgloss.NewStyle().
			Foreground(style.Ash)
)
