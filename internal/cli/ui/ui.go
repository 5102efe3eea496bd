// Package ui provides styling and output helpers for the CLI.
package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rodaine/table"
)

var (
	// ErrorStyle is the style for error messages
	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555"))

	// SuccessStyle is the style for success messages
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B"))

	// WarningStyle is the style for warning messages
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C"))

	// DimStyle is the style for dimmed text
	DimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

	// BoldStyle is the style for bold text
	BoldStyle = lipgloss.NewStyle().Bold(true)

	// RunningStyle marks processes that are currently running
	RunningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B")).Bold(true)

	// StoppedStyle marks processes that are stopped
	StoppedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

func Error(format string, args ...any) {
	fmt.Fprintln(os.Stderr, ErrorStyle.Render(fmt.Sprintf(format, args...)))
}

func Success(format string, args ...any) {
	fmt.Println(SuccessStyle.Render(fmt.Sprintf(format, args...)))
}

func Warning(format string, args ...any) {
	fmt.Println(WarningStyle.Render(fmt.Sprintf(format, args...)))
}

// NewTable creates a table with consistent styling.
func NewTable(headers ...any) table.Table {
	tbl := table.New(headers...)
	tbl.WithFirstColumnFormatter(func(format string, vals ...any) string {
		return BoldStyle.Render(fmt.Sprintf(format, vals...))
	})
	tbl.WithPadding(2)
	tbl.WithWidthFunc(lipgloss.Width)
	return tbl
}

// StateText renders a process state with its color.
func StateText(state string, running bool) string {
	if running {
		return RunningStyle.Render(state)
	}
	return StoppedStyle.Render(state)
}

// FormatSince formats how long ago t was, or "-" when zero.
func FormatSince(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "< 1m"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
