package ui

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/tempoplan/tempo/internal/task"
)

// Color definitions for consistent styling across the UI.
var (
	// Booked work: bold cyan
	colorScheduled = color.New(color.FgCyan, color.Bold)

	// Pending work: plain white
	colorPending = color.New(color.FgWhite)

	// Blocked on the user: yellow to make it pop
	colorBlocked = color.New(color.FgYellow)

	// Headers: bold
	colorHeader = color.New(color.Bold)

	// Counts and stats: green
	colorStats = color.New(color.FgGreen)

	// Muted: for secondary information
	colorMuted = color.New(color.FgWhite, color.Faint)
)

// termWidth returns the terminal width, or a default if detection fails.
func termWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // sensible default
	}
	return width
}

// DisableColor disables all color output.
func DisableColor() {
	color.NoColor = true
}

// statusSymbol returns the one-character marker shown before a task.
func statusSymbol(t *task.Task) string {
	switch {
	case t.NeedsClarification:
		return colorBlocked.Sprint("?")
	case t.Status == task.StatusDone:
		return colorMuted.Sprint("x")
	case t.Status == task.StatusScheduled:
		return colorScheduled.Sprint("*")
	default:
		return colorPending.Sprint("-")
	}
}

func formatTitle(t *task.Task) string {
	switch {
	case t.NeedsClarification:
		return colorBlocked.Sprint(t.Title)
	case t.Status == task.StatusScheduled:
		return colorScheduled.Sprint(t.Title)
	case t.Status == task.StatusDone:
		return colorMuted.Sprint(t.Title)
	default:
		return colorPending.Sprint(t.Title)
	}
}

func formatHeader(s string) string {
	return colorHeader.Sprint(s)
}

func formatStats(s string) string {
	return colorStats.Sprint(s)
}

func formatMuted(s string) string {
	return colorMuted.Sprint(s)
}
