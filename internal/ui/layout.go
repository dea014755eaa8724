package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/todo-client/internal/theme"
)

// Layout holds the terminal size and splits it into a one-line header, the
// content area and a one-line status bar.
type Layout struct {
	Width  int
	Height int
}

// NewLayout creates a Layout for a terminal of the given size.
func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height}
}

// ContentWidth returns the width available to a view.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the rows left between the header and the status bar.
func (l Layout) ContentHeight() int {
	h := l.Height - 2
	if h < 0 {
		return 0
	}
	return h
}

// RenderHeader renders the app title on the left and status on the right.
func (l Layout) RenderHeader(title, status string) string {
	left := theme.HeaderStyle.Render(title)
	right := theme.HeaderStyle.Render(status)
	gap := l.Width - lipgloss.Width(left) - lipgloss.Width(right)
	return left + pad(theme.HeaderStyle, gap) + right
}

// RenderStatusBar renders the toast, if any, followed by the key hints.
// The toast is truncated so the bar stays on one line.
func (l Layout) RenderStatusBar(toast string, level theme.ToastLevel, hints string) string {
	bar := theme.StatusBarStyle.Render(hints)
	if toast != "" {
		room := l.Width - lipgloss.Width(bar) - 2
		if room < 10 {
			room = 10
		}
		bar = theme.ToastStyle(level).Render(truncate(toast, room)) + bar
	}
	return bar + pad(theme.StatusBarStyle, l.Width-lipgloss.Width(bar))
}

// Render stacks header, content and status bar.
func (l Layout) Render(header, content, statusBar string) string {
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

// pad returns n cells of the style's background.
func pad(style lipgloss.Style, n int) string {
	if n <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Width(n).
		Background(style.GetBackground()).
		Render("")
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
