package help

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/todo-client/internal/keys"
	"github.com/nhle/todo-client/internal/theme"
)

// Model is the help overlay view.
type Model struct {
	keys          *keys.KeyMap
	help          help.Model
	confirmDelete bool
	width         int
	height        int
}

// New creates a new help view model. confirmDelete selects the note shown
// under the delete binding.
func New(keys *keys.KeyMap, confirmDelete bool, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:          keys,
		help:          h,
		confirmDelete: confirmDelete,
		width:         width,
		height:        height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Keyboard Shortcuts")

	m.help.Width = m.width - 4
	m.help.ShowAll = true
	helpText := m.help.View(m.keys)

	note := "Deleting a todo asks for confirmation."
	if !m.confirmDelete {
		note = "Deleting a todo takes effect immediately."
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		helpText,
		"",
		theme.HelpStyle.Render(note),
	)

	return theme.PanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
