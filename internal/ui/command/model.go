package command

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/todo-client/internal/theme"
)

// CommandMsg carries the canonical name of an executed command, or the raw
// input when it matched nothing.
type CommandMsg string

// Command is a palette entry.
type Command struct {
	Name        string
	Aliases     []string
	Description string
}

// Commands lists the palette entries in display order.
var Commands = []Command{
	{Name: "refresh", Aliases: []string{"r", "reload"}, Description: "reload todos from the server"},
	{Name: "logout", Aliases: []string{"signout"}, Description: "forget the session token"},
	{Name: "help", Aliases: []string{"h", "?"}, Description: "show key bindings"},
	{Name: "quit", Aliases: []string{"q", "exit"}, Description: "leave the app"},
}

// Resolve maps input to a command name. Matching ignores case and
// surrounding space; unknown input is returned trimmed.
func Resolve(input string) string {
	in := strings.ToLower(strings.TrimSpace(input))
	for _, c := range Commands {
		if in == c.Name {
			return c.Name
		}
		for _, a := range c.Aliases {
			if in == a {
				return c.Name
			}
		}
	}
	return strings.TrimSpace(input)
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a command palette.
func New(width, height int) Model {
	names := make([]string, len(Commands))
	for i, c := range Commands {
		names[i] = c.Name
	}

	ti := textinput.New()
	ti.Placeholder = "command"
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions(names)
	ti.Width = width - 6

	return Model{input: ti, width: width, height: height}
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.Type == tea.KeyEnter {
		raw := m.input.Value()
		m.input.Reset()
		if strings.TrimSpace(raw) == "" {
			return m, nil
		}
		name := Resolve(raw)
		return m, func() tea.Msg { return CommandMsg(name) }
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the input above the command reference.
func (m Model) View() string {
	rows := make([]string, 0, len(Commands))
	for _, c := range Commands {
		name := lipgloss.NewStyle().Foreground(theme.ColorBlue).Width(10).Render(c.Name)
		rows = append(rows, fmt.Sprintf("%s%s", name, theme.HelpStyle.Render(c.Description)))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render("Commands"),
		"",
		m.input.View(),
		"",
		strings.Join(rows, "\n"),
	)
	return theme.PanelStyle.Width(m.width - 4).Render(content)
}

// SetSize updates the palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus clears stale input and focuses the prompt.
func (m *Model) Focus() tea.Cmd {
	m.input.Reset()
	return m.input.Focus()
}
