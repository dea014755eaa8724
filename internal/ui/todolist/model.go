package todolist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/todo-client/internal/keys"
	"github.com/nhle/todo-client/internal/model"
	"github.com/nhle/todo-client/internal/theme"
)

// SubmitDraftMsg is sent when the user submits the draft input.
type SubmitDraftMsg struct {
	Text string
}

// DeleteConfirmMsg is sent when the delete confirmation closes.
type DeleteConfirmMsg struct {
	Confirmed bool
}

// confirmBindings holds the confirmation answer on the heap so that huh's
// Value() pointer remains valid across Bubble Tea model copies.
type confirmBindings struct {
	confirmed bool
}

// Model is the todo list view with its draft input and the delete
// confirmation prompt.
type Model struct {
	list       list.Model
	keys       *keys.KeyMap
	delegate   *ItemDelegate
	input      textinput.Model
	confirm    *huh.Form
	cb         *confirmBindings
	spinner    spinner.Model
	loading    bool
	submitting bool
	width      int
	height     int
}

// New creates a new todo list model.
func New(k *keys.KeyMap, width, height int) Model {
	delegate := &ItemDelegate{}
	l := list.New([]list.Item{}, delegate, width, listHeight(height))
	l.Title = "Todos"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	ti := textinput.New()
	ti.Placeholder = "What needs to be done?"
	ti.Prompt = "+ "
	ti.CharLimit = model.MaxTodoNameLength
	ti.Width = width - 4

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	return Model{
		list:     l,
		keys:     k,
		delegate: delegate,
		input:    ti,
		cb:       &confirmBindings{},
		spinner:  sp,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the todo list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if _, ok := msg.(spinner.TickMsg); ok {
		if !m.loading && !m.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.confirm != nil {
		return m.updateConfirm(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if m.input.Focused() {
			return m.handleInputKeys(keyMsg)
		}
		if key.Matches(keyMsg, m.keys.NewTodo) {
			cmd := m.input.Focus()
			return m, cmd
		}
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleInputKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		if m.submitting {
			return m, nil
		}
		text := m.input.Value()
		return m, func() tea.Msg { return SubmitDraftMsg{Text: text} }

	case key.Matches(msg, m.keys.Back):
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.confirm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirm = f
	}

	switch m.confirm.State {
	case huh.StateCompleted:
		confirmed := m.cb.confirmed
		m.confirm = nil
		return m, func() tea.Msg { return DeleteConfirmMsg{Confirmed: confirmed} }
	case huh.StateAborted:
		m.confirm = nil
		return m, func() tea.Msg { return DeleteConfirmMsg{Confirmed: false} }
	}
	return m, cmd
}

// StartConfirm opens the delete confirmation for todo.
func (m *Model) StartConfirm(todo model.Todo) tea.Cmd {
	m.cb.confirmed = false
	m.delegate.pendingID = todo.ID
	m.confirm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q?", todo.Name)).
				Description("This cannot be undone.").
				Affirmative("Delete").
				Negative("Cancel").
				Value(&m.cb.confirmed),
		),
	).WithWidth(m.formWidth()).WithShowHelp(false)
	return m.confirm.Init()
}

// ClearPending removes the delete marker from the list.
func (m *Model) ClearPending() {
	m.delegate.pendingID = ""
}

// Confirming reports whether the delete confirmation is open.
func (m Model) Confirming() bool {
	return m.confirm != nil
}

// InputFocused reports whether keystrokes go to the draft input.
func (m Model) InputFocused() bool {
	return m.input.Focused()
}

// SetDraft replaces the draft input text.
func (m *Model) SetDraft(text string) {
	m.input.SetValue(text)
	m.input.CursorEnd()
}

// SetItems replaces the displayed todos, keeping the cursor in range.
func (m *Model) SetItems(todos []model.Todo) tea.Cmd {
	items := make([]list.Item, len(todos))
	for i, t := range todos {
		items[i] = TodoItem{Todo: t}
	}
	return m.list.SetItems(items)
}

// SelectedTodo returns the todo under the cursor.
func (m Model) SelectedTodo() (model.Todo, bool) {
	item, ok := m.list.SelectedItem().(TodoItem)
	if !ok {
		return model.Todo{}, false
	}
	return item.Todo, true
}

// SetLoading shows or hides the loading spinner.
func (m *Model) SetLoading(loading bool) tea.Cmd {
	wasIdle := !m.loading && !m.submitting
	m.loading = loading
	if loading && wasIdle {
		return m.spinner.Tick
	}
	return nil
}

// SetSubmitting shows or hides the submit spinner.
func (m *Model) SetSubmitting(submitting bool) tea.Cmd {
	wasIdle := !m.loading && !m.submitting
	m.submitting = submitting
	if submitting && wasIdle {
		return m.spinner.Tick
	}
	return nil
}

// View renders the todo list view.
func (m Model) View() string {
	var body string
	if len(m.list.Items()) == 0 {
		body = m.renderEmptyState()
	} else {
		body = m.list.View()
	}

	inputLine := m.input.View()
	switch {
	case m.submitting:
		inputLine = m.spinner.View() + " Adding..."
	case m.loading:
		inputLine += "  " + m.spinner.View()
	}

	parts := []string{
		lipgloss.NewStyle().Padding(0, 1).Render(inputLine),
		body,
	}
	if m.confirm != nil {
		parts = append(parts, theme.BorderStyle.Render(m.confirm.View()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderEmptyState shows guidance text when the list is empty.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(listHeight(m.height)).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.loading {
		return style.Render("Loading todos...")
	}
	return style.Render("No todos yet.\n\nPress n to add one.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, listHeight(height))
	m.input.Width = width - 4
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 30 {
		w = 30
	}
	if w > 70 {
		w = 70
	}
	return w
}

// listHeight leaves room for the draft input line.
func listHeight(height int) int {
	h := height - 2
	if h < 1 {
		h = 1
	}
	return h
}
