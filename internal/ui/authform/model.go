package authform

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/todo-client/internal/auth"
	"github.com/nhle/todo-client/internal/theme"
)

// Mode selects the login or the registration form.
type Mode int

const (
	ModeLogin Mode = iota
	ModeRegister
)

func (m Mode) String() string {
	if m == ModeRegister {
		return "Register"
	}
	return "Login"
}

// SubmitMsg is dispatched when the user completes the form.
type SubmitMsg struct {
	Mode     Mode
	Email    string
	Password string
}

// SwitchModeMsg is dispatched when the user asks for the other form.
type SwitchModeMsg struct {
	Mode Mode
}

// AbortMsg is dispatched when the user aborts the form.
type AbortMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	email    string
	password string
}

// Model is the Bubble Tea model for the login and register forms.
type Model struct {
	form    *huh.Form
	fb      *formBindings
	mode    Mode
	busy    bool
	spinner spinner.Model
	width   int
	height  int
}

// New creates a new auth form model.
func New(width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	return Model{
		fb:      &formBindings{},
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Start initializes the form in the given mode, prefilled with email.
// The password is always cleared.
func (m *Model) Start(mode Mode, email string) tea.Cmd {
	m.mode = mode
	m.busy = false
	m.fb.email = email
	m.fb.password = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Mode returns the current mode.
func (m Model) Mode() Mode {
	return m.mode
}

// Busy reports whether a submission is in flight.
func (m Model) Busy() bool {
	return m.busy
}

// SetBusy shows or hides the progress spinner.
func (m *Model) SetBusy(busy bool) tea.Cmd {
	m.busy = busy
	if busy {
		return m.spinner.Tick
	}
	return nil
}

// Email returns the email entered so far.
func (m Model) Email() string {
	return m.fb.email
}

// Update handles messages for the auth form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.busy {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	if m.form == nil {
		return m, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "ctrl+t" {
		next := ModeRegister
		if m.mode == ModeRegister {
			next = ModeLogin
		}
		return m, func() tea.Msg { return SwitchModeMsg{Mode: next} }
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		cmd = m.handleSubmit()
		return m, cmd
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return AbortMsg{} }
	}

	return m, cmd
}

// View renders the auth form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	body := m.form.View()
	if m.busy {
		body = m.spinner.View() + " " + busyText(m.mode)
	}

	other := ModeRegister
	if m.mode == ModeRegister {
		other = ModeLogin
	}
	hint := theme.HelpStyle.Render(fmt.Sprintf("ctrl+t %s instead", strings.ToLower(other.String())))

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render(m.mode.String()),
		body,
		"",
		hint,
	)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func busyText(mode Mode) string {
	if mode == ModeRegister {
		return "Creating account..."
	}
	return "Signing in..."
}

func (m *Model) buildForm() *huh.Form {
	passwordCheck := validateRequired("Password")
	if m.mode == ModeRegister {
		passwordCheck = validatePassword
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&m.fb.email).
				Validate(validateRequired("Email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(passwordCheck),
		),
	).WithWidth(m.formWidth()).WithShowHelp(true)
}

func (m Model) handleSubmit() tea.Cmd {
	submit := SubmitMsg{
		Mode:     m.mode,
		Email:    m.fb.email,
		Password: m.fb.password,
	}
	return func() tea.Msg { return submit }
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validatePassword(s string) error {
	if len([]rune(s)) < auth.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", auth.MinPasswordLength)
	}
	return nil
}
