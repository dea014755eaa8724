package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/todo-client/internal/model"
	"github.com/nhle/todo-client/internal/store"
	appsync "github.com/nhle/todo-client/internal/sync"
	"github.com/nhle/todo-client/internal/theme"
	"github.com/nhle/todo-client/internal/todos"
	"github.com/nhle/todo-client/internal/ui"
	"github.com/nhle/todo-client/internal/ui/authform"
	"github.com/nhle/todo-client/internal/ui/command"
	helpview "github.com/nhle/todo-client/internal/ui/help"
	"github.com/nhle/todo-client/internal/ui/todolist"
)

// toastDuration is how long a toast stays in the status bar.
const toastDuration = 4 * time.Second

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewRegister
	ViewTodos
	ViewHelp
	ViewCommand
)

// AuthService is the authentication surface the UI drives.
type AuthService interface {
	Login(ctx context.Context, email, password string) model.Outcome
	Register(ctx context.Context, email, password string) model.Outcome
	Logout() error
	LoggedIn() bool
}

// toast is a transient status bar message.
type toast struct {
	text  string
	level theme.ToastLevel
	id    int
}

// toastExpiredMsg clears the toast with the given id.
type toastExpiredMsg struct{ id int }

// Model is the root Bubble Tea model that manages view routing, layout,
// and access to the todo controller and auth service.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *KeyMap
	auth         AuthService
	todos        *todos.Controller
	reconciler   *appsync.Reconciler
	prefs        store.Store
	logger       *slog.Logger
	authForm     authform.Model
	todoList     todolist.Model
	helpView     helpview.Model
	commandView  command.Model
	toast        toast
	initCmd      tea.Cmd
	ready        bool
}

// lastEmailKey is the preference key holding the last signed-in email.
const lastEmailKey = "last_email"

// Deps are the collaborators of the root model. Reconciler and Prefs may
// be nil.
type Deps struct {
	Auth       AuthService
	Todos      *todos.Controller
	Reconciler *appsync.Reconciler
	Prefs      store.Store
	Logger     *slog.Logger
}

// New creates the root model. The start view depends on whether a usable
// session token is stored.
func New(deps Deps) Model {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	keys := DefaultKeyMap()

	m := Model{
		currentView: ViewLogin,
		keys:        keys,
		auth:        deps.Auth,
		todos:       deps.Todos,
		reconciler:  deps.Reconciler,
		prefs:       deps.Prefs,
		logger:      logger,
		authForm:    authform.New(80, 24),
		todoList:    todolist.New(keys, 80, 24),
		helpView:    helpview.New(keys, deps.Todos.Policy().ConfirmDelete, 80, 24),
		commandView: command.New(80, 24),
	}
	if deps.Auth.LoggedIn() {
		m.currentView = ViewTodos
		m.initCmd = m.todoList.SetLoading(true)
	} else {
		m.initCmd = m.authForm.Start(authform.ModeLogin, m.lastEmail())
	}
	return m
}

// lastEmail returns the remembered email, or "" when none is stored.
func (m Model) lastEmail() string {
	if m.prefs == nil {
		return ""
	}
	email, err := m.prefs.GetValue(context.Background(), lastEmailKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.logger.Warn("reading last email", "error", err)
		}
		return ""
	}
	return email
}

// rememberEmail stores email for the next login form.
func (m Model) rememberEmail(email string) {
	if m.prefs == nil || email == "" {
		return
	}
	if err := m.prefs.SetValue(context.Background(), lastEmailKey, email); err != nil {
		m.logger.Warn("saving last email", "error", err)
	}
}

// CurrentView returns the active view.
func (m Model) CurrentView() ViewState {
	return m.currentView
}

// Init returns the initial commands: the login form, or the first list
// load and background refreshing.
func (m Model) Init() tea.Cmd {
	if m.currentView == ViewTodos {
		return tea.Batch(m.initCmd, m.refreshTodos(), m.startReconciler())
	}
	return m.initCmd
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.authForm.SetSize(contentWidth, contentHeight)
		m.todoList.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case toastExpiredMsg:
		if msg.id == m.toast.id {
			m.toast.text = ""
		}
		return m, nil

	case authform.SubmitMsg:
		if m.authForm.Busy() {
			return m, nil
		}
		cmd := tea.Batch(m.authForm.SetBusy(true), m.submitAuth(msg))
		return m, cmd

	case authform.SwitchModeMsg:
		cmd := m.showAuth(msg.Mode, m.authForm.Email())
		return m, cmd

	case authform.AbortMsg:
		m.stopReconciler()
		return m, tea.Quit

	case loggedInMsg:
		m.authForm.SetBusy(false)
		if !msg.outcome.OK {
			cmd := tea.Batch(
				m.showOutcome(msg.outcome),
				m.authForm.Start(authform.ModeLogin, msg.email),
			)
			return m, cmd
		}
		m.rememberEmail(strings.ToLower(strings.TrimSpace(msg.email)))
		m.todos.Reset()
		m.todoList.SetDraft("")
		m.currentView = ViewTodos
		if m.reconciler != nil {
			m.reconciler.SetPaused(false)
		}
		cmd := tea.Batch(
			m.showOutcome(msg.outcome),
			m.refreshTodos(),
			m.startReconciler(),
		)
		return m, cmd

	case registeredMsg:
		m.authForm.SetBusy(false)
		if !msg.outcome.OK {
			cmd := tea.Batch(
				m.showOutcome(msg.outcome),
				m.authForm.Start(authform.ModeRegister, msg.email),
			)
			return m, cmd
		}
		cmd := tea.Batch(
			m.showOutcome(msg.outcome),
			m.showAuth(authform.ModeLogin, msg.email),
		)
		return m, cmd

	case todosRefreshedMsg:
		cmd := m.syncList()
		m.todoList.SetLoading(false)
		if !msg.outcome.OK {
			cmd = tea.Batch(cmd, m.handleFailure(msg.outcome))
		}
		return m, cmd

	case todolist.SubmitDraftMsg:
		m.todos.SetDraft(msg.Text)
		cmd := tea.Batch(m.todoList.SetSubmitting(true), m.submitDraft())
		return m, cmd

	case todoSubmittedMsg:
		m.todoList.SetSubmitting(false)
		m.todoList.SetDraft(m.todos.Draft())
		cmd := tea.Batch(m.syncList(), m.showOutcome(msg.outcome))
		return m, cmd

	case todoToggledMsg:
		cmd := m.syncList()
		if !msg.outcome.OK {
			if !m.todos.Policy().RollbackFailedToggle && m.reconciler != nil {
				m.reconciler.RefreshNow()
			}
			cmd = tea.Batch(cmd, m.handleFailure(msg.outcome))
			return m, cmd
		}
		cmd = tea.Batch(cmd, m.showToast(msg.outcome.Message, theme.ToastInfo))
		return m, cmd

	case todolist.DeleteConfirmMsg:
		m.todoList.ClearPending()
		if !msg.Confirmed {
			m.todos.CancelDelete()
			cmd := m.syncList()
			return m, cmd
		}
		cmd := m.confirmDelete()
		return m, cmd

	case todoDeletedMsg:
		cmd := tea.Batch(m.syncList(), m.showOutcome(msg.outcome))
		return m, cmd

	case appsync.RefreshResultMsg:
		cmd := m.syncList()
		if !msg.Outcome.OK {
			m.logger.Debug("background refresh failed", "message", msg.Outcome.Message)
		}
		cmd = tea.Batch(cmd, m.reconciler.WaitForNextResult())
		return m, cmd

	case command.CommandMsg:
		m.currentView = m.previousView
		cmd := m.executeCommand(string(msg))
		return m, cmd

	case tea.KeyMsg:
		// Global keys that work regardless of current view
		if msg.String() == "ctrl+c" {
			m.stopReconciler()
			return m, tea.Quit
		}

		switch m.currentView {
		case ViewHelp:
			if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Back) {
				m.currentView = m.previousView
				return m, nil
			}

		case ViewCommand:
			if key.Matches(msg, m.keys.Back) {
				m.currentView = m.previousView
				return m, nil
			}

		case ViewTodos:
			if !m.todoList.InputFocused() && !m.todoList.Confirming() {
				if handled, next, cmd := m.handleListKeys(msg); handled {
					return next, cmd
				}
			}
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleListKeys processes list shortcuts while the draft input and the
// confirmation prompt are inactive.
func (m Model) handleListKeys(msg tea.KeyMsg) (bool, Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.stopReconciler()
		return true, m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return true, m, nil

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		cmd := m.commandView.Focus()
		return true, m, cmd

	case key.Matches(msg, m.keys.Refresh):
		cmd := m.refreshTodos()
		return true, m, cmd

	case key.Matches(msg, m.keys.Logout):
		cmd := m.logout()
		return true, m, cmd

	case key.Matches(msg, m.keys.Toggle):
		todo, ok := m.todoList.SelectedTodo()
		if !ok {
			return true, m, nil
		}
		cmd := m.toggleTodo(todo)
		return true, m, cmd

	case key.Matches(msg, m.keys.Delete):
		todo, ok := m.todoList.SelectedTodo()
		if !ok {
			return true, m, nil
		}
		if !m.todos.Policy().ConfirmDelete {
			cmd := m.deleteTodo(todo.ID)
			return true, m, cmd
		}
		if !m.todos.RequestDelete(todo.ID) {
			cmd := m.showOutcome(model.Failed(model.FailureValidation, todos.MsgUnknownTodo))
			return true, m, cmd
		}
		cmd := m.todoList.StartConfirm(todo)
		return true, m, cmd
	}
	return false, m, nil
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin, ViewRegister:
		m.authForm, cmd = m.authForm.Update(msg)
	case ViewTodos:
		m.todoList, cmd = m.todoList.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Todo", m.headerStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.toast.text, m.toast.level, m.keyHints())

	return m.layout.Render(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin, ViewRegister:
		return m.authForm.View()
	case ViewTodos:
		return m.todoList.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// headerStatus summarizes the list and the background refresh state.
func (m Model) headerStatus() string {
	if m.currentView == ViewLogin || m.currentView == ViewRegister {
		return "signed out"
	}
	if m.todos.Loading() {
		return "loading..."
	}

	items := m.todos.Snapshot()
	open := 0
	for _, t := range items {
		if !t.Completed {
			open++
		}
	}
	status := fmt.Sprintf("%d open · %d total", open, len(items))

	if m.reconciler != nil && m.reconciler.Running() && m.reconciler.Status().State == appsync.RefreshError {
		status += " · offline"
	}
	return status
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewLogin, ViewRegister:
		if m.authForm.Mode() == authform.ModeRegister {
			return "tab next field | enter submit | ctrl+t log in | ctrl+c quit"
		}
		return "tab next field | enter submit | ctrl+t register | ctrl+c quit"
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	default:
		if m.todoList.Confirming() {
			return "←/→ choose | enter confirm | esc cancel"
		}
		if m.todoList.InputFocused() {
			return "enter add | esc done"
		}
		return "n new | x toggle | d delete | r refresh | L logout | ? help | q quit"
	}
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	switch cmd {
	case "refresh":
		if m.currentView != ViewTodos {
			return nil
		}
		return m.refreshTodos()
	case "logout":
		return m.logout()
	case "help":
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil
	case "quit":
		m.stopReconciler()
		return tea.Quit
	default:
		return m.showOutcome(model.Failed(model.FailureValidation, "Unknown command: "+cmd))
	}
}

// showAuth switches to the login or register form.
func (m *Model) showAuth(mode authform.Mode, email string) tea.Cmd {
	m.currentView = ViewLogin
	if mode == authform.ModeRegister {
		m.currentView = ViewRegister
	}
	return m.authForm.Start(mode, email)
}

// logout clears the session and the local list and shows the login form.
func (m *Model) logout() tea.Cmd {
	if err := m.auth.Logout(); err != nil {
		m.logger.Error("logging out", "error", err)
		return m.showOutcome(model.Failed(model.FailureStorage, "Could not log out"))
	}
	if m.reconciler != nil {
		m.reconciler.SetPaused(true)
	}
	m.todos.Reset()
	m.todoList.SetItems(nil)
	m.todoList.SetDraft("")
	return tea.Batch(
		m.showOutcome(model.Succeeded("Logged out")),
		m.showAuth(authform.ModeLogin, m.lastEmail()),
	)
}

// handleFailure shows a failure and routes to login when the session is
// no longer usable.
func (m *Model) handleFailure(out model.Outcome) tea.Cmd {
	if out.Kind == model.FailureServer && !m.auth.LoggedIn() {
		if m.reconciler != nil {
			m.reconciler.SetPaused(true)
		}
		m.todos.Reset()
		m.todoList.SetItems(nil)
		return tea.Batch(
			m.showOutcome(model.Failed(model.FailureServer, "Session expired, please log in again")),
			m.showAuth(authform.ModeLogin, m.lastEmail()),
		)
	}
	return m.showOutcome(out)
}

// showOutcome displays out as a toast and schedules its removal. Outcomes
// without a message only clear the previous toast.
func (m *Model) showOutcome(out model.Outcome) tea.Cmd {
	if strings.TrimSpace(out.Message) == "" {
		return nil
	}

	level := theme.ToastSuccess
	if !out.OK {
		level = theme.ToastError
		m.logger.Info("operation failed", "kind", out.Kind.String(), "message", out.Message)
	}
	return m.showToast(out.Message, level)
}

// showToast replaces the toast and schedules its removal.
func (m *Model) showToast(text string, level theme.ToastLevel) tea.Cmd {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	m.toast = toast{text: text, level: level, id: m.toast.id + 1}
	id := m.toast.id
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

// syncList copies the controller snapshot into the list view.
func (m *Model) syncList() tea.Cmd {
	return m.todoList.SetItems(m.todos.Snapshot())
}

func (m *Model) startReconciler() tea.Cmd {
	if m.reconciler == nil {
		return nil
	}
	return m.reconciler.Start()
}

func (m *Model) stopReconciler() {
	if m.reconciler != nil {
		m.reconciler.Stop()
	}
}
