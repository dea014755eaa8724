package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/todo-client/internal/model"
	"github.com/nhle/todo-client/internal/ui/authform"
)

// loggedInMsg is sent after a login attempt.
type loggedInMsg struct {
	email   string
	outcome model.Outcome
}

// registeredMsg is sent after a registration attempt.
type registeredMsg struct {
	email   string
	outcome model.Outcome
}

// submitAuth runs the login or registration for a completed form.
func (m *Model) submitAuth(msg authform.SubmitMsg) tea.Cmd {
	svc := m.auth
	return func() tea.Msg {
		ctx := context.Background()
		if msg.Mode == authform.ModeRegister {
			return registeredMsg{email: msg.Email, outcome: svc.Register(ctx, msg.Email, msg.Password)}
		}
		return loggedInMsg{email: msg.Email, outcome: svc.Login(ctx, msg.Email, msg.Password)}
	}
}
