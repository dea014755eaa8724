package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/todo-client/internal/model"
)

// todosRefreshedMsg is sent after the list was fetched.
type todosRefreshedMsg struct{ outcome model.Outcome }

// todoSubmittedMsg is sent after the draft was submitted.
type todoSubmittedMsg struct{ outcome model.Outcome }

// todoToggledMsg is sent after a toggle resolved on the server.
type todoToggledMsg struct{ outcome model.Outcome }

// todoDeletedMsg is sent after a delete resolved.
type todoDeletedMsg struct{ outcome model.Outcome }

// refreshTodos reloads the list from the server.
func (m *Model) refreshTodos() tea.Cmd {
	c := m.todos
	return tea.Batch(
		m.todoList.SetLoading(true),
		func() tea.Msg {
			return todosRefreshedMsg{outcome: c.Refresh(context.Background())}
		},
	)
}

// submitDraft creates a todo from the controller's draft.
func (m *Model) submitDraft() tea.Cmd {
	c := m.todos
	return func() tea.Msg {
		return todoSubmittedMsg{outcome: c.SubmitDraft(context.Background())}
	}
}

// toggleTodo flips the completed flag. The list changes immediately; the
// returned command waits for the server.
func (m *Model) toggleTodo(todo model.Todo) tea.Cmd {
	ch := m.todos.Toggle(context.Background(), todo.ID, !todo.Completed)
	listCmd := m.syncList()
	return tea.Batch(listCmd, func() tea.Msg {
		return todoToggledMsg{outcome: <-ch}
	})
}

// confirmDelete deletes the staged todo.
func (m *Model) confirmDelete() tea.Cmd {
	c := m.todos
	return func() tea.Msg {
		return todoDeletedMsg{outcome: c.ConfirmDelete(context.Background())}
	}
}

// deleteTodo deletes id without confirmation.
func (m *Model) deleteTodo(id string) tea.Cmd {
	c := m.todos
	return func() tea.Msg {
		return todoDeletedMsg{outcome: c.Delete(context.Background(), id)}
	}
}
