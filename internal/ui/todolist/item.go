package todolist

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/todo-client/internal/model"
	"github.com/nhle/todo-client/internal/theme"
)

// TodoItem wraps a model.Todo so it can be used in a bubbles/list.
type TodoItem struct {
	Todo model.Todo
}

// FilterValue returns the string used for fuzzy filtering.
func (i TodoItem) FilterValue() string { return i.Todo.Name }

// ItemDelegate implements list.ItemDelegate for rendering todos.
type ItemDelegate struct {
	// pendingID is the id staged for deletion, rendered with a marker.
	pendingID string
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single todo line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TodoItem)
	if !ok {
		return
	}
	fmt.Fprint(w, renderLine(ti.Todo, index == m.Index(), ti.Todo.ID == d.pendingID))
}

// renderLine draws a checkbox followed by the name.
func renderLine(todo model.Todo, selected, pending bool) string {
	box := "[ ]"
	if todo.Completed {
		box = "[x]"
	}
	box = theme.CheckboxStyle(todo.Completed).Render(box)

	name := todo.Name
	if todo.Completed {
		name = theme.CompletedStyle.Render(name)
	}

	line := box + " " + name
	if pending {
		line += " " + theme.ToastStyle(theme.ToastError).Render("delete?")
	}

	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}
