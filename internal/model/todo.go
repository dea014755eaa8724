package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// MaxTodoNameLength is the longest todo name (in characters) the client
// will submit.
const MaxTodoNameLength = 1000

// Todo is a single item of the remote todo list.
type Todo struct {
	// ID is assigned by the server and stable for the item's lifetime.
	ID string `json:"id"`

	// Name is the user-supplied text, never empty after creation.
	Name string `json:"todo_name"`

	// Completed marks the item as done.
	Completed bool `json:"completed"`
}

// todoWire mirrors the server payload. Some deployments emit the
// identifier as "_id", others as "id", and either may be numeric.
type todoWire struct {
	ID        json.RawMessage `json:"id"`
	MongoID   json.RawMessage `json:"_id"`
	Name      string          `json:"todo_name"`
	Completed bool            `json:"completed"`
}

// UnmarshalJSON accepts both "id" and "_id" identifiers.
func (t *Todo) UnmarshalJSON(data []byte) error {
	var w todoWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	raw := w.ID
	if len(raw) == 0 || string(raw) == "null" {
		raw = w.MongoID
	}

	id, err := decodeID(raw)
	if err != nil {
		return err
	}

	t.ID = id
	t.Name = w.Name
	t.Completed = w.Completed
	return nil
}

// decodeID turns a string or numeric JSON identifier into a string.
func decodeID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return strconv.FormatInt(i, 10), nil
		}
		return n.String(), nil
	}

	return "", fmt.Errorf("unsupported todo id %s", string(raw))
}

// NewTodo is the body of a create request.
type NewTodo struct {
	Name      string `json:"todo_name"`
	Completed bool   `json:"completed"`
}

// TodoPatch is a partial update. Only non-nil fields are sent.
type TodoPatch struct {
	Name      *string `json:"todo_name,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// CompletedPatch builds a patch that only sets the completed flag.
func CompletedPatch(completed bool) TodoPatch {
	return TodoPatch{Completed: &completed}
}

// CloneTodos returns a copy of todos that shares no backing array.
func CloneTodos(todos []Todo) []Todo {
	if todos == nil {
		return nil
	}
	out := make([]Todo, len(todos))
	copy(out, todos)
	return out
}
