// Package todos holds the in-memory state of the todo list screen and
// sequences every change to it through the remote API.
package todos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/nhle/todo-client/internal/api"
	"github.com/nhle/todo-client/internal/model"
)

// User-facing messages.
const (
	MsgEmptyTodo       = "Please enter a todo"
	MsgAddFailed       = "Failed to add todo"
	MsgAdded           = "Todo added"
	MsgUpdated         = "Todo status has been updated"
	MsgDeleted         = "Todo deleted"
	MsgDeleteFailed    = "Failed to delete todo"
	MsgNothingToDelete = "No todo selected for deletion"
	MsgUnknownTodo     = "Todo not found"
)

// ErrSubmitInFlight is reported when a todo is submitted while a previous
// submission has not resolved yet.
var ErrSubmitInFlight = errors.New("a todo is already being added")

// API is the subset of the request client the controller drives.
type API interface {
	FetchTodos(ctx context.Context) api.Result[[]model.Todo]
	CreateTodo(ctx context.Context, todo model.NewTodo) api.Result[api.MessageResponse]
	UpdateTodo(ctx context.Context, id string, patch model.TodoPatch) api.Result[api.MessageResponse]
	DeleteTodo(ctx context.Context, id string) api.Result[api.DeleteOutcome]
}

// Policy holds the configurable behavior of the controller.
type Policy struct {
	// ConfirmDelete requires RequestDelete followed by ConfirmDelete.
	ConfirmDelete bool

	// RollbackFailedToggle restores an item whose update failed.
	RollbackFailedToggle bool
}

// DefaultPolicy matches the configuration defaults.
func DefaultPolicy() Policy {
	return Policy{ConfirmDelete: true, RollbackFailedToggle: true}
}

// Controller owns the todo list state. All methods are safe for concurrent
// use; network calls are made without the lock held.
type Controller struct {
	api    API
	policy Policy

	mu            sync.Mutex
	items         []model.Todo
	draft         string
	refreshing    int
	submitting    bool
	pendingDelete string
}

// NewController creates a Controller with an empty list.
func NewController(client API, policy Policy) *Controller {
	return &Controller{
		api:    client,
		policy: policy,
		items:  []model.Todo{},
	}
}

// Policy returns the controller's policy.
func (c *Controller) Policy() Policy {
	return c.policy
}

// Refresh fetches the list and replaces the local items on success. On
// failure the items are left untouched.
func (c *Controller) Refresh(ctx context.Context) model.Outcome {
	c.mu.Lock()
	c.refreshing++
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.refreshing--
		c.mu.Unlock()
	}()

	res := c.api.FetchTodos(ctx)
	if !res.Status {
		return failedResult(res.StatusCode, res.Message)
	}

	items := model.CloneTodos(res.Data)
	if items == nil {
		items = []model.Todo{}
	}

	c.mu.Lock()
	c.items = items
	c.mu.Unlock()

	return model.Succeeded("")
}

// SubmitNew creates a todo from text. The local list only changes through
// the refresh that follows a successful create.
func (c *Controller) SubmitNew(ctx context.Context, text string) model.Outcome {
	name := strings.TrimSpace(text)
	if name == "" {
		return model.Failed(model.FailureValidation, MsgEmptyTodo)
	}
	if utf8.RuneCountInString(name) > model.MaxTodoNameLength {
		return model.Failed(model.FailureValidation,
			fmt.Sprintf("Todo must be at most %d characters", model.MaxTodoNameLength))
	}

	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return model.Failed(model.FailureValidation, ErrSubmitInFlight.Error())
	}
	c.submitting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	res := c.api.CreateTodo(ctx, model.NewTodo{Name: name})
	if !res.Status {
		return failedResult(res.StatusCode, serverMessage(res.Message, MsgAddFailed))
	}

	c.Refresh(ctx)

	c.mu.Lock()
	c.draft = ""
	c.mu.Unlock()

	return model.Succeeded(orDefault(res.Data.Message, MsgAdded))
}

// SubmitDraft submits the current draft text.
func (c *Controller) SubmitDraft(ctx context.Context) model.Outcome {
	return c.SubmitNew(ctx, c.Draft())
}

// Toggle sets the completed flag of the todo with the given id. The local
// item changes before Toggle returns; the update runs in the background
// and its outcome is delivered on the returned channel, which is closed
// afterwards.
func (c *Controller) Toggle(ctx context.Context, id string, completed bool) <-chan model.Outcome {
	out := make(chan model.Outcome, 1)

	c.mu.Lock()
	idx := c.indexOf(id)
	if idx < 0 {
		c.mu.Unlock()
		out <- model.Failed(model.FailureValidation, MsgUnknownTodo)
		close(out)
		return out
	}
	previous := c.items[idx].Completed
	c.items[idx].Completed = completed
	c.mu.Unlock()

	go func() {
		defer close(out)

		res := c.api.UpdateTodo(ctx, id, model.CompletedPatch(completed))
		if res.Status {
			out <- model.Succeeded(orDefault(res.Data.Message, MsgUpdated))
			return
		}

		if c.policy.RollbackFailedToggle {
			c.rollback(id, completed, previous)
		}
		out <- failedResult(res.StatusCode, res.Message)
	}()

	return out
}

// rollback restores previous unless the item changed again meanwhile.
func (c *Controller) rollback(id string, optimistic, previous bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(id)
	if idx < 0 || c.items[idx].Completed != optimistic {
		return
	}
	c.items[idx].Completed = previous
}

// RequestDelete stages id for deletion. It reports false when id is not in
// the list. Nothing is sent until ConfirmDelete.
func (c *Controller) RequestDelete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.indexOf(id) < 0 {
		return false
	}
	c.pendingDelete = id
	return true
}

// CancelDelete drops the staged deletion.
func (c *Controller) CancelDelete() {
	c.mu.Lock()
	c.pendingDelete = ""
	c.mu.Unlock()
}

// ConfirmDelete deletes the staged todo. Without a staged id nothing is
// sent.
func (c *Controller) ConfirmDelete(ctx context.Context) model.Outcome {
	c.mu.Lock()
	id := c.pendingDelete
	c.pendingDelete = ""
	c.mu.Unlock()

	if id == "" {
		return model.Failed(model.FailureValidation, MsgNothingToDelete)
	}
	return c.remove(ctx, id)
}

// Delete removes id immediately. It is used when confirmation is disabled.
func (c *Controller) Delete(ctx context.Context, id string) model.Outcome {
	if id == "" {
		return model.Failed(model.FailureValidation, MsgNothingToDelete)
	}
	return c.remove(ctx, id)
}

// remove deletes id and refreshes only when the server confirmed it.
func (c *Controller) remove(ctx context.Context, id string) model.Outcome {
	res := c.api.DeleteTodo(ctx, id)
	if !res.Status {
		return failedResult(res.StatusCode, res.Message)
	}
	if !api.Confirmed(res) {
		return model.Failed(model.FailureServer, orDefault(res.Data.Message, MsgDeleteFailed))
	}

	c.Refresh(ctx)
	return model.Succeeded(orDefault(res.Data.Message, MsgDeleted))
}

// Reset drops all local state, as after a logout.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = []model.Todo{}
	c.draft = ""
	c.pendingDelete = ""
}

// SetDraft replaces the draft text.
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	c.draft = text
	c.mu.Unlock()
}

// Draft returns the draft text.
func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Snapshot returns a copy of the items.
func (c *Controller) Snapshot() []model.Todo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.CloneTodos(c.items)
}

// Find returns the item with the given id.
func (c *Controller) Find(id string) (model.Todo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return model.Todo{}, false
	}
	return c.items[idx], true
}

// Loading reports whether a refresh is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshing > 0
}

// Submitting reports whether a create is in flight.
func (c *Controller) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// PendingDelete returns the staged id, or "" when none is staged.
func (c *Controller) PendingDelete() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingDelete
}

// indexOf must be called with mu held.
func (c *Controller) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}

func failedResult(statusCode int, msg string) model.Outcome {
	if msg == "" {
		msg = api.FallbackMessage
	}
	if statusCode == 0 {
		return model.Failed(model.FailureTransport, msg)
	}
	return model.Failed(model.FailureServer, msg)
}

// serverMessage replaces the client's generic fallback with an
// operation-specific one.
func serverMessage(msg, fallback string) string {
	if msg == "" || msg == api.FallbackMessage {
		return fallback
	}
	return msg
}

func orDefault(s, fallback string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return fallback
}
