package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/nhle/todo-client/internal/model"
)

const (
	todosEndpoint   = "todos"
	addTodoEndpoint = "addTodo"
)

// errNotAList is reported when a successful list response is not a JSON
// array. An empty body and null are rejected too, so a bad response never
// clears the local list.
var errNotAList = errors.New("list response is not a JSON array")

// FetchTodos lists the user's todos in server order.
func (c *Client) FetchTodos(ctx context.Context) Result[[]model.Todo] {
	raw := c.Get(ctx, todosEndpoint)
	if raw.Status && !bytes.HasPrefix(bytes.TrimSpace(raw.Data), []byte("[")) {
		c.logger.Warn("unexpected list response", "endpoint", todosEndpoint, "status", raw.StatusCode)
		return failure[[]model.Todo](raw.StatusCode, "", errNotAList)
	}

	res := decode[[]model.Todo](raw)
	if res.Status && res.Data == nil {
		res.Data = []model.Todo{}
	}
	return res
}

// CreateTodo adds a todo. The server replies with a confirmation message.
func (c *Client) CreateTodo(ctx context.Context, todo model.NewTodo) Result[MessageResponse] {
	return decode[MessageResponse](c.Post(ctx, addTodoEndpoint, todo))
}

// UpdateTodo applies a partial update to the todo with the given id.
func (c *Client) UpdateTodo(ctx context.Context, id string, patch model.TodoPatch) Result[MessageResponse] {
	endpoint := todoEndpoint(id)
	if c.updateMethod == http.MethodPut {
		return decode[MessageResponse](c.Put(ctx, endpoint, patch))
	}
	return decode[MessageResponse](c.Post(ctx, endpoint, patch))
}

// DeleteTodo removes the todo with the given id. Use Confirmed to check
// both the transport status and the server's success flag.
func (c *Client) DeleteTodo(ctx context.Context, id string) Result[DeleteOutcome] {
	return decode[DeleteOutcome](c.Delete(ctx, todoEndpoint(id)))
}

func todoEndpoint(id string) string {
	return todosEndpoint + "/" + url.PathEscape(id)
}
