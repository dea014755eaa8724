package api

import (
	"context"

	"github.com/nhle/todo-client/internal/model"
)

const (
	loginEndpoint    = "login"
	registerEndpoint = "register"
)

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, creds model.Credentials) Result[LoginResponse] {
	return decode[LoginResponse](c.Post(ctx, loginEndpoint, creds))
}

// Register creates an account. Success requires both the transport status
// and the body's Status flag.
func (c *Client) Register(ctx context.Context, creds model.Credentials) Result[RegisterResponse] {
	return decode[RegisterResponse](c.Post(ctx, registerEndpoint, creds))
}
