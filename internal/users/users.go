// Package users is a small repository over the /users resource of a
// JSON API, with a canned in-memory variant for offline use.
package users

import (
	"context"
	"fmt"

	"github.com/adamwoolhether/apiclient/client"
)

// User is a remote user record. Every field is optional on the wire.
type User struct {
	ID    *int    `json:"id,omitempty"`
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// CreateUserRequest is the body of a create call.
type CreateUserRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// Repository fetches and creates users.
type Repository interface {
	FetchUsers(ctx context.Context, query string) (client.Envelope[[]User], error)
	CreateUser(ctx context.Context, req CreateUserRequest) (client.Envelope[User], error)
}

var (
	_ Repository = (*APIRepository)(nil)
	_ Repository = (*MockRepository)(nil)
)

// APIRepository talks to the API through a [client.Client] built with
// a base URL.
type APIRepository struct {
	c *client.Client
}

// NewAPIRepository returns a repository backed by c.
func NewAPIRepository(c *client.Client) *APIRepository {
	return &APIRepository{c: c}
}

// FetchUsers lists users. A non-empty query filters by exact name.
func (r *APIRepository) FetchUsers(ctx context.Context, query string) (client.Envelope[[]User], error) {
	ep := client.Endpoint{Path: "/users", Method: client.MethodGet}
	if query != "" {
		ep.Query = []client.QueryParam{{Name: "name", Value: query}}
	}

	env, err := client.Request[[]User](ctx, r.c, ep)
	if err != nil {
		return env, fmt.Errorf("fetching users: %w", err)
	}

	return env, nil
}

// CreateUser POSTs req and returns the created user.
func (r *APIRepository) CreateUser(ctx context.Context, req CreateUserRequest) (client.Envelope[User], error) {
	env, err := client.Request[User](ctx, r.c, client.Endpoint{
		Path:   "/users",
		Method: client.MethodPost,
		Body:   req,
	})
	if err != nil {
		return env, fmt.Errorf("creating user: %w", err)
	}

	return env, nil
}
