package users

import (
	"context"
	"math/rand/v2"

	"github.com/adamwoolhether/apiclient/client"
)

// Mode selects how a [MockRepository] answers.
type Mode int

const (
	// Success answers with canned data.
	Success Mode = iota
	// Error answers with a failure envelope and no data.
	Error
)

// MockRepository is an in-memory [Repository]. It never returns a Go
// error; failures are reported in the envelope as the API would.
type MockRepository struct {
	Mode  Mode
	Users []User
}

// NewMockRepository returns a repository seeded with two users.
func NewMockRepository(mode Mode) *MockRepository {
	return &MockRepository{
		Mode: mode,
		Users: []User{
			{ID: ptr(1), Name: ptr("Ada"), Email: ptr("ada@example.com")},
			{ID: ptr(2), Name: ptr("Grace"), Email: ptr("grace@example.com")},
		},
	}
}

// FetchUsers returns the seeded users, filtered by name when query is set.
func (m *MockRepository) FetchUsers(_ context.Context, query string) (client.Envelope[[]User], error) {
	if m.Mode == Error {
		return client.Envelope[[]User]{Status: false, Message: ptr("Failed to fetch users")}, nil
	}

	out := make([]User, 0, len(m.Users))
	for _, u := range m.Users {
		if query == "" || (u.Name != nil && *u.Name == query) {
			out = append(out, u)
		}
	}

	return client.Envelope[[]User]{Status: true, Message: ptr("Fetched successfully"), Data: &out}, nil
}

// CreateUser echoes req back with a random ID in [100,999].
func (m *MockRepository) CreateUser(_ context.Context, req CreateUserRequest) (client.Envelope[User], error) {
	if m.Mode == Error {
		return client.Envelope[User]{Status: false, Message: ptr("Failed to create user")}, nil
	}

	u := User{ID: ptr(100 + rand.IntN(900)), Name: req.Name, Email: req.Email}

	return client.Envelope[User]{Status: true, Message: ptr("User created successfully"), Data: &u}, nil
}

func ptr[T any](v T) *T { return &v }
