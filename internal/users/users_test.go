package users_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamwoolhether/apiclient/client"
	"github.com/adamwoolhether/apiclient/client/clienttest"
	"github.com/adamwoolhether/apiclient/internal/users"
)

func ptr[T any](v T) *T { return &v }

func newAPIRepo(t *testing.T, h http.HandlerFunc) *users.APIRepository {
	t.Helper()

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	c, err := client.Build(client.WithBaseURL(ts.URL))
	require.NoError(t, err)

	return users.NewAPIRepository(c)
}

func TestAPIRepository_FetchUsers(t *testing.T) {
	var gotQuery string
	repo := newAPIRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/users", r.URL.Path)
		gotQuery = r.URL.RawQuery

		// Bare array, as jsonplaceholder answers.
		_ = clienttest.RespondJSON(w, http.StatusOK, []users.User{
			{ID: ptr(1), Name: ptr("Leanne Graham"), Email: ptr("Sincere@april.biz")},
		})
	})

	env, err := repo.FetchUsers(t.Context(), "Leanne Graham")
	require.NoError(t, err)

	assert.Equal(t, "name=Leanne+Graham", gotQuery)
	assert.True(t, env.Status)
	require.NotNil(t, env.Data)
	require.Len(t, *env.Data, 1)
	assert.Equal(t, "Leanne Graham", *(*env.Data)[0].Name)

	_, err = repo.FetchUsers(t.Context(), "")
	require.NoError(t, err)
	assert.Empty(t, gotQuery)
}

func TestAPIRepository_CreateUser(t *testing.T) {
	repo := newAPIRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		if !assert.NoError(t, err) {
			return
		}

		var in users.CreateUserRequest
		if !assert.NoError(t, json.Unmarshal(body, &in)) {
			return
		}

		_ = clienttest.RespondEnvelope(w, http.StatusCreated, true, "created", users.User{ID: ptr(11), Name: in.Name, Email: in.Email})
	})

	env, err := repo.CreateUser(t.Context(), users.CreateUserRequest{Name: ptr("Ada"), Email: ptr("ada@example.com")})
	require.NoError(t, err)

	require.NotNil(t, env.Data)
	assert.Equal(t, 11, *env.Data.ID)
	assert.Equal(t, "Ada", *env.Data.Name)
	assert.Equal(t, "created", *env.Message)
}

func TestAPIRepository_Errors(t *testing.T) {
	repo := newAPIRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := repo.FetchUsers(t.Context(), "")
	assert.ErrorIs(t, err, client.ErrUnauthorized)

	_, err = repo.CreateUser(t.Context(), users.CreateUserRequest{})
	assert.ErrorIs(t, err, client.ErrUnauthorized)
}

func TestMockRepository(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo := users.NewMockRepository(users.Success)

		env, err := repo.FetchUsers(t.Context(), "")
		require.NoError(t, err)
		assert.True(t, env.Status)
		assert.Len(t, *env.Data, 2)

		env, err = repo.FetchUsers(t.Context(), "Grace")
		require.NoError(t, err)
		require.Len(t, *env.Data, 1)
		assert.Equal(t, 2, *(*env.Data)[0].ID)

		created, err := repo.CreateUser(t.Context(), users.CreateUserRequest{Name: ptr("Linus")})
		require.NoError(t, err)
		require.NotNil(t, created.Data)
		assert.GreaterOrEqual(t, *created.Data.ID, 100)
		assert.LessOrEqual(t, *created.Data.ID, 999)
		assert.Equal(t, "Linus", *created.Data.Name)
		assert.Nil(t, created.Data.Email)
	})

	t.Run("error", func(t *testing.T) {
		repo := users.NewMockRepository(users.Error)

		env, err := repo.FetchUsers(t.Context(), "")
		require.NoError(t, err)
		assert.False(t, env.Status)
		assert.Nil(t, env.Data)

		created, err := repo.CreateUser(t.Context(), users.CreateUserRequest{})
		require.NoError(t, err)
		assert.False(t, created.Status)

		_, err = created.Value()
		assert.ErrorIs(t, err, client.ErrDecoding)
	})
}
