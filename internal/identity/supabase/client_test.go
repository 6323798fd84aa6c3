package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/himap/directory/internal/config"
	"github.com/himap/directory/internal/identity/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(config.Config{
		Supabase: config.SupabaseConfig{
			URL:            srv.URL,
			AnonKey:        "anon",
			ServiceRoleKey: "service",
		},
	}, zaptest.NewLogger(t))
}

func TestVerifyTokenUsesAnonKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"msg":"invalid JWT: token is expired"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"u-1","email":"admin@example.com"}`))
	})

	identity, err := c.VerifyToken(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "u-1", identity.ID)

	_, err = c.VerifyToken(context.Background(), "bad")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
	assert.Contains(t, err.Error(), "token is expired")
}

func TestCreateUserUsesServiceKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/admin/users", r.URL.Path)
		assert.Equal(t, "service", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service", r.Header.Get("Authorization"))

		var body createUserBody
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body.EmailConfirm)

		if body.Email == "taken@example.com" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"code":422,"msg":"A user with this email address has already been registered"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"new-1","email":"` + body.Email + `"}`))
	})

	identity, err := c.CreateUser(context.Background(), domain.CreateUserRequest{Email: "new@example.com", Password: "secret123", EmailConfirmed: true})
	require.NoError(t, err)
	assert.Equal(t, "new-1", identity.ID)

	_, err = c.CreateUser(context.Background(), domain.CreateUserRequest{Email: "taken@example.com", Password: "secret123", EmailConfirmed: true})
	var rejected *domain.RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, "A user with this email address has already been registered", rejected.Message)
}

func TestCreateUserServerErrorKeepsProviderMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body createUserBody
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusInternalServerError)
		if body.Email == "quiet@example.com" {
			return
		}
		_, _ = w.Write([]byte(`{"code":500,"msg":"Database error creating new user"}`))
	})

	_, err := c.CreateUser(context.Background(), domain.CreateUserRequest{Email: "loud@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	var rejected *domain.RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, "Database error creating new user", rejected.Message)

	_, err = c.CreateUser(context.Background(), domain.CreateUserRequest{Email: "quiet@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.False(t, errors.As(err, &rejected))
}

func TestDeleteUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		switch r.URL.Path {
		case "/auth/v1/admin/users/u-1":
			_, _ = w.Write([]byte(`{}`))
		case "/auth/v1/admin/users/missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	})

	assert.NoError(t, c.DeleteUser(context.Background(), "u-1"))
	assert.ErrorIs(t, c.DeleteUser(context.Background(), "missing"), domain.ErrIdentityNotFound)
	assert.ErrorIs(t, c.DeleteUser(context.Background(), "other"), domain.ErrUnavailable)
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := New(config.Config{Supabase: config.SupabaseConfig{URL: srv.URL}}, zaptest.NewLogger(t))
	_, err := c.VerifyToken(context.Background(), "any")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}
