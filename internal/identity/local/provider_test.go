package local

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/himap/directory/internal/clock"
	"github.com/himap/directory/internal/config"
	"github.com/himap/directory/internal/identity/domain"
	"github.com/himap/directory/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&User{}))

	p, err := New(conn, zaptest.NewLogger(t), config.Config{
		Identity: config.IdentityConfig{
			Provider:  config.IdentityProviderLocal,
			JWTSecret: "test-secret",
			JWTIssuer: "bpo-directory",
			TokenTTL:  time.Hour,
		},
	})
	require.NoError(t, err)
	return p
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.True(t, VerifyPassword("correct horse", hash))
	assert.False(t, VerifyPassword("wrong horse", hash))
	assert.False(t, VerifyPassword("correct horse", "$argon2id$v=19$broken"))
}

func TestLoginAndVerify(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	created, err := p.CreateUser(ctx, domain.CreateUserRequest{Email: "Admin@Example.com", Password: "secret123", EmailConfirmed: true})
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", created.Email)

	_, err = p.Login(ctx, "admin@example.com", "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	token, err := p.Login(ctx, "admin@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "bearer", token.TokenType)

	identity, err := p.VerifyToken(ctx, token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, identity.ID)
}

func TestCreateUserRejections(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	_, err := p.CreateUser(ctx, domain.CreateUserRequest{Email: "a@example.com", Password: "123"})
	var rejected *domain.RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Contains(t, rejected.Message, "at least 6")

	_, err = p.CreateUser(ctx, domain.CreateUserRequest{Email: "not-an-email", Password: "secret123"})
	assert.True(t, errors.As(err, &rejected))

	_, err = p.CreateUser(ctx, domain.CreateUserRequest{Email: "a@example.com", Password: "secret123"})
	require.NoError(t, err)
	_, err = p.CreateUser(ctx, domain.CreateUserRequest{Email: "a@example.com", Password: "secret456"})
	require.True(t, errors.As(err, &rejected))
	assert.Contains(t, rejected.Message, "already been registered")
}

func TestVerifyTokenRejectsDeletedIdentity(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	created, err := p.CreateUser(ctx, domain.CreateUserRequest{Email: "gone@example.com", Password: "secret123"})
	require.NoError(t, err)
	token, err := p.IssueToken(*created)
	require.NoError(t, err)

	require.NoError(t, p.DeleteUser(ctx, created.ID))
	assert.ErrorIs(t, p.DeleteUser(ctx, created.ID), domain.ErrIdentityNotFound)

	_, err = p.VerifyToken(ctx, token.AccessToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestVerifyTokenRejectsExpiredAndForeignTokens(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	created, err := p.CreateUser(ctx, domain.CreateUserRequest{Email: "x@example.com", Password: "secret123"})
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Now().Add(-2 * time.Hour))
	p.clock = fake
	stale, err := p.IssueToken(*created)
	require.NoError(t, err)

	_, err = p.VerifyToken(ctx, stale.AccessToken)
	require.NoError(t, err, "token is valid while the clock is still behind")

	fake.Advance(2 * time.Hour)

	_, err = p.VerifyToken(ctx, stale.AccessToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	_, err = p.VerifyToken(ctx, "not.a.jwt")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}
