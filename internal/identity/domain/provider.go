// Package domain defines the identity provider boundary used by member
// provisioning.
package domain

import (
	"context"
	"errors"
)

//go:generate mockgen -destination=../mocks/mock_provider.go -package=mocks github.com/himap/directory/internal/identity/domain Provider

// Provider verifies bearer tokens and manages identities on behalf of admins.
type Provider interface {
	VerifyToken(ctx context.Context, token string) (*Identity, error)
	CreateUser(ctx context.Context, req CreateUserRequest) (*Identity, error)
	DeleteUser(ctx context.Context, id string) error
}

type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type CreateUserRequest struct {
	Email          string
	Password       string
	EmailConfirmed bool
}

var (
	ErrInvalidToken       = errors.New("invalid_token")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrIdentityNotFound   = errors.New("identity_not_found")
	ErrUnavailable        = errors.New("identity_provider_unavailable")
)

// RejectedError reports that the provider refused to create an identity.
// Message is safe to show to the caller.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	if e == nil || e.Message == "" {
		return "identity rejected"
	}
	return e.Message
}
