package domain

import (
	"context"
	"errors"

	identitydomain "github.com/himap/directory/internal/identity/domain"
)

type Service interface {
	Provision(ctx context.Context, token string, req ProvisionRequest) (*ProvisionResult, error)
	Me(ctx context.Context, token string) (*UserProfile, error)
	ListByCompany(ctx context.Context, token string, bpoID string) ([]UserProfile, error)
	RequirePermission(ctx context.Context, token string, object string, action string) (*Caller, error)
}

type ProvisionRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName *string `json:"fullName"`
	BpoID    string  `json:"bpoId"`
}

type ProvisionResult struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Caller is a verified identity together with its profile.
type Caller struct {
	Identity identitydomain.Identity
	Profile  UserProfile
}

var (
	ErrMissingAuthorization = errors.New("missing_authorization")
	ErrAdminRequired        = errors.New("admin_required")
	ErrMissingFields        = errors.New("missing_required_fields")
	ErrProfileCreateFailed  = errors.New("profile_create_failed")
	ErrProfileNotFound      = errors.New("profile_not_found")
	ErrInactiveProfile      = errors.New("profile_inactive")
	ErrInvalidCompany       = errors.New("invalid_company_id")
)

// UnauthenticatedError reports a rejected bearer token. Reason is the
// verifier's explanation and is returned to the caller as details.
type UnauthenticatedError struct {
	Reason string
}

func (e *UnauthenticatedError) Error() string {
	if e.Reason == "" {
		return "unauthenticated"
	}
	return "unauthenticated: " + e.Reason
}

// IdentityRejectedError carries the identity provider's refusal message.
type IdentityRejectedError struct {
	Message string
}

func (e *IdentityRejectedError) Error() string {
	return e.Message
}
