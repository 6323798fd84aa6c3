package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	auditdomain "github.com/himap/directory/internal/audit/domain"
	"github.com/himap/directory/internal/authorization"
	"github.com/himap/directory/internal/config"
	identitydomain "github.com/himap/directory/internal/identity/domain"
	"github.com/himap/directory/internal/member/domain"
	obscontext "github.com/himap/directory/internal/observability/context"
	"github.com/himap/directory/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	outcomeCreated      = "created"
	outcomeUnauthorized = "unauthorized"
	outcomeForbidden    = "forbidden"
	outcomeInvalid      = "invalid"
	outcomeRejected     = "rejected"
	outcomeRolledBack   = "rolled_back"
	outcomeError        = "error"

	rollbackTimeout = 30 * time.Second

	msgProviderUnavailable = "identity provider unavailable"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Cfg      config.Config
	Repo     domain.Repository
	Identity identitydomain.Provider
	Authz    authorization.Service
	Audit    auditdomain.Service `optional:"true"`
	Metrics  *metrics.Metrics    `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     domain.Repository
	identity identitydomain.Provider
	authz    authorization.Service
	audit    auditdomain.Service
	metrics  *metrics.Metrics

	maxRollbackAttempts int
	newBackOff          func() backoff.BackOff
}

func New(p Params) domain.Service {
	return newService(p)
}

func newService(p Params) *Service {
	attempts := p.Cfg.RollbackMaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("member.service"),
		repo:     p.Repo,
		identity: p.Identity,
		authz:    p.Authz,
		audit:    p.Audit,
		metrics:  p.Metrics,

		maxRollbackAttempts: attempts,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
	}
}

// Provision creates an identity and its member profile. When the profile
// cannot be stored the identity is deleted again so no account exists
// without a profile.
func (s *Service) Provision(ctx context.Context, token string, req domain.ProvisionRequest) (*domain.ProvisionResult, error) {
	caller, err := s.RequirePermission(ctx, token, authorization.ObjectMember, authorization.ActionMemberCreate)
	if err != nil {
		s.metrics.RecordMemberProvision(ctx, outcomeFor(err))
		return nil, err
	}
	ctx = obscontext.WithActor(ctx, string(auditdomain.ActorTypeUser), caller.Identity.ID)

	email := strings.TrimSpace(req.Email)
	bpoID := strings.TrimSpace(req.BpoID)
	if email == "" || req.Password == "" || bpoID == "" {
		s.metrics.RecordMemberProvision(ctx, outcomeInvalid)
		return nil, domain.ErrMissingFields
	}

	identity, err := s.identity.CreateUser(ctx, identitydomain.CreateUserRequest{
		Email:          email,
		Password:       req.Password,
		EmailConfirmed: true,
	})
	if err != nil {
		var rejected *identitydomain.RejectedError
		if errors.As(err, &rejected) {
			s.metrics.RecordMemberProvision(ctx, outcomeRejected)
			return nil, &domain.IdentityRejectedError{Message: rejected.Message}
		}
		s.log.Warn("identity creation failed", zap.String("bpo_id", bpoID), zap.Error(err))
		s.metrics.RecordMemberProvision(ctx, outcomeError)
		return nil, &domain.IdentityRejectedError{Message: msgProviderUnavailable}
	}

	createdBy := caller.Identity.ID
	profile := &domain.UserProfile{
		ID:        uuid.NewString(),
		UserID:    identity.ID,
		BpoID:     &bpoID,
		Role:      domain.RoleMember,
		Email:     email,
		FullName:  normalizeName(req.FullName),
		IsActive:  true,
		CreatedBy: &createdBy,
	}
	if err := s.repo.Insert(ctx, s.db, profile); err != nil {
		s.log.Error("member profile insert failed",
			zap.String("identity_id", identity.ID),
			zap.String("bpo_id", bpoID),
			zap.Error(err),
		)
		s.rollback(ctx, identity.ID)
		s.metrics.RecordMemberProvision(ctx, outcomeRolledBack)
		return nil, domain.ErrProfileCreateFailed
	}

	s.metrics.RecordMemberProvision(ctx, outcomeCreated)
	s.log.Info("member provisioned",
		zap.String("identity_id", identity.ID),
		zap.String("bpo_id", bpoID),
		zap.String("created_by", createdBy),
	)
	s.writeAudit(ctx, auditdomain.ActionMemberCreate, identity.ID, map[string]any{
		"email":      identity.Email,
		"bpo_id":     bpoID,
		"profile_id": profile.ID,
	})

	return &domain.ProvisionResult{ID: identity.ID, Email: identity.Email}, nil
}

// rollback deletes an identity whose profile could not be written. It runs
// detached from the request so a disconnected client cannot interrupt it.
func (s *Service) rollback(ctx context.Context, identityID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	attempts := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		err := s.identity.DeleteUser(ctx, identityID)
		if errors.Is(err, identitydomain.ErrIdentityNotFound) {
			return struct{}{}, nil
		}
		if err != nil {
			s.log.Warn("identity rollback attempt failed",
				zap.String("identity_id", identityID),
				zap.Int("attempt", attempts),
				zap.Error(err),
			)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(s.newBackOff()),
		backoff.WithMaxTries(uint(s.maxRollbackAttempts)),
	)
	if err != nil {
		s.log.Error("identity rollback failed, identity has no member profile",
			zap.String("identity_id", identityID),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		s.metrics.RecordMemberRollback(ctx, "failed")
		s.writeAudit(ctx, auditdomain.ActionMemberRollbackFailed, identityID, map[string]any{
			"attempts": attempts,
			"error":    err.Error(),
		})
		return
	}

	s.metrics.RecordMemberRollback(ctx, "succeeded")
	s.writeAudit(ctx, auditdomain.ActionMemberRollback, identityID, map[string]any{
		"attempts": attempts,
	})
}

func (s *Service) Me(ctx context.Context, token string) (*domain.UserProfile, error) {
	identity, err := s.verify(ctx, token)
	if err != nil {
		return nil, err
	}
	profile, err := s.repo.FindByUserID(ctx, s.db, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	if profile == nil {
		return nil, domain.ErrProfileNotFound
	}
	if !profile.IsActive {
		return nil, domain.ErrInactiveProfile
	}
	if err := s.authz.Authorize(ctx, profile.Role, authorization.ObjectProfile, authorization.ActionProfileView); err != nil {
		if errors.Is(err, authorization.ErrForbidden) {
			return nil, domain.ErrInactiveProfile
		}
		return nil, err
	}
	return profile, nil
}

func (s *Service) ListByCompany(ctx context.Context, token string, bpoID string) ([]domain.UserProfile, error) {
	if _, err := s.RequirePermission(ctx, token, authorization.ObjectMember, authorization.ActionMemberList); err != nil {
		return nil, err
	}
	bpoID = strings.TrimSpace(bpoID)
	if _, err := uuid.Parse(bpoID); err != nil {
		return nil, domain.ErrInvalidCompany
	}
	rows, err := s.repo.ListByCompany(ctx, s.db, bpoID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return rows, nil
}

// RequirePermission verifies the bearer token and checks the caller's
// profile role against the object and action.
func (s *Service) RequirePermission(ctx context.Context, token string, object string, action string) (*domain.Caller, error) {
	identity, err := s.verify(ctx, token)
	if err != nil {
		return nil, err
	}

	profile, err := s.repo.FindByUserID(ctx, s.db, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("find caller profile: %w", err)
	}
	if profile == nil || !profile.IsActive {
		return nil, domain.ErrAdminRequired
	}
	if err := s.authz.Authorize(ctx, profile.Role, object, action); err != nil {
		if errors.Is(err, authorization.ErrForbidden) || errors.Is(err, authorization.ErrInvalidRole) {
			return nil, domain.ErrAdminRequired
		}
		return nil, err
	}

	return &domain.Caller{Identity: *identity, Profile: *profile}, nil
}

func (s *Service) verify(ctx context.Context, token string) (*identitydomain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrMissingAuthorization
	}
	identity, err := s.identity.VerifyToken(ctx, token)
	if err != nil {
		if errors.Is(err, identitydomain.ErrUnavailable) {
			s.log.Warn("token verification failed", zap.Error(err))
			return nil, &domain.UnauthenticatedError{Reason: msgProviderUnavailable}
		}
		return nil, &domain.UnauthenticatedError{Reason: reason(err)}
	}
	return identity, nil
}

func (s *Service) writeAudit(ctx context.Context, action string, identityID string, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	target := identityID
	if err := s.audit.AuditLog(ctx, "", nil, action, "identity", &target, metadata); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

func reason(err error) string {
	msg := err.Error()
	msg = strings.TrimPrefix(msg, identitydomain.ErrInvalidToken.Error()+": ")
	if msg == identitydomain.ErrInvalidToken.Error() {
		return "invalid token"
	}
	return msg
}

func normalizeName(name *string) *string {
	if name == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func outcomeFor(err error) string {
	var unauthenticated *domain.UnauthenticatedError
	switch {
	case errors.Is(err, domain.ErrMissingAuthorization), errors.As(err, &unauthenticated):
		return outcomeUnauthorized
	case errors.Is(err, domain.ErrAdminRequired):
		return outcomeForbidden
	default:
		return outcomeError
	}
}
