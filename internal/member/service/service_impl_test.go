package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/cenkalti/backoff/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	auditdomain "github.com/himap/directory/internal/audit/domain"
	auditrepository "github.com/himap/directory/internal/audit/repository"
	auditservice "github.com/himap/directory/internal/audit/service"
	"github.com/himap/directory/internal/authorization"
	"github.com/himap/directory/internal/config"
	identitydomain "github.com/himap/directory/internal/identity/domain"
	"github.com/himap/directory/internal/identity/local"
	"github.com/himap/directory/internal/identity/mocks"
	"github.com/himap/directory/internal/member/domain"
	"github.com/himap/directory/internal/member/repository"
	"github.com/himap/directory/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

const adminToken = "admin-token"

type failingRepo struct {
	domain.Repository
	insertErr error
}

func (r *failingRepo) Insert(ctx context.Context, db *gorm.DB, profile *domain.UserProfile) error {
	return r.insertErr
}

type fixture struct {
	conn     *gorm.DB
	svc      *Service
	identity *mocks.MockProvider
	audit    auditdomain.Service
	adminID  string
	bpoID    string
}

func newFixture(t *testing.T, repo domain.Repository) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.UserProfile{}, &auditdomain.AuditLog{}, &local.User{}))

	log := zaptest.NewLogger(t)
	enforcer, err := authorization.NewEnforcer(conn)
	require.NoError(t, err)
	authz := authorization.NewService(authorization.Params{Log: log, Enforcer: enforcer})

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	audit := auditservice.NewService(auditservice.Params{
		DB:    conn,
		Log:   log,
		GenID: node,
		Repo:  auditrepository.Provide(),
	})

	if repo == nil {
		repo = repository.Provide()
	}
	identity := mocks.NewMockProvider(ctrl)
	svc := newService(Params{
		DB:       conn,
		Log:      log,
		Cfg:      config.Config{RollbackMaxAttempts: 3},
		Repo:     repo,
		Identity: identity,
		Authz:    authz,
		Audit:    audit,
	})
	svc.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }

	f := &fixture{
		conn:     conn,
		svc:      svc,
		identity: identity,
		audit:    audit,
		adminID:  uuid.NewString(),
		bpoID:    uuid.NewString(),
	}
	f.insertProfile(t, f.adminID, domain.RoleAdmin, true)
	return f
}

func (f *fixture) insertProfile(t *testing.T, userID string, role string, active bool) {
	t.Helper()
	bpoID := f.bpoID
	profile := domain.UserProfile{
		ID:        uuid.NewString(),
		UserID:    userID,
		BpoID:     &bpoID,
		Role:      role,
		Email:     role + "-" + userID[:8] + "@example.com",
		IsActive:  active,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.conn.Create(&profile).Error)
	if !active {
		require.NoError(t, f.conn.Model(&profile).Update("is_active", false).Error)
	}
}

func (f *fixture) expectAdminToken() {
	f.identity.EXPECT().
		VerifyToken(gomock.Any(), adminToken).
		Return(&identitydomain.Identity{ID: f.adminID, Email: "admin@example.com"}, nil).
		AnyTimes()
}

func (f *fixture) auditActions(t *testing.T) []string {
	t.Helper()
	resp, err := f.audit.List(context.Background(), auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	actions := make([]string, 0, len(resp.AuditLogs))
	for _, entry := range resp.AuditLogs {
		actions = append(actions, entry.Action)
	}
	return actions
}

func (f *fixture) validRequest() domain.ProvisionRequest {
	name := "  Jane Doe "
	return domain.ProvisionRequest{
		Email:    "jane@example.com",
		Password: "s3cret-pass",
		FullName: &name,
		BpoID:    f.bpoID,
	}
}

func TestProvisionRequiresToken(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Provision(context.Background(), "  ", f.validRequest())
	assert.ErrorIs(t, err, domain.ErrMissingAuthorization)
}

func TestProvisionRejectsInvalidToken(t *testing.T) {
	f := newFixture(t, nil)
	f.identity.EXPECT().
		VerifyToken(gomock.Any(), "expired").
		Return(nil, fmt.Errorf("%w: token is expired", identitydomain.ErrInvalidToken))

	_, err := f.svc.Provision(context.Background(), "expired", f.validRequest())

	var unauthenticated *domain.UnauthenticatedError
	require.ErrorAs(t, err, &unauthenticated)
	assert.Equal(t, "token is expired", unauthenticated.Reason)
}

func TestProvisionTreatsProviderOutageAsUnauthenticated(t *testing.T) {
	f := newFixture(t, nil)
	f.identity.EXPECT().
		VerifyToken(gomock.Any(), "any").
		Return(nil, fmt.Errorf("%w: dial tcp: refused", identitydomain.ErrUnavailable))

	_, err := f.svc.Provision(context.Background(), "any", f.validRequest())

	var unauthenticated *domain.UnauthenticatedError
	require.ErrorAs(t, err, &unauthenticated)
	assert.Equal(t, "identity provider unavailable", unauthenticated.Reason)
	assert.NotContains(t, unauthenticated.Reason, "dial tcp")
}

func TestProvisionRequiresAdminRole(t *testing.T) {
	cases := []struct {
		name  string
		setup func(t *testing.T, f *fixture, userID string)
	}{
		{
			name: "member role",
			setup: func(t *testing.T, f *fixture, userID string) {
				f.insertProfile(t, userID, domain.RoleMember, true)
			},
		},
		{
			name: "inactive admin",
			setup: func(t *testing.T, f *fixture, userID string) {
				f.insertProfile(t, userID, domain.RoleAdmin, false)
			},
		},
		{
			name:  "no profile",
			setup: func(t *testing.T, f *fixture, userID string) {},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, nil)
			userID := uuid.NewString()
			tc.setup(t, f, userID)
			f.identity.EXPECT().
				VerifyToken(gomock.Any(), "caller").
				Return(&identitydomain.Identity{ID: userID, Email: "caller@example.com"}, nil)

			_, err := f.svc.Provision(context.Background(), "caller", f.validRequest())
			assert.ErrorIs(t, err, domain.ErrAdminRequired)
		})
	}
}

func TestProvisionRequiresFields(t *testing.T) {
	f := newFixture(t, nil)
	f.expectAdminToken()

	for _, req := range []domain.ProvisionRequest{
		{Password: "pw123456", BpoID: f.bpoID},
		{Email: "a@example.com", BpoID: f.bpoID},
		{Email: "a@example.com", Password: "pw123456", BpoID: " "},
	} {
		_, err := f.svc.Provision(context.Background(), adminToken, req)
		assert.ErrorIs(t, err, domain.ErrMissingFields)
	}
}

func TestProvisionSurfacesIdentityRejection(t *testing.T) {
	f := newFixture(t, nil)
	f.expectAdminToken()
	f.identity.EXPECT().
		CreateUser(gomock.Any(), gomock.Any()).
		Return(nil, &identitydomain.RejectedError{Message: "A user with this email address has already been registered"})

	_, err := f.svc.Provision(context.Background(), adminToken, f.validRequest())

	var rejected *domain.IdentityRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "A user with this email address has already been registered", rejected.Message)
}

func TestProvisionReportsCreateOutageAsRejection(t *testing.T) {
	f := newFixture(t, nil)
	f.expectAdminToken()
	f.identity.EXPECT().
		CreateUser(gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("%w: status 503", identitydomain.ErrUnavailable))

	_, err := f.svc.Provision(context.Background(), adminToken, f.validRequest())

	var rejected *domain.IdentityRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "identity provider unavailable", rejected.Message)
	assert.Empty(t, f.auditActions(t))
}

func TestProvisionSurfacesProviderErrorMessage(t *testing.T) {
	f := newFixture(t, nil)
	f.expectAdminToken()
	f.identity.EXPECT().
		CreateUser(gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("%w: status 500: %w", identitydomain.ErrUnavailable,
			&identitydomain.RejectedError{Message: "Database error creating new user"}))

	_, err := f.svc.Provision(context.Background(), adminToken, f.validRequest())

	var rejected *domain.IdentityRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "Database error creating new user", rejected.Message)
}

func TestProvisionCreatesMemberProfile(t *testing.T) {
	f := newFixture(t, nil)
	f.expectAdminToken()
	newID := uuid.NewString()
	f.identity.EXPECT().
		CreateUser(gomock.Any(), identitydomain.CreateUserRequest{
			Email:          "jane@example.com",
			Password:       "s3cret-pass",
			EmailConfirmed: true,
		}).
		Return(&identitydomain.Identity{ID: newID, Email: "jane@example.com"}, nil)

	result, err := f.svc.Provision(context.Background(), adminToken, f.validRequest())
	require.NoError(t, err)
	assert.Equal(t, &domain.ProvisionResult{ID: newID, Email: "jane@example.com"}, result)

	var profile domain.UserProfile
	require.NoError(t, f.conn.Where("user_id = ?", newID).First(&profile).Error)
	assert.Equal(t, domain.RoleMember, profile.Role)
	assert.True(t, profile.IsActive)
	require.NotNil(t, profile.FullName)
	assert.Equal(t, "Jane Doe", *profile.FullName)
	require.NotNil(t, profile.CreatedBy)
	assert.Equal(t, f.adminID, *profile.CreatedBy)
	require.NotNil(t, profile.BpoID)
	assert.Equal(t, f.bpoID, *profile.BpoID)

	assert.Contains(t, f.auditActions(t), auditdomain.ActionMemberCreate)
}

func TestProvisionRollsBackIdentityWhenProfileInsertFails(t *testing.T) {
	f := newFixture(t, &failingRepo{Repository: repository.Provide(), insertErr: errors.New("insert or update on table violates foreign key constraint")})
	f.expectAdminToken()
	newID := uuid.NewString()
	f.identity.EXPECT().
		CreateUser(gomock.Any(), gomock.Any()).
		Return(&identitydomain.Identity{ID: newID, Email: "jane@example.com"}, nil)
	gomock.InOrder(
		f.identity.EXPECT().DeleteUser(gomock.Any(), newID).Return(identitydomain.ErrUnavailable),
		f.identity.EXPECT().DeleteUser(gomock.Any(), newID).Return(nil),
	)

	_, err := f.svc.Provision(context.Background(), adminToken, f.validRequest())
	assert.ErrorIs(t, err, domain.ErrProfileCreateFailed)

	actions := f.auditActions(t)
	assert.Contains(t, actions, auditdomain.ActionMemberRollback)
	assert.NotContains(t, actions, auditdomain.ActionMemberCreate)
}

func TestProvisionTreatsMissingIdentityAsRolledBack(t *testing.T) {
	f := newFixture(t, &failingRepo{Repository: repository.Provide(), insertErr: errors.New("boom")})
	f.expectAdminToken()
	newID := uuid.NewString()
	f.identity.EXPECT().
		CreateUser(gomock.Any(), gomock.Any()).
		Return(&identitydomain.Identity{ID: newID, Email: "jane@example.com"}, nil)
	f.identity.EXPECT().DeleteUser(gomock.Any(), newID).Return(identitydomain.ErrIdentityNotFound)

	_, err := f.svc.Provision(context.Background(), adminToken, f.validRequest())
	assert.ErrorIs(t, err, domain.ErrProfileCreateFailed)
	assert.Contains(t, f.auditActions(t), auditdomain.ActionMemberRollback)
}

func TestProvisionRecordsExhaustedRollback(t *testing.T) {
	f := newFixture(t, &failingRepo{Repository: repository.Provide(), insertErr: errors.New("boom")})
	f.expectAdminToken()
	newID := uuid.NewString()
	f.identity.EXPECT().
		CreateUser(gomock.Any(), gomock.Any()).
		Return(&identitydomain.Identity{ID: newID, Email: "jane@example.com"}, nil)
	f.identity.EXPECT().
		DeleteUser(gomock.Any(), newID).
		Return(identitydomain.ErrUnavailable).
		Times(3)

	_, err := f.svc.Provision(context.Background(), adminToken, f.validRequest())
	assert.ErrorIs(t, err, domain.ErrProfileCreateFailed)
	assert.Contains(t, f.auditActions(t), auditdomain.ActionMemberRollbackFailed)
}

func TestProvisionRollbackSurvivesCanceledRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := newFixture(t, &cancelingRepo{
		failingRepo: &failingRepo{Repository: repository.Provide(), insertErr: errors.New("client went away")},
		cancel:      cancel,
	})
	f.expectAdminToken()
	newID := uuid.NewString()
	f.identity.EXPECT().
		CreateUser(gomock.Any(), gomock.Any()).
		Return(&identitydomain.Identity{ID: newID, Email: "jane@example.com"}, nil)
	f.identity.EXPECT().
		DeleteUser(gomock.Any(), newID).
		DoAndReturn(func(ctx context.Context, id string) error {
			return ctx.Err()
		})

	_, err := f.svc.Provision(ctx, adminToken, f.validRequest())
	assert.ErrorIs(t, err, domain.ErrProfileCreateFailed)
	assert.Contains(t, f.auditActions(t), auditdomain.ActionMemberRollback)
}

type cancelingRepo struct {
	*failingRepo
	cancel context.CancelFunc
}

func (r *cancelingRepo) Insert(ctx context.Context, db *gorm.DB, profile *domain.UserProfile) error {
	r.cancel()
	return r.failingRepo.Insert(ctx, db, profile)
}

func TestProvisionWithLocalProviderLeavesNoIdentityBehind(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.UserProfile{}, &local.User{}))
	log := zaptest.NewLogger(t)

	provider, err := local.New(conn, log, config.Config{
		Identity: config.IdentityConfig{JWTSecret: "test-secret", JWTIssuer: "bpo-directory", TokenTTL: time.Hour},
	})
	require.NoError(t, err)
	admin, err := provider.CreateUser(context.Background(), identitydomain.CreateUserRequest{
		Email:          "admin@example.com",
		Password:       "admin-pass",
		EmailConfirmed: true,
	})
	require.NoError(t, err)

	bpoID := uuid.NewString()
	require.NoError(t, conn.Create(&domain.UserProfile{
		ID:       uuid.NewString(),
		UserID:   admin.ID,
		BpoID:    &bpoID,
		Role:     domain.RoleAdmin,
		Email:    admin.Email,
		IsActive: true,
	}).Error)
	token, err := provider.IssueToken(*admin)
	require.NoError(t, err)

	enforcer, err := authorization.NewEnforcer(conn)
	require.NoError(t, err)
	svc := newService(Params{
		DB:       conn,
		Log:      log,
		Repo:     &failingRepo{Repository: repository.Provide(), insertErr: errors.New("boom")},
		Identity: provider,
		Authz:    authorization.NewService(authorization.Params{Log: log, Enforcer: enforcer}),
	})
	svc.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }

	_, err = svc.Provision(context.Background(), token.AccessToken, domain.ProvisionRequest{
		Email:    "orphan@example.com",
		Password: "member-pass",
		BpoID:    bpoID,
	})
	assert.ErrorIs(t, err, domain.ErrProfileCreateFailed)

	var count int64
	require.NoError(t, conn.Model(&local.User{}).Where("email = ?", "orphan@example.com").Count(&count).Error)
	assert.Zero(t, count)

	again, err := provider.CreateUser(context.Background(), identitydomain.CreateUserRequest{
		Email:    "orphan@example.com",
		Password: "member-pass",
	})
	require.NoError(t, err, "the email must be free again after rollback")
	assert.NotEmpty(t, again.ID)
}

func TestMeReturnsOwnProfile(t *testing.T) {
	f := newFixture(t, nil)
	f.expectAdminToken()

	profile, err := f.svc.Me(context.Background(), adminToken)
	require.NoError(t, err)
	assert.Equal(t, f.adminID, profile.UserID)
	assert.Equal(t, domain.RoleAdmin, profile.Role)
}

func TestMeWithoutProfile(t *testing.T) {
	f := newFixture(t, nil)
	f.identity.EXPECT().
		VerifyToken(gomock.Any(), "stranger").
		Return(&identitydomain.Identity{ID: uuid.NewString()}, nil)

	_, err := f.svc.Me(context.Background(), "stranger")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestListByCompany(t *testing.T) {
	f := newFixture(t, nil)
	f.expectAdminToken()
	f.insertProfile(t, uuid.NewString(), domain.RoleMember, true)

	rows, err := f.svc.ListByCompany(context.Background(), adminToken, f.bpoID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = f.svc.ListByCompany(context.Background(), adminToken, "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrInvalidCompany)
}
