package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/himap/directory/internal/config"
	directorydomain "github.com/himap/directory/internal/directory/domain"
	identitydomain "github.com/himap/directory/internal/identity/domain"
	"github.com/himap/directory/internal/identity/local"
	memberdomain "github.com/himap/directory/internal/member/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrBootstrapAdmin = errors.New("bootstrap admin requires BOOTSTRAP_ADMIN_EMAIL and BOOTSTRAP_ADMIN_PASSWORD")

// EnsureBootstrapAdmin creates the first admin account for self-hosted
// installs: a local identity plus an admin profile attached to the named
// company. The company is created when it does not exist yet.
func EnsureBootstrapAdmin(ctx context.Context, db *gorm.DB, provider *local.Provider, cfg config.BootstrapConfig, log *zap.Logger) error {
	if db == nil || provider == nil {
		return errors.New("bootstrap admin requires a database and the local identity provider")
	}
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" || cfg.AdminPassword == "" {
		return ErrBootstrapAdmin
	}

	bpoID, err := ensureCompanyByName(ctx, db, strings.TrimSpace(cfg.AdminBpoName))
	if err != nil {
		return err
	}

	var user local.User
	err = db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		identity, createErr := provider.CreateUser(ctx, identitydomain.CreateUserRequest{
			Email:          email,
			Password:       cfg.AdminPassword,
			EmailConfirmed: true,
		})
		if createErr != nil {
			return createErr
		}
		user.ID = identity.ID
		log.Info("bootstrap admin identity created", zap.String("identity_id", identity.ID))
	default:
		return err
	}

	var count int64
	if err := db.WithContext(ctx).Model(&memberdomain.UserProfile{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	profile := memberdomain.UserProfile{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		BpoID:     &bpoID,
		Role:      memberdomain.RoleAdmin,
		Email:     email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(&profile).Error; err != nil {
		return err
	}
	log.Info("bootstrap admin profile created", zap.String("bpo_id", bpoID))
	return nil
}

func ensureCompanyByName(ctx context.Context, db *gorm.DB, name string) (string, error) {
	if name == "" {
		name = "HIMAP"
	}

	var company directorydomain.Company
	err := db.WithContext(ctx).Where("company_name = ?", name).Order("created_at ASC").First(&company).Error
	if err == nil {
		return company.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	now := time.Now().UTC()
	company = directorydomain.Company{
		ID:          uuid.NewString(),
		CompanyName: name,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.WithContext(ctx).Create(&company).Error; err != nil {
		return "", err
	}
	return company.ID, nil
}
