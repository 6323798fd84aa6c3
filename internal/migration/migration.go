package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/himap/directory/internal/audit/domain"
	directorydomain "github.com/himap/directory/internal/directory/domain"
	"github.com/himap/directory/internal/identity/local"
	memberdomain "github.com/himap/directory/internal/member/domain"
	"github.com/himap/directory/pkg/db"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "migrations"

// primaryLogoIndex enforces one primary logo per company on dialects that
// support partial indexes.
const primaryLogoIndex = `CREATE UNIQUE INDEX IF NOT EXISTS ux_bpo_media_primary_logo
ON bpo_media (bpo_id) WHERE media_type = 'logo' AND is_primary`

// Run brings the schema up to date. Postgres uses the versioned SQL files;
// other dialects are created from the GORM models.
func Run(conn *gorm.DB, dbType string) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}

	switch dbType {
	case db.TypePostgres, "":
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	default:
		return AutoMigrate(conn, dbType)
	}
}

func RunMigrations(sqlDB *sql.DB) error {
	if sqlDB == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// migrator.Close would close the shared *sql.DB.

	return nil
}

// AutoMigrate creates every table from the models.
func AutoMigrate(conn *gorm.DB, dbType string) error {
	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if dbType == db.TypeSQLite {
		if err := conn.Exec(primaryLogoIndex).Error; err != nil {
			return fmt.Errorf("create primary logo index: %w", err)
		}
	}
	return nil
}

func Models() []any {
	models := directorydomain.Models()
	return append(models,
		&memberdomain.UserProfile{},
		&local.User{},
		&auditdomain.AuditLog{},
	)
}
