package main

import (
	"context"
	"flag"
	"log"

	"github.com/himap/directory/internal/clock"
	"github.com/himap/directory/internal/config"
	"github.com/himap/directory/internal/identity"
	"github.com/himap/directory/internal/identity/local"
	"github.com/himap/directory/internal/migration"
	"github.com/himap/directory/internal/observability"
	"github.com/himap/directory/internal/seed"
	"github.com/himap/directory/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type params struct {
	fx.In

	Lc        fx.Lifecycle
	Shutdown  fx.Shutdowner
	Conn      *gorm.DB
	Cfg       config.Config
	Directory *config.DirectoryConfigHolder
	Local     *local.Provider `optional:"true"`
	Log       *zap.Logger
}

func main() {
	samples := flag.Bool("samples", true, "insert the sample directory companies")
	admin := flag.Bool("admin", true, "create the bootstrap admin when BOOTSTRAP_ADMIN_EMAIL is set")
	flag.Parse()

	app := fx.New(
		config.Module,
		observability.Module,
		db.Module,
		clock.Module,
		identity.Module,
		fx.Invoke(func(p params) {
			p.Lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					err := run(ctx, p, *samples, *admin)
					if shutdownErr := p.Shutdown.Shutdown(fx.ExitCode(exitCode(err))); shutdownErr != nil {
						p.Log.Warn("shutdown request failed", zap.Error(shutdownErr))
					}
					return err
				},
			})
		}),
		fx.NopLogger,
	)
	if err := app.Err(); err != nil {
		log.Fatal(err)
	}
	app.Run()
}

func run(ctx context.Context, p params, samples, admin bool) error {
	log := p.Log.Named("seed")
	if err := migration.Run(p.Conn, p.Cfg.DBType); err != nil {
		return err
	}
	if samples {
		inserted, err := seed.EnsureSampleDirectory(ctx, p.Conn, p.Directory.Get().ServiceCategories)
		if err != nil {
			return err
		}
		log.Info("sample directory seeded", zap.Int("inserted", inserted))
	}
	if admin && p.Local != nil && p.Cfg.Bootstrap.AdminEmail != "" {
		if err := seed.EnsureBootstrapAdmin(ctx, p.Conn, p.Local, p.Cfg.Bootstrap, log); err != nil {
			return err
		}
	}
	return nil
}

func exitCode(err error) int {
	if err != nil {
		return 1
	}
	return 0
}
