package migration

import (
	"context"

	"github.com/himap/directory/internal/config"
	"github.com/himap/directory/internal/identity/local"
	"github.com/himap/directory/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Conn      *gorm.DB
	Cfg       config.Config
	Directory *config.DirectoryConfigHolder
	Local     *local.Provider `optional:"true"`
	Log       *zap.Logger
}

var Module = fx.Module("migrations",
	fx.Invoke(func(p Params) error {
		log := p.Log.Named("migration")
		if !p.Cfg.MigrationsEnabled {
			log.Info("migrations disabled")
			return nil
		}
		if err := Run(p.Conn, p.Cfg.DBType); err != nil {
			return err
		}
		log.Info("schema up to date", zap.String("db_type", p.Cfg.DBType))

		ctx := context.Background()
		if p.Cfg.Bootstrap.SampleData {
			inserted, err := seed.EnsureSampleDirectory(ctx, p.Conn, p.Directory.Get().ServiceCategories)
			if err != nil {
				return err
			}
			log.Info("sample directory seeded", zap.Int("inserted", inserted))
		}
		if p.Local != nil && p.Cfg.Bootstrap.AdminEmail != "" {
			return seed.EnsureBootstrapAdmin(ctx, p.Conn, p.Local, p.Cfg.Bootstrap, log)
		}
		return nil
	}),
)
