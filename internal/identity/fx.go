package identity

import (
	"github.com/himap/directory/internal/clock"
	"github.com/himap/directory/internal/config"
	"github.com/himap/directory/internal/identity/domain"
	"github.com/himap/directory/internal/identity/local"
	"github.com/himap/directory/internal/identity/supabase"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("identity",
	fx.Provide(NewProvider),
)

type Result struct {
	fx.Out

	Provider domain.Provider
	Local    *local.Provider
}

// NewProvider selects the identity backend. Local is nil unless the
// self-hosted provider is configured.
func NewProvider(cfg config.Config, conn *gorm.DB, log *zap.Logger, clk clock.Clock) (Result, error) {
	if cfg.Identity.Provider == config.IdentityProviderSupabase {
		log.Info("identity provider selected", zap.String("provider", "supabase"))
		return Result{Provider: supabase.New(cfg, log)}, nil
	}

	p, err := local.New(conn, log, cfg, local.WithClock(clk))
	if err != nil {
		return Result{}, err
	}
	log.Info("identity provider selected", zap.String("provider", "local"))
	return Result{Provider: p, Local: p}, nil
}
