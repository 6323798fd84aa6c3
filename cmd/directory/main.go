package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/himap/directory/internal/audit"
	"github.com/himap/directory/internal/authorization"
	"github.com/himap/directory/internal/clock"
	"github.com/himap/directory/internal/config"
	"github.com/himap/directory/internal/directory"
	"github.com/himap/directory/internal/identity"
	"github.com/himap/directory/internal/member"
	"github.com/himap/directory/internal/migration"
	"github.com/himap/directory/internal/observability"
	"github.com/himap/directory/internal/ratelimit"
	"github.com/himap/directory/internal/server"
	"github.com/himap/directory/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		identity.Module,
		authorization.Module,
		audit.Module,
		directory.Module,
		member.Module,
		ratelimit.Module,

		// schema and bootstrap data must exist before the listener starts
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
