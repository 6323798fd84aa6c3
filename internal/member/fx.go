package member

import (
	"github.com/himap/directory/internal/member/repository"
	"github.com/himap/directory/internal/member/service"
	"go.uber.org/fx"
)

var Module = fx.Module("member.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
