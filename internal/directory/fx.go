package directory

import (
	"github.com/himap/directory/internal/directory/repository"
	"github.com/himap/directory/internal/directory/service"
	"go.uber.org/fx"
)

var Module = fx.Module("directory.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
