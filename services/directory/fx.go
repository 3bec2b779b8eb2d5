package directory

import (
	"clinic-adminplane/pkg/server"

	"go.uber.org/fx"
)

var Module = fx.Module("directory",
	fx.Provide(
		NewService,
		NewHandler,
	),
)

var Routes = fx.Module("directory.routes",
	fx.Invoke(registerRoutes),
)

func registerRoutes(api server.APIGroup, h *Handler) {
	h.Register(api)
}
