package clinic

import (
	"clinic-adminplane/pkg/server"

	"go.uber.org/fx"
)

var Module = fx.Module("clinic",
	fx.Provide(
		NewService,
		NewHandler,
	),
)

var Routes = fx.Module("clinic.routes",
	fx.Invoke(registerRoutes),
)

func registerRoutes(api server.APIGroup, h *Handler) {
	h.Register(api)
}
