package attendance

import (
	"clinic-adminplane/pkg/server"

	"go.uber.org/fx"
)

var Module = fx.Module("attendance",
	fx.Provide(
		NewService,
		NewHandler,
	),
)

var Routes = fx.Module("attendance.routes",
	fx.Invoke(registerRoutes),
)

func registerRoutes(api server.APIGroup, h *Handler) {
	h.Register(api)
}
