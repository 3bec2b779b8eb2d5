package guard

import (
	"clinic-adminplane/pkg/server"

	"go.uber.org/fx"
)

var Module = fx.Module("guard",
	fx.Provide(
		NewConfigStore,
		NewRedisSessionStore,
		NewService,
		NewHandler,
	),
)

var Routes = fx.Module("guard.routes",
	fx.Invoke(registerRoutes),
)

func registerRoutes(api server.APIGroup, h *Handler) {
	h.Register(api)
}
