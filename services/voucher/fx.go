package voucher

import (
	"clinic-adminplane/pkg/server"

	"go.uber.org/fx"
)

var Module = fx.Module("voucher.module",
	fx.Provide(
		NewService,
		NewHandler,
	),
)

var Routes = fx.Module("voucher.routes",
	fx.Invoke(registerRoutes),
)

func registerRoutes(api server.APIGroup, h *Handler) {
	h.Register(api)
}
