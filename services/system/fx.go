package system

import (
	"clinic-adminplane/pkg/server"
	"clinic-adminplane/services/voucher"

	"go.uber.org/fx"
)

var Module = fx.Module("system",
	fx.Provide(
		func(svc *voucher.Service) VoucherCleaner { return svc },
		NewService,
		NewHandler,
	),
)

var Routes = fx.Module("system.routes",
	fx.Invoke(registerRoutes),
)

func registerRoutes(api server.APIGroup, h *Handler) {
	h.Register(api)
}
