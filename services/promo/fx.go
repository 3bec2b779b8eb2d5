package promo

import (
	"clinic-adminplane/pkg/server"
	"clinic-adminplane/services/voucher"

	"go.uber.org/fx"
)

var Module = fx.Module("promo",
	fx.Provide(
		func(svc *voucher.Service) VoucherCodes { return svc },
		NewService,
		NewEnqueuer,
		NewTaskHandler,
		NewHandler,
	),
)

var Routes = fx.Module("promo.routes",
	fx.Invoke(registerRoutes),
)

func registerRoutes(api server.APIGroup, h *Handler) {
	h.Register(api)
}
