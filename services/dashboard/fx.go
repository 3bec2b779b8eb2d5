package dashboard

import (
	"clinic-adminplane/pkg/server"
	"clinic-adminplane/services/attendance"
	"clinic-adminplane/services/directory"
	"clinic-adminplane/services/promo"
	"clinic-adminplane/services/voucher"

	"go.uber.org/fx"
)

var Module = fx.Module("dashboard",
	fx.Provide(
		func(svc *voucher.Service) VoucherStats { return svc },
		func(svc *attendance.Service) AttendanceStatus { return svc },
		func(svc *promo.Service) PromoHistory { return svc },
		func(svc *directory.Service) PatientDirectory { return svc },
		NewService,
		NewHandler,
	),
)

var Routes = fx.Module("dashboard.routes",
	fx.Invoke(registerRoutes),
)

func registerRoutes(api server.APIGroup, h *Handler) {
	h.Register(api)
}
