package payment

import (
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/payment/adapters"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/payment/adapters/demo"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/payment/repository"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(func() *adapters.Registry {
		return adapters.NewRegistry(demo.NewFactory())
	}),
	fx.Provide(service.NewService),
)
