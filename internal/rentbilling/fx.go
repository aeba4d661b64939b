package rentbilling

import (
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/rentbilling/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rentbilling.service",
	fx.Provide(service.NewService),
)
