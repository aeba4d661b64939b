package lease

import (
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/lease/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("lease.repository",
	fx.Provide(repository.Provide),
)
