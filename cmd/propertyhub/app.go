package main

import (
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/authorization"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/clock"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/config"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/events"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/lease"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/ledger"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/migration"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/observability/logger"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/observability/metrics"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/observability/tracing"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/payment"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/rentbilling"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	return config.Load(path)
}

// coreModules wires storage, observability and the billing services shared
// by every command.
func coreModules(cfg config.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		logger.Module,
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Provide(func(cfg config.Config) (*snowflake.Node, error) {
			return snowflake.NewNode(cfg.Snowflake.Node)
		}),
		db.Module,
		fx.Invoke(func(conn *gorm.DB) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return migration.RunMigrations(sqlDB)
		}),
		clock.Module,
		metrics.Module,
		tracing.Module,
		authorization.Module,
		lease.Module,
		ledger.Module,
		events.Module,
		payment.Module,
		rentbilling.Module,
	)
}
