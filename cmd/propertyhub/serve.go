package main

import (
	"context"

	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/clock"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/config"
	leasedomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/lease/domain"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/scheduler"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/seed"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/server"
	"github.com/bwmarrin/snowflake"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func serveCmd() *cobra.Command {
	var noScheduler bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the billing scheduler",
		Long: `Run the HTTP API and, unless disabled, the background scheduler that
generates rent for the current period and fails stuck payments.

Examples:
  propertyhub serve
  propertyhub serve --config config.yaml --no-scheduler`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if noScheduler {
				cfg.Scheduler.Enabled = false
			}

			app := fx.New(
				coreModules(cfg),
				fx.Invoke(seedDemoData),
				scheduler.Module,
				server.Module,
			)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}

	cmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "disable the background scheduler")
	return cmd
}

func seedDemoData(cfg config.Config, conn *gorm.DB, node *snowflake.Node, repo leasedomain.Repository, clk clock.Clock, log *zap.Logger) error {
	if !cfg.Bootstrap.SeedDemoData || cfg.IsProduction() {
		return nil
	}
	created, err := seed.EnsureDemoLeases(context.Background(), conn, node, repo, clk.Now())
	if err != nil {
		return err
	}
	if created > 0 {
		log.Info("seeded demo leases",
			zap.Int("count", created),
			zap.String("landlord_id", seed.DemoLandlordID.String()),
		)
	}
	return nil
}
