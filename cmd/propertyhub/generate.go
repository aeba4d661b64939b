package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/authorization"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/billingperiod"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/clock"
	rentbillingdomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/rentbilling/domain"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func generateCmd() *cobra.Command {
	var (
		month   int
		year    int
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate rent payments for one billing period",
		Long: `Generate rent payments for every billable lease in a period. Running the
same period again is safe: payments that already exist are reported as
existing.

Month is zero-based (0 = January). Without flags the current period is used.

Examples:
  propertyhub generate
  propertyhub generate --month 5 --year 2024`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			var (
				svc rentbillingdomain.Service
				clk clock.Clock
			)
			app := fx.New(
				coreModules(cfg),
				fx.Populate(&svc, &clk),
			)
			if err := app.Err(); err != nil {
				return err
			}

			startCtx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := app.Start(startCtx); err != nil {
				return err
			}
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				_ = app.Stop(stopCtx)
			}()

			period := billingperiod.Of(clk.Now())
			if cmd.Flags().Changed("month") {
				period.Month = month
			}
			if cmd.Flags().Changed("year") {
				period.Year = year
			}

			ctx, cancelRun := context.WithTimeout(cmd.Context(), timeout)
			defer cancelRun()
			result, err := svc.GenerateForPeriod(ctx, rentbillingdomain.GenerateRequest{
				Month: period.Month,
				Year:  period.Year,
				Actor: authorization.System(),
			})
			if err != nil {
				return fmt.Errorf("generate %04d-%02d: %w", period.Year, period.Month+1, err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().IntVar(&month, "month", 0, "billing month, zero-based (0 = January)")
	cmd.Flags().IntVar(&year, "year", 0, "billing year")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "maximum run time")
	return cmd
}
