package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/authorization"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/billingperiod"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/clock"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/events"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/observability/logger"
	paymentdomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/payment/domain"
	rentbillingdomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/rentbilling/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Clock      clock.Clock
	Config     Config
	Generation rentbillingdomain.Service
	Payments   paymentdomain.Service
	Outbox     *events.Outbox `optional:"true"`
}

// Scheduler drives the periodic billing work: rent generation for the
// current period, the processing timeout sweep and the outbox relay.
type Scheduler struct {
	log        *zap.Logger
	clock      clock.Clock
	cfg        Config
	generation rentbillingdomain.Service
	payments   paymentdomain.Service
	outbox     *events.Outbox
}

// Report summarizes one pass.
type Report struct {
	Period      billingperiod.Period
	Generation  rentbillingdomain.GenerationResult
	StuckFailed int
	Relayed     int
}

func New(p Params) *Scheduler {
	return &Scheduler{
		log:        p.Log.Named("billing.scheduler"),
		clock:      p.Clock,
		cfg:        p.Config.withDefaults(),
		generation: p.Generation,
		payments:   p.Payments,
		outbox:     p.Outbox,
	}
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil {
			s.log.Warn("billing scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs every step even when an earlier one fails and returns
// the joined errors.
func (s *Scheduler) RunOnce(ctx context.Context) (Report, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	report := Report{Period: billingperiod.Of(s.clock.Now())}
	var errs []error

	result, err := s.generation.GenerateForPeriod(ctx, rentbillingdomain.GenerateRequest{
		Month: report.Period.Month,
		Year:  report.Period.Year,
		Actor: authorization.System(),
	})
	if err != nil {
		errs = append(errs, err)
	}
	report.Generation = result

	stuck, err := s.payments.FailStuckPayments(ctx)
	if err != nil {
		errs = append(errs, err)
	}
	report.StuckFailed = stuck

	relayed, err := s.relayEvents(ctx)
	if err != nil {
		errs = append(errs, err)
	}
	report.Relayed = relayed

	return report, errors.Join(errs...)
}

// relayEvents hands unpublished outbox rows to the log sink and marks them
// published.
func (s *Scheduler) relayEvents(ctx context.Context) (int, error) {
	if s.outbox == nil {
		return 0, nil
	}
	records, err := s.outbox.ListUnpublished(ctx, s.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	ids := make([]snowflake.ID, 0, len(records))
	for _, record := range records {
		s.log.Info("billing event",
			zap.String("event_id", record.ID.String()),
			zap.String("event_type", record.EventType),
			zap.String("landlord_id", record.LandlordID.String()),
			zap.Any("payload", logger.MaskJSON(record.Payload)),
		)
		ids = append(ids, record.ID)
	}
	if err := s.outbox.MarkPublished(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}
