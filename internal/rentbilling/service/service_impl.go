package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/authorization"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/billingperiod"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/clock"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/config"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/events"
	leasedomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/lease/domain"
	ledgerdomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/ledger/domain"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/observability/metrics"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/observability/tracing"
	paymentdomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/payment/domain"
	rentbillingdomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/rentbilling/domain"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Cfg         config.Config
	LeaseRepo   leasedomain.Repository
	PaymentRepo paymentdomain.Repository
	LedgerSvc   ledgerdomain.Service
	Outbox      *events.Outbox
	Authz       authorization.Service
	Metrics     *metrics.BillingMetrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	leaseRepo    leasedomain.Repository
	paymentRepo  paymentdomain.Repository
	ledgerSvc    ledgerdomain.Service
	outbox       *events.Outbox
	authz        authorization.Service
	metrics      *metrics.BillingMetrics
	tracer       trace.Tracer
	retries      int
	retryBackoff time.Duration
	timeout      time.Duration
}

func NewService(p Params) rentbillingdomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("rentbilling.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		leaseRepo:    p.LeaseRepo,
		paymentRepo:  p.PaymentRepo,
		ledgerSvc:    p.LedgerSvc,
		outbox:       p.Outbox,
		authz:        p.Authz,
		metrics:      p.Metrics,
		tracer:       otel.Tracer("propertyhub/rentbilling"),
		retries:      p.Cfg.Billing.RetryAttempts,
		retryBackoff: p.Cfg.Billing.RetryBackoff,
		timeout:      p.Cfg.Database.QueryTimeout,
	}
}

// GenerateForPeriod creates the rent payment for every active lease that
// overlaps the period. Safe to run repeatedly and concurrently: the rent
// period index decides which caller creates each payment. Per-lease
// failures are reported in the result; only failing to list leases aborts.
func (s *Service) GenerateForPeriod(ctx context.Context, req rentbillingdomain.GenerateRequest) (rentbillingdomain.GenerationResult, error) {
	period, err := billingperiod.New(req.Month, req.Year)
	if err != nil {
		return rentbillingdomain.GenerationResult{}, err
	}
	if err := s.authz.Authorize(ctx, req.Actor, authorization.Resource{
		Object:     authorization.ObjectBilling,
		LandlordID: landlordScope(req.Actor),
	}, authorization.ActionBillingGenerate); err != nil {
		return rentbillingdomain.GenerationResult{}, err
	}

	ctx, span := s.tracer.Start(ctx, "rentbilling.generate")
	defer span.End()
	span.SetAttributes(tracing.SafeAttributes(
		attribute.String("billing.period", period.String()),
		attribute.String("actor.type", string(req.Actor.Type)),
	)...)

	start := time.Now()
	result, err := s.generate(ctx, period, landlordScope(req.Actor))
	s.metrics.ObserveGeneration(len(result.Created), len(result.Existing), len(result.Errors), time.Since(start), err)
	if err != nil {
		span.RecordError(tracing.SafeError(err))
		span.SetStatus(codes.Error, "lease enumeration failed")
		s.log.Error("rent generation aborted",
			zap.String("period", period.String()),
			zap.Error(err),
		)
		return rentbillingdomain.GenerationResult{}, err
	}

	span.SetAttributes(
		attribute.Int("billing.created", len(result.Created)),
		attribute.Int("billing.existing", len(result.Existing)),
		attribute.Int("billing.errors", len(result.Errors)),
	)
	s.log.Info("rent generation finished",
		zap.String("period", period.String()),
		zap.String("actor", req.Actor.String()),
		zap.Int("created", len(result.Created)),
		zap.Int("existing", len(result.Existing)),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

func (s *Service) generate(ctx context.Context, period billingperiod.Period, landlordID snowflake.ID) (rentbillingdomain.GenerationResult, error) {
	result := rentbillingdomain.NewGenerationResult()

	leaseIDs, err := s.listLeaseIDs(ctx, period, landlordID)
	if err != nil {
		return result, fmt.Errorf("%w: %w", rentbillingdomain.ErrLeaseEnumeration, err)
	}

	for _, leaseID := range leaseIDs {
		paymentID, created, err := s.generateForLease(ctx, leaseID, period)
		switch {
		case err != nil:
			s.log.Warn("rent generation skipped lease",
				zap.String("lease_id", leaseID.String()),
				zap.String("period", period.String()),
				zap.Error(err),
			)
			result.Errors = append(result.Errors, rentbillingdomain.GenerationError{
				LeaseID: leaseID,
				Reason:  err.Error(),
			})
		case created:
			result.Created = append(result.Created, paymentID)
		default:
			result.Existing = append(result.Existing, leaseID)
		}
	}
	return result, nil
}

func (s *Service) listLeaseIDs(ctx context.Context, period billingperiod.Period, landlordID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := s.withRetry(ctx, func() error {
		callCtx, cancel := db.WithTimeout(ctx, s.timeout)
		defer cancel()
		var err error
		ids, err = s.leaseRepo.ListBillableIDs(callCtx, s.db, leasedomain.ActiveFilter{
			PeriodStart: period.Start(),
			PeriodEnd:   period.End(),
			LandlordID:  landlordID,
		})
		return err
	})
	return ids, err
}

func (s *Service) loadLease(ctx context.Context, id snowflake.ID) (*leasedomain.Lease, error) {
	var lease *leasedomain.Lease
	err := s.withRetry(ctx, func() error {
		callCtx, cancel := db.WithTimeout(ctx, s.timeout)
		defer cancel()
		var err error
		lease, err = s.leaseRepo.FindByID(callCtx, s.db, id)
		return err
	})
	return lease, err
}

// generateForLease reports the new payment id and true when this call
// created the rent payment, or false when the period was already billed.
// A lease that cannot be read or fails validation is an error for that
// lease only.
func (s *Service) generateForLease(ctx context.Context, leaseID snowflake.ID, period billingperiod.Period) (snowflake.ID, bool, error) {
	lease, err := s.loadLease(ctx, leaseID)
	if err != nil {
		return 0, false, err
	}
	if err := lease.Validate(); err != nil {
		return 0, false, err
	}
	dueDate, err := billingperiod.ResolveDueDate(lease.PaymentDueDay, period.Month, period.Year)
	if err != nil {
		return 0, false, err
	}

	now := s.clock.Now().UTC()
	payment := paymentdomain.Payment{
		ID:           s.genID.Generate(),
		LeaseID:      &leaseID,
		PropertyID:   lease.PropertyID,
		TenantID:     lease.TenantID,
		LandlordID:   lease.LandlordID,
		Amount:       lease.RentAmount,
		Type:         paymentdomain.PaymentTypeRent,
		BillingMonth: period.Month,
		BillingYear:  period.Year,
		Status:       paymentdomain.PaymentStatusPending,
		DueDate:      dueDate,
		Description:  fmt.Sprintf("Rent %s", period.String()),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var inserted bool
	err = s.withRetry(ctx, func() error {
		callCtx, cancel := db.WithTimeout(ctx, s.timeout)
		defer cancel()
		return db.Classify(s.db.WithContext(callCtx).Transaction(func(tx *gorm.DB) error {
			var err error
			inserted, err = s.paymentRepo.Insert(callCtx, tx, &payment)
			if err != nil || !inserted {
				return err
			}
			if err := s.ledgerSvc.PostCharge(callCtx, tx, ledgerdomain.Posting{
				LandlordID:  payment.LandlordID,
				SourceID:    payment.ID,
				PaymentType: string(payment.Type),
				Amount:      payment.Amount,
				OccurredAt:  now,
			}); err != nil {
				return err
			}
			return s.publishGenerated(callCtx, tx, &payment, period)
		}))
	})
	if err != nil {
		return 0, false, err
	}
	return payment.ID, inserted, nil
}

func (s *Service) publishGenerated(ctx context.Context, tx *gorm.DB, payment *paymentdomain.Payment, period billingperiod.Period) error {
	if s.outbox == nil {
		return nil
	}
	payload := events.PaymentPayload{
		PaymentID: payment.ID.String(),
		LeaseID:   payment.LeaseID.String(),
		TenantID:  payment.TenantID.String(),
		Type:      string(payment.Type),
		Amount:    payment.Amount.String(),
		Period:    period.String(),
		Status:    string(payment.Status),
	}
	return s.outbox.PublishTx(ctx, tx, events.Event{
		LandlordID: payment.LandlordID,
		Type:       events.EventPaymentGenerated,
		Payload:    payload.ToMap(),
		DedupeKey:  events.DedupeKey(events.EventPaymentGenerated, payment.ID.String()),
	})
}

// withRetry repeats fn while it fails with a transient storage error.
func (s *Service) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !db.IsTransient(err) || attempt >= s.retries {
			return err
		}
		if s.retryBackoff > 0 {
			timer := time.NewTimer(s.retryBackoff * time.Duration(attempt+1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return errors.Join(err, ctx.Err())
			case <-timer.C:
			}
		}
	}
}

func landlordScope(actor authorization.Actor) snowflake.ID {
	if actor.Type == authorization.ActorTypeLandlord {
		return actor.ID
	}
	return 0
}
