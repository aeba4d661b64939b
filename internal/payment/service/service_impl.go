package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/authorization"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/billingperiod"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/clock"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/config"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/events"
	leasedomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/lease/domain"
	ledgerdomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/ledger/domain"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/observability/logger"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/observability/metrics"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/observability/tracing"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/payment/adapters"
	paymentdomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/payment/domain"
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

const (
	maxReceiptAttempts = 3
	stuckBatchDefault  = 100
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Cfg       config.Config
	Repo      paymentdomain.Repository
	LeaseRepo leasedomain.Repository
	LedgerSvc ledgerdomain.Service
	Outbox    *events.Outbox
	Authz     authorization.Service
	Adapters  *adapters.Registry
	Metrics   *metrics.BillingMetrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        paymentdomain.Repository
	leaseRepo   leasedomain.Repository
	ledgerSvc   ledgerdomain.Service
	outbox      *events.Outbox
	authz       authorization.Service
	adapters    *adapters.Registry
	metrics     *metrics.BillingMetrics
	tracer      trace.Tracer
	provider    string
	maxAttempts int
	stuckAfter  time.Duration
	batchSize   int
	timeout     time.Duration
}

func NewService(p Params) paymentdomain.Service {
	batchSize := p.Cfg.Scheduler.BatchSize
	if batchSize <= 0 {
		batchSize = stuckBatchDefault
	}
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("payment.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		leaseRepo:   p.LeaseRepo,
		ledgerSvc:   p.LedgerSvc,
		outbox:      p.Outbox,
		authz:       p.Authz,
		adapters:    p.Adapters,
		metrics:     p.Metrics,
		tracer:      otel.Tracer("propertyhub/payment"),
		provider:    p.Cfg.Payments.Gateway,
		maxAttempts: p.Cfg.Payments.MaxAttempts,
		stuckAfter:  p.Cfg.Payments.ProcessingTimeout,
		batchSize:   batchSize,
		timeout:     p.Cfg.Database.QueryTimeout,
	}
}

func (s *Service) CreateCharge(ctx context.Context, req paymentdomain.CreateChargeRequest) (*paymentdomain.Payment, error) {
	if !req.Type.Valid() {
		return nil, paymentdomain.ErrInvalidType
	}
	if !req.Amount.IsPositive() {
		return nil, paymentdomain.ErrInvalidAmount
	}
	if req.DueDate.IsZero() {
		return nil, paymentdomain.ErrInvalidPayment
	}
	if req.Type == paymentdomain.PaymentTypeRent && req.LeaseID == nil {
		return nil, paymentdomain.ErrInvalidPayment
	}

	period := billingperiod.Of(req.DueDate)
	if req.BillingYear != 0 {
		var err error
		period, err = billingperiod.New(req.BillingMonth, req.BillingYear)
		if err != nil {
			return nil, err
		}
	}

	payment := paymentdomain.Payment{
		ID:           s.genID.Generate(),
		LeaseID:      req.LeaseID,
		PropertyID:   req.PropertyID,
		TenantID:     req.TenantID,
		LandlordID:   req.LandlordID,
		Amount:       req.Amount,
		Type:         req.Type,
		BillingMonth: period.Month,
		BillingYear:  period.Year,
		Status:       paymentdomain.PaymentStatusPending,
		DueDate:      req.DueDate.UTC(),
		Description:  strings.TrimSpace(req.Description),
	}
	if req.Actor.Type == authorization.ActorTypeLandlord && payment.LandlordID == 0 {
		payment.LandlordID = req.Actor.ID
	}

	if req.LeaseID != nil {
		lease, err := s.findLease(ctx, *req.LeaseID)
		if err != nil {
			return nil, err
		}
		payment.PropertyID = lease.PropertyID
		payment.TenantID = lease.TenantID
		if payment.LandlordID != 0 && payment.LandlordID != lease.LandlordID {
			return nil, authorization.ErrForbidden
		}
		payment.LandlordID = lease.LandlordID
	}
	if payment.PropertyID == 0 || payment.TenantID == 0 || payment.LandlordID == 0 {
		return nil, paymentdomain.ErrInvalidPayment
	}

	if err := s.authz.Authorize(ctx, req.Actor, authorization.Resource{
		Object:     authorization.ObjectPayment,
		LandlordID: payment.LandlordID,
		TenantID:   payment.TenantID,
	}, authorization.ActionPaymentCreate); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	payment.CreatedAt = now
	payment.UpdatedAt = now

	ctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted, err := s.repo.Insert(ctx, tx, &payment)
		if err != nil {
			return err
		}
		if !inserted {
			return paymentdomain.ErrDuplicatePayment
		}
		if err := s.ledgerSvc.PostCharge(ctx, tx, postingFor(&payment, now)); err != nil {
			return err
		}
		return s.publish(ctx, tx, events.EventPaymentCreated, &payment, "")
	})
	if err != nil {
		return nil, db.Classify(err)
	}

	s.log.Info("charge created",
		zap.String("payment_id", payment.ID.String()),
		zap.String("type", string(payment.Type)),
		zap.String("period", period.String()),
	)
	return &payment, nil
}

func (s *Service) GetByID(ctx context.Context, actor authorization.Actor, id snowflake.ID) (*paymentdomain.Payment, error) {
	payment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizePayment(ctx, actor, payment, authorization.ActionPaymentRead); err != nil {
		return nil, err
	}
	payment.Overdue = payment.IsOverdue(s.clock.Now())
	return payment, nil
}

// List scopes results to the actor: landlords see their portfolio, tenants
// their own obligations.
func (s *Service) List(ctx context.Context, req paymentdomain.ListRequest) ([]paymentdomain.Payment, error) {
	resource := authorization.Resource{Object: authorization.ObjectPayment}
	filter := paymentdomain.ListFilter{
		Status: req.Status,
		Type:   req.Type,
		Now:    s.clock.Now().UTC(),
		Limit:  req.Limit,
	}
	switch req.Actor.Type {
	case authorization.ActorTypeLandlord:
		resource.LandlordID = req.Actor.ID
		filter.LandlordID = req.Actor.ID
	case authorization.ActorTypeTenant:
		resource.TenantID = req.Actor.ID
		filter.TenantID = req.Actor.ID
	}
	if err := s.authz.Authorize(ctx, req.Actor, resource, authorization.ActionPaymentRead); err != nil {
		return nil, err
	}

	ctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()

	payments, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}
	for i := range payments {
		payments[i].Overdue = payments[i].IsOverdue(filter.Now)
	}
	return payments, nil
}

// SubmitPayment runs one settlement attempt. The pending/failed -> processing
// transition is claimed first; a caller that loses it never reaches the
// gateway.
func (s *Service) SubmitPayment(ctx context.Context, req paymentdomain.SubmitRequest) (*paymentdomain.Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "payment.submit")
	defer span.End()
	span.SetAttributes(tracing.SafeAttributes(attribute.String("payment.id", req.PaymentID.String()))...)

	outcome, err := s.submit(ctx, req)
	if err != nil {
		span.RecordError(tracing.SafeError(err))
		span.SetStatus(codes.Error, "submit failed")
		return nil, err
	}
	span.SetAttributes(attribute.String("payment.status", string(outcome.Status)))
	return outcome, nil
}

func (s *Service) submit(ctx context.Context, req paymentdomain.SubmitRequest) (*paymentdomain.Outcome, error) {
	if req.PaymentID == 0 {
		return nil, paymentdomain.ErrInvalidPayment
	}
	if err := req.Card.Validate(); err != nil {
		return nil, err
	}
	if err := req.Actor.Validate(); err != nil {
		return nil, err
	}
	gateway, err := s.adapters.NewGateway(s.provider, paymentdomain.GatewayConfig{})
	if err != nil {
		return nil, err
	}

	payment, err := s.load(ctx, req.PaymentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizePayment(ctx, req.Actor, payment, authorization.ActionPaymentSubmit); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	won, err := s.beginAttempt(ctx, req.PaymentID, now)
	if err != nil {
		return nil, err
	}
	if !won {
		s.metrics.IncSettlementConflict()
		return nil, s.explainLostAttempt(ctx, req.PaymentID)
	}
	payment.Status = paymentdomain.PaymentStatusProcessing
	payment.AttemptCount++

	// The attempt is ours now; finish it even if the caller goes away so the
	// payment does not sit in processing until the timeout sweep.
	finishCtx := context.WithoutCancel(ctx)

	result, chargeErr := gateway.Charge(ctx, paymentdomain.ChargeRequest{
		PaymentID: payment.ID,
		Amount:    payment.Amount,
		Card:      req.Card,
		Now:       now,
	})
	if chargeErr != nil {
		s.log.Warn("gateway error",
			zap.String("payment_id", payment.ID.String()),
			zap.String("provider", gateway.Provider()),
			zap.Error(chargeErr),
		)
		if _, err := s.fail(finishCtx, payment, paymentdomain.ReasonGatewayError, now); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", paymentdomain.ErrGatewayUnavailable, chargeErr)
	}

	var outcome *paymentdomain.Outcome
	if result.Approved {
		outcome, err = s.settle(finishCtx, payment, now)
	} else {
		outcome, err = s.fail(finishCtx, payment, result.Reason, now)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.IncSettlement(string(outcome.Status), outcome.Reason)
	s.log.Info("payment attempt finished",
		zap.String("payment_id", payment.ID.String()),
		zap.String("status", string(outcome.Status)),
		zap.String("reason", outcome.Reason),
		zap.String("card", logger.MaskCardNumber(req.Card.CardNumber)),
	)
	return outcome, nil
}

func (s *Service) beginAttempt(ctx context.Context, id snowflake.ID, now time.Time) (bool, error) {
	ctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.repo.BeginAttempt(ctx, s.db, id, now, s.maxAttempts)
}

// explainLostAttempt reloads the payment to tell the caller why the
// processing transition was not available.
func (s *Service) explainLostAttempt(ctx context.Context, id snowflake.ID) error {
	current, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	switch {
	case current.Status.IsTerminal():
		return paymentdomain.ErrPaymentSettled
	case current.Status.CanAttempt():
		if s.maxAttempts > 0 && current.AttemptCount >= s.maxAttempts {
			return paymentdomain.ErrAttemptsExhausted
		}
	}
	return paymentdomain.ErrConflict
}

// settle mints a receipt and records processing -> paid together with the
// cash posting and the settled event. A receipt collision retries with a
// fresh number.
func (s *Service) settle(ctx context.Context, payment *paymentdomain.Payment, now time.Time) (*paymentdomain.Outcome, error) {
	if err := paymentdomain.CanTransition(payment.Status, paymentdomain.PaymentStatusPaid); err != nil {
		return nil, err
	}
	var lastErr error
	for attempt := 0; attempt < maxReceiptAttempts; attempt++ {
		receipt := s.ledgerSvc.MintReceiptNumber(payment.ID)
		err := s.inTx(ctx, func(tx *gorm.DB) error {
			ok, err := s.repo.MarkPaid(ctx, tx, payment.ID, now, receipt)
			if err != nil {
				return err
			}
			if !ok {
				return paymentdomain.ErrConflict
			}
			if err := s.ledgerSvc.PostSettlement(ctx, tx, postingFor(payment, now)); err != nil {
				return err
			}
			payment.Status = paymentdomain.PaymentStatusPaid
			payment.ReceiptNumber = &receipt
			return s.publish(ctx, tx, events.EventPaymentSettled, payment, "")
		})
		if err == nil {
			return s.outcome(ctx, payment.ID, "", receipt)
		}
		if !db.IsDuplicateKey(err) {
			return nil, err
		}
		lastErr = err
		s.log.Warn("receipt number collision, retrying", zap.String("payment_id", payment.ID.String()))
	}
	return nil, lastErr
}

func (s *Service) fail(ctx context.Context, payment *paymentdomain.Payment, reason string, now time.Time) (*paymentdomain.Outcome, error) {
	return s.failWith(ctx, payment, reason, func(tx *gorm.DB) (bool, error) {
		return s.repo.MarkFailed(ctx, tx, payment.ID, reason, now)
	})
}

// failWith records processing -> failed through mark and publishes the
// failed event in the same transaction. A false from mark is a conflict.
func (s *Service) failWith(ctx context.Context, payment *paymentdomain.Payment, reason string, mark func(tx *gorm.DB) (bool, error)) (*paymentdomain.Outcome, error) {
	if err := paymentdomain.CanTransition(payment.Status, paymentdomain.PaymentStatusFailed); err != nil {
		return nil, err
	}
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		ok, err := mark(tx)
		if err != nil {
			return err
		}
		if !ok {
			return paymentdomain.ErrConflict
		}
		payment.Status = paymentdomain.PaymentStatusFailed
		return s.publish(ctx, tx, events.EventPaymentFailed, payment, reason)
	})
	if err != nil {
		return nil, err
	}
	return s.outcome(ctx, payment.ID, reason, "")
}

func (s *Service) outcome(ctx context.Context, id snowflake.ID, reason, receipt string) (*paymentdomain.Outcome, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	current.Overdue = current.IsOverdue(s.clock.Now())
	return &paymentdomain.Outcome{
		Status:        current.Status,
		Reason:        reason,
		ReceiptNumber: receipt,
		Payment:       current,
	}, nil
}

// Delete soft-deletes a pending or failed payment. A deleted rent payment
// no longer blocks generation for its period.
func (s *Service) Delete(ctx context.Context, actor authorization.Actor, id snowflake.ID) error {
	payment, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizePayment(ctx, actor, payment, authorization.ActionPaymentDelete); err != nil {
		return err
	}
	switch {
	case payment.Status.IsTerminal():
		return paymentdomain.ErrPaymentSettled
	case !payment.Status.CanAttempt():
		return paymentdomain.ErrConflict
	}

	now := s.clock.Now().UTC()
	err = s.inTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.repo.SoftDelete(ctx, tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return paymentdomain.ErrConflict
		}
		if err := s.ledgerSvc.PostReversal(ctx, tx, postingFor(payment, now)); err != nil {
			return err
		}
		return s.publish(ctx, tx, events.EventPaymentDeleted, payment, "")
	})
	if err != nil {
		return err
	}

	s.log.Info("payment deleted",
		zap.String("payment_id", id.String()),
		zap.String("actor", actor.String()),
	)
	return nil
}

// FailStuckPayments moves attempts that have been processing longer than
// the configured timeout to failed, so they can be retried.
func (s *Service) FailStuckPayments(ctx context.Context) (int, error) {
	if s.stuckAfter <= 0 {
		return 0, nil
	}
	now := s.clock.Now().UTC()
	cutoff := now.Add(-s.stuckAfter)

	listCtx, cancel := db.WithTimeout(ctx, s.timeout)
	stuck, err := s.repo.ListStuckProcessing(listCtx, s.db, cutoff, s.batchSize)
	cancel()
	if err != nil {
		return 0, err
	}

	failed := 0
	for i := range stuck {
		payment := &stuck[i]
		_, err := s.failWith(ctx, payment, paymentdomain.ReasonProcessingTimeout, func(tx *gorm.DB) (bool, error) {
			return s.repo.MarkTimedOut(ctx, tx, payment.ID, cutoff, now)
		})
		if err != nil {
			if errors.Is(err, paymentdomain.ErrConflict) {
				continue
			}
			return failed, err
		}
		failed++
	}

	if failed > 0 {
		s.metrics.AddStuckFailed(failed)
		s.log.Warn("failed stuck payments", zap.Int("count", failed))
	}
	return failed, nil
}

func (s *Service) load(ctx context.Context, id snowflake.ID) (*paymentdomain.Payment, error) {
	if id == 0 {
		return nil, paymentdomain.ErrNotFound
	}
	ctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.repo.FindByID(ctx, s.db, id)
}

func (s *Service) findLease(ctx context.Context, id snowflake.ID) (*leasedomain.Lease, error) {
	ctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.leaseRepo.FindByID(ctx, s.db, id)
}

func (s *Service) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	ctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()
	return db.Classify(s.db.WithContext(ctx).Transaction(fn))
}

func (s *Service) authorizePayment(ctx context.Context, actor authorization.Actor, payment *paymentdomain.Payment, action string) error {
	return s.authz.Authorize(ctx, actor, authorization.Resource{
		Object:     authorization.ObjectPayment,
		LandlordID: payment.LandlordID,
		TenantID:   payment.TenantID,
	}, action)
}

func (s *Service) publish(ctx context.Context, tx *gorm.DB, eventType string, payment *paymentdomain.Payment, reason string) error {
	if s.outbox == nil {
		return nil
	}
	payload := events.PaymentPayload{
		PaymentID: payment.ID.String(),
		TenantID:  payment.TenantID.String(),
		Type:      string(payment.Type),
		Amount:    payment.Amount.String(),
		Period:    billingperiod.Period{Month: payment.BillingMonth, Year: payment.BillingYear}.String(),
		Status:    string(payment.Status),
		Reason:    reason,
	}
	if payment.LeaseID != nil {
		payload.LeaseID = payment.LeaseID.String()
	}
	if payment.ReceiptNumber != nil {
		payload.ReceiptNumber = *payment.ReceiptNumber
	}

	// Failures can repeat for one payment, so only their first occurrence
	// per attempt is collapsed.
	dedupe := events.DedupeKey(eventType, payment.ID.String())
	if eventType == events.EventPaymentFailed {
		dedupe = fmt.Sprintf("%s:%d", dedupe, payment.AttemptCount)
	}
	return s.outbox.PublishTx(ctx, tx, events.Event{
		LandlordID: payment.LandlordID,
		Type:       eventType,
		Payload:    payload.ToMap(),
		DedupeKey:  dedupe,
	})
}

func postingFor(payment *paymentdomain.Payment, occurredAt time.Time) ledgerdomain.Posting {
	return ledgerdomain.Posting{
		LandlordID:  payment.LandlordID,
		SourceID:    payment.ID,
		PaymentType: string(payment.Type),
		Amount:      payment.Amount,
		OccurredAt:  occurredAt,
	}
}
