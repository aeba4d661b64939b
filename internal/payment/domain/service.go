package domain

import (
	"context"
	"errors"
	"time"

	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/authorization"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Service interface {
	CreateCharge(ctx context.Context, req CreateChargeRequest) (*Payment, error)
	GetByID(ctx context.Context, actor authorization.Actor, id snowflake.ID) (*Payment, error)
	List(ctx context.Context, req ListRequest) ([]Payment, error)
	SubmitPayment(ctx context.Context, req SubmitRequest) (*Outcome, error)
	Delete(ctx context.Context, actor authorization.Actor, id snowflake.ID) error
	FailStuckPayments(ctx context.Context) (int, error)
}

// CreateChargeRequest is a landlord-entered charge. LeaseID is required
// for rent and optional otherwise; when set, the parties come from the
// lease. A zero BillingYear derives the billing period from DueDate.
type CreateChargeRequest struct {
	Actor        authorization.Actor
	LeaseID      *snowflake.ID
	PropertyID   snowflake.ID
	TenantID     snowflake.ID
	LandlordID   snowflake.ID
	Amount       decimal.Decimal
	Type         PaymentType
	BillingMonth int
	BillingYear  int
	DueDate      time.Time
	Description  string
}

type ListRequest struct {
	Actor  authorization.Actor
	Status string
	Type   PaymentType
	Limit  int
}

type SubmitRequest struct {
	Actor     authorization.Actor
	PaymentID snowflake.ID
	Card      CardInput
}

// Outcome is the result of a settlement attempt.
type Outcome struct {
	Status        PaymentStatus `json:"status"`
	Reason        string        `json:"reason,omitempty"`
	ReceiptNumber string        `json:"receipt_number,omitempty"`
	Payment       *Payment      `json:"payment"`
}

var (
	ErrInvalidPayment     = errors.New("invalid_payment")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrInvalidType        = errors.New("invalid_payment_type")
	ErrInvalidStatus      = errors.New("invalid_status_filter")
	ErrInvalidCard        = errors.New("invalid_card_input")
	ErrNotFound           = errors.New("payment_not_found")
	ErrConflict           = errors.New("payment already being processed")
	ErrInvalidTransition  = errors.New("invalid_status_transition")
	ErrPaymentSettled     = errors.New("payment_already_settled")
	ErrDuplicatePayment   = errors.New("duplicate_payment")
	ErrAttemptsExhausted  = errors.New("payment_attempts_exhausted")
	ErrGatewayNotFound    = errors.New("gateway_not_found")
	ErrGatewayUnavailable = errors.New("gateway_unavailable")
)
