package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Posting describes one payment-driven ledger event.
type Posting struct {
	LandlordID  snowflake.ID
	SourceID    snowflake.ID
	PaymentType string
	Amount      decimal.Decimal
	OccurredAt  time.Time
}

// SummaryFilter scopes a summary to one landlord or tenant. Zero ids mean
// all payments.
type SummaryFilter struct {
	LandlordID snowflake.ID
	TenantID   snowflake.ID
}

// Service mints receipts, writes balanced postings and derives totals.
// Postings take the caller's transaction so they commit with the payment
// change that caused them.
type Service interface {
	MintReceiptNumber(paymentID snowflake.ID) string
	PostCharge(ctx context.Context, tx *gorm.DB, posting Posting) error
	PostSettlement(ctx context.Context, tx *gorm.DB, posting Posting) error
	PostReversal(ctx context.Context, tx *gorm.DB, posting Posting) error
	CreateEntry(
		ctx context.Context,
		tx *gorm.DB,
		landlordID snowflake.ID,
		sourceType string,
		sourceID snowflake.ID,
		occurredAt time.Time,
		lines []LedgerEntryLine,
	) error
	Summarize(ctx context.Context, filter SummaryFilter) (Summary, error)
}

var (
	ErrInvalidLandlord      = errors.New("invalid_landlord")
	ErrInvalidSourceType    = errors.New("invalid_source_type")
	ErrInvalidSourceID      = errors.New("invalid_source_id")
	ErrInvalidOccurredAt    = errors.New("invalid_occurred_at")
	ErrInvalidEntryLines    = errors.New("invalid_entry_lines")
	ErrInvalidLineAmount    = errors.New("invalid_line_amount")
	ErrInvalidLineDirection = errors.New("invalid_line_direction")
	ErrInvalidAccount       = errors.New("invalid_account")
	ErrUnbalancedEntry      = errors.New("unbalanced_entry")
)
