package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// LedgerEntryDirection represents debit or credit postings.
type LedgerEntryDirection string

const (
	LedgerEntryDirectionDebit  LedgerEntryDirection = "debit"
	LedgerEntryDirectionCredit LedgerEntryDirection = "credit"
)

const (
	SourceTypeCharge     = "payment_charge"
	SourceTypeSettlement = "payment_settlement"
	SourceTypeReversal   = "payment_reversal"
)

const (
	AccountCodeAccountsReceivable = "accounts_receivable"
	AccountCodeRentRevenue        = "rent_revenue"
	AccountCodeDepositsHeld       = "deposits_held"
	AccountCodeOtherIncome        = "other_income"
	AccountCodeCashClearing       = "cash_clearing"
)

var accountNames = map[string]string{
	AccountCodeAccountsReceivable: "Accounts Receivable",
	AccountCodeRentRevenue:        "Rent Revenue",
	AccountCodeDepositsHeld:       "Security Deposits Held",
	AccountCodeOtherIncome:        "Other Income",
	AccountCodeCashClearing:       "Cash / Clearing",
}

// AccountName returns the display name for a chart-of-accounts code.
func AccountName(code string) string {
	return accountNames[code]
}

// ChargeAccountFor maps a payment type to the account credited when the
// charge is raised.
func ChargeAccountFor(paymentType string) string {
	switch paymentType {
	case "rent":
		return AccountCodeRentRevenue
	case "deposit":
		return AccountCodeDepositsHeld
	default:
		return AccountCodeOtherIncome
	}
}

// LedgerAccount defines a chart-of-accounts entry per landlord.
type LedgerAccount struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	LandlordID snowflake.ID `gorm:"not null;uniqueIndex:ux_ledger_accounts_landlord_code,priority:1"`
	Code       string       `gorm:"type:text;not null;uniqueIndex:ux_ledger_accounts_landlord_code,priority:2"`
	Name       string       `gorm:"type:text;not null"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (LedgerAccount) TableName() string { return "ledger_accounts" }

// LedgerEntry is the immutable header for a financial event. One entry
// exists per (SourceType, SourceID).
type LedgerEntry struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	LandlordID snowflake.ID `gorm:"not null"`
	SourceType string       `gorm:"type:text;not null"`
	SourceID   snowflake.ID `gorm:"not null"`
	OccurredAt time.Time    `gorm:"not null"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (LedgerEntry) TableName() string { return "ledger_entries" }

// LedgerEntryLine is a double-entry posting line.
type LedgerEntryLine struct {
	ID            snowflake.ID         `gorm:"primaryKey"`
	LedgerEntryID snowflake.ID         `gorm:"not null;index"`
	AccountID     snowflake.ID         `gorm:"not null"`
	Direction     LedgerEntryDirection `gorm:"type:text;not null"`
	Amount        decimal.Decimal      `gorm:"type:numeric;not null"`
	CreatedAt     time.Time            `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (LedgerEntryLine) TableName() string { return "ledger_entry_lines" }

// Summary is a read-only projection over persisted payments.
type Summary struct {
	TotalPaid       decimal.Decimal `json:"total_paid"`
	PaidCount       int64           `json:"paid_count"`
	PendingAmount   decimal.Decimal `json:"pending_amount"`
	PendingCount    int64           `json:"pending_count"`
	OverdueAmount   decimal.Decimal `json:"overdue_amount"`
	OverdueCount    int64           `json:"overdue_count"`
	ProcessingCount int64           `json:"processing_count"`
	FailedCount     int64           `json:"failed_count"`
	AsOf            time.Time       `json:"as_of"`
}
