// Package domain defines payments, their settlement state machine and the
// contracts the generation job, gateway simulator and HTTP layer share.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentStatus is the stored settlement state. Overdue is never stored.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusPaid       PaymentStatus = "paid"
	PaymentStatusFailed     PaymentStatus = "failed"
)

// StatusOverdue is the derived status accepted by list filters.
const StatusOverdue = "overdue"

// PaymentType classifies what a payment is for.
type PaymentType string

const (
	PaymentTypeRent        PaymentType = "rent"
	PaymentTypeDeposit     PaymentType = "deposit"
	PaymentTypeUtilities   PaymentType = "utilities"
	PaymentTypeMaintenance PaymentType = "maintenance"
	PaymentTypeLateFee     PaymentType = "late_fee"
	PaymentTypeOther       PaymentType = "other"
)

// Failure reasons recorded on failed payments.
const (
	ReasonCardDeclined      = "card declined"
	ReasonInsufficientFunds = "insufficient funds"
	ReasonCardExpired       = "card expired"
	ReasonInvalidCard       = "invalid card"
	ReasonProcessingTimeout = "processing timed out"
	ReasonGatewayError      = "gateway unavailable"
)

// Payment is a single obligation owed by a tenant to a landlord.
// For rent, (LeaseID, BillingYear, BillingMonth) is unique among
// non-deleted rows.
type Payment struct {
	ID                  snowflake.ID    `gorm:"primaryKey" json:"id"`
	LeaseID             *snowflake.ID   `json:"lease_id,omitempty"`
	PropertyID          snowflake.ID    `gorm:"not null" json:"property_id"`
	TenantID            snowflake.ID    `gorm:"not null;index" json:"tenant_id"`
	LandlordID          snowflake.ID    `gorm:"not null;index" json:"landlord_id"`
	Amount              decimal.Decimal `gorm:"type:numeric;not null" json:"amount"`
	Type                PaymentType     `gorm:"type:text;not null" json:"type"`
	BillingMonth        int             `gorm:"not null" json:"billing_month"`
	BillingYear         int             `gorm:"not null" json:"billing_year"`
	Status              PaymentStatus   `gorm:"type:text;not null;default:'pending'" json:"status"`
	DueDate             time.Time       `gorm:"not null" json:"due_date"`
	PaidDate            *time.Time      `json:"paid_date,omitempty"`
	ReceiptNumber       *string         `gorm:"type:text" json:"receipt_number,omitempty"`
	FailureReason       *string         `gorm:"type:text" json:"failure_reason,omitempty"`
	AttemptCount        int             `gorm:"not null;default:0" json:"attempt_count"`
	ProcessingStartedAt *time.Time      `json:"-"`
	Description         string          `gorm:"type:text;not null;default:''" json:"description,omitempty"`
	CreatedAt           time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt           gorm.DeletedAt  `gorm:"index" json:"-"`

	// Overdue is derived at read time, see IsOverdue.
	Overdue bool `gorm:"-" json:"overdue"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// IsOverdue reports whether the payment is still pending past its due date.
func (p Payment) IsOverdue(now time.Time) bool {
	return p.Status == PaymentStatusPending && p.DueDate.Before(now)
}

func (t PaymentType) Valid() bool {
	switch t {
	case PaymentTypeRent, PaymentTypeDeposit, PaymentTypeUtilities,
		PaymentTypeMaintenance, PaymentTypeLateFee, PaymentTypeOther:
		return true
	}
	return false
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusProcessing, PaymentStatusPaid, PaymentStatusFailed:
		return true
	}
	return false
}
