// Package domain holds the lease records the billing engine reads. Leases
// are written by the property management surfaces; billing never changes
// their status.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// LeaseStatus represents where a lease is in its signing/term lifecycle.
type LeaseStatus string

const (
	LeaseStatusDraft      LeaseStatus = "draft"
	LeaseStatusActive     LeaseStatus = "active"
	LeaseStatusExpired    LeaseStatus = "expired"
	LeaseStatusTerminated LeaseStatus = "terminated"
)

// Lease binds a tenant to a property at a monthly rent.
// A nil EndDate means the lease runs month to month.
type Lease struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	PropertyID    snowflake.ID    `gorm:"not null" json:"property_id"`
	TenantID      snowflake.ID    `gorm:"not null" json:"tenant_id"`
	LandlordID    snowflake.ID    `gorm:"not null;index" json:"landlord_id"`
	RentAmount    decimal.Decimal `gorm:"type:numeric;not null" json:"rent_amount"`
	PaymentDueDay int             `gorm:"not null" json:"payment_due_day"`
	Status        LeaseStatus     `gorm:"type:text;not null;default:'draft'" json:"status"`
	StartDate     time.Time       `gorm:"not null" json:"start_date"`
	EndDate       *time.Time      `json:"end_date,omitempty"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Lease) TableName() string { return "leases" }

// Overlaps reports whether the lease term intersects [start, end).
func (l Lease) Overlaps(start, end time.Time) bool {
	if !l.StartDate.Before(end) {
		return false
	}
	if l.EndDate != nil && l.EndDate.Before(start) {
		return false
	}
	return true
}

// Validate checks the fields rent generation depends on.
func (l Lease) Validate() error {
	if l.ID == 0 {
		return ErrInvalidLease
	}
	if l.TenantID == 0 || l.PropertyID == 0 || l.LandlordID == 0 {
		return ErrMissingParty
	}
	if !l.RentAmount.IsPositive() {
		return ErrInvalidRentAmount
	}
	if l.PaymentDueDay < 1 || l.PaymentDueDay > 31 {
		return ErrInvalidDueDay
	}
	if l.StartDate.IsZero() {
		return ErrInvalidTerm
	}
	if l.EndDate != nil && l.EndDate.Before(l.StartDate) {
		return ErrInvalidTerm
	}
	return nil
}
