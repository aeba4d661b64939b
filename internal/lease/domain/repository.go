package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ActiveFilter selects leases billable within [PeriodStart, PeriodEnd).
// A non-zero LandlordID narrows the set to one landlord's portfolio.
type ActiveFilter struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	LandlordID  snowflake.ID
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, lease *Lease) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Lease, error)
	ListBillableIDs(ctx context.Context, db *gorm.DB, filter ActiveFilter) ([]snowflake.ID, error)
}

var (
	ErrNotFound          = errors.New("lease_not_found")
	ErrInvalidLease      = errors.New("invalid_lease")
	ErrMissingParty      = errors.New("lease_missing_party")
	ErrInvalidRentAmount = errors.New("invalid_rent_amount")
	ErrInvalidDueDay     = errors.New("invalid_payment_due_day")
	ErrInvalidTerm       = errors.New("invalid_lease_term")
)
