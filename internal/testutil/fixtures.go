package testutil

import (
	"testing"
	"time"

	leasedomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/lease/domain"
	paymentdomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/payment/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	LandlordID snowflake.ID = 1001
	TenantID   snowflake.ID = 2001
	PropertyID snowflake.ID = 3001
)

// LeaseOption adjusts a fixture lease before it is stored.
type LeaseOption func(*leasedomain.Lease)

func WithRent(amount string) LeaseOption {
	return func(l *leasedomain.Lease) { l.RentAmount = decimal.RequireFromString(amount) }
}

func WithDueDay(day int) LeaseOption {
	return func(l *leasedomain.Lease) { l.PaymentDueDay = day }
}

func WithStatus(status leasedomain.LeaseStatus) LeaseOption {
	return func(l *leasedomain.Lease) { l.Status = status }
}

func WithTerm(start time.Time, end *time.Time) LeaseOption {
	return func(l *leasedomain.Lease) {
		l.StartDate = start
		l.EndDate = end
	}
}

func WithParties(landlordID, tenantID snowflake.ID) LeaseOption {
	return func(l *leasedomain.Lease) {
		l.LandlordID = landlordID
		l.TenantID = tenantID
	}
}

// InsertLease stores an active, open-ended lease starting 2024-01-01 at
// 1500.00 due on the 1st, adjusted by opts.
func InsertLease(t *testing.T, conn *gorm.DB, node *snowflake.Node, opts ...LeaseOption) leasedomain.Lease {
	t.Helper()
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	lease := leasedomain.Lease{
		ID:            node.Generate(),
		PropertyID:    PropertyID,
		TenantID:      TenantID,
		LandlordID:    LandlordID,
		RentAmount:    decimal.RequireFromString("1500.00"),
		PaymentDueDay: 1,
		Status:        leasedomain.LeaseStatusActive,
		StartDate:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, opt := range opts {
		opt(&lease)
	}
	if err := conn.Create(&lease).Error; err != nil {
		t.Fatalf("insert lease: %v", err)
	}
	return lease
}

// InsertPayment stores a pending payment with the given type and due date.
func InsertPayment(t *testing.T, conn *gorm.DB, node *snowflake.Node, paymentType paymentdomain.PaymentType, amount string, dueDate time.Time) paymentdomain.Payment {
	t.Helper()
	payment := paymentdomain.Payment{
		ID:           node.Generate(),
		PropertyID:   PropertyID,
		TenantID:     TenantID,
		LandlordID:   LandlordID,
		Amount:       decimal.RequireFromString(amount),
		Type:         paymentType,
		BillingMonth: int(dueDate.Month()) - 1,
		BillingYear:  dueDate.Year(),
		Status:       paymentdomain.PaymentStatusPending,
		DueDate:      dueDate,
		CreatedAt:    dueDate,
		UpdatedAt:    dueDate,
	}
	if paymentType == paymentdomain.PaymentTypeRent {
		leaseID := node.Generate()
		payment.LeaseID = &leaseID
	}
	if err := conn.Create(&payment).Error; err != nil {
		t.Fatalf("insert payment: %v", err)
	}
	return payment
}
