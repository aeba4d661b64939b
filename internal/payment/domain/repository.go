package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ListFilter narrows payment listings. Status accepts a stored status or
// StatusOverdue, which is evaluated against Now.
type ListFilter struct {
	Status     string
	TenantID   snowflake.ID
	LandlordID snowflake.ID
	LeaseID    snowflake.ID
	Type       PaymentType
	Now        time.Time
	Limit      int
}

// Repository is the only writer of status, paid_date and receipt_number.
// Every transition is a conditional update; the bool result reports
// whether this caller won it.
type Repository interface {
	// Insert skips rows that collide with a unique index and reports
	// whether the row was written.
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) (bool, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Payment, error)

	BeginAttempt(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time, maxAttempts int) (bool, error)
	MarkPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, paidAt time.Time, receiptNumber string) (bool, error)
	MarkFailed(ctx context.Context, db *gorm.DB, id snowflake.ID, reason string, now time.Time) (bool, error)
	// MarkTimedOut fails a processing attempt that started before
	// startedBefore. Attempts begun after the cutoff are not touched.
	MarkTimedOut(ctx context.Context, db *gorm.DB, id snowflake.ID, startedBefore, now time.Time) (bool, error)

	ListStuckProcessing(ctx context.Context, db *gorm.DB, startedBefore time.Time, limit int) ([]Payment, error)
	SoftDelete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
}
