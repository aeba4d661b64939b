package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	paymentdomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/payment/domain"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/pkg/db"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const defaultListLimit = 200

type repo struct{}

func Provide() paymentdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, payment *paymentdomain.Payment) (bool, error) {
	if payment == nil {
		return false, paymentdomain.ErrInvalidPayment
	}
	now := payment.CreatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}
	status := payment.Status
	if status == "" {
		status = paymentdomain.PaymentStatusPending
	}

	// Rows that collide with ux_payments_rent_period are skipped, not
	// rejected. CHECK and NOT NULL violations still fail the statement.
	result := conn.WithContext(ctx).Exec(
		`INSERT INTO payments (
			id, lease_id, property_id, tenant_id, landlord_id, amount, type,
			billing_month, billing_year, status, due_date, description,
			attempt_count, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT DO NOTHING`,
		payment.ID,
		payment.LeaseID,
		payment.PropertyID,
		payment.TenantID,
		payment.LandlordID,
		payment.Amount,
		payment.Type,
		payment.BillingMonth,
		payment.BillingYear,
		status,
		payment.DueDate.UTC(),
		strings.TrimSpace(payment.Description),
		now,
		now,
	)
	if result.Error != nil {
		return false, db.Classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	payment.Status = status
	payment.CreatedAt = now
	payment.UpdatedAt = now
	return true, nil
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*paymentdomain.Payment, error) {
	var payment paymentdomain.Payment
	err := conn.WithContext(ctx).Where("id = ?", id).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, paymentdomain.ErrNotFound
		}
		return nil, db.Classify(err)
	}
	return &payment, nil
}

func (r *repo) List(ctx context.Context, conn *gorm.DB, filter paymentdomain.ListFilter) ([]paymentdomain.Payment, error) {
	query := conn.WithContext(ctx).Model(&paymentdomain.Payment{})

	switch status := strings.ToLower(strings.TrimSpace(filter.Status)); status {
	case "":
	case paymentdomain.StatusOverdue:
		now := filter.Now
		if now.IsZero() {
			now = time.Now().UTC()
		}
		query = query.Where("status = ? AND due_date < ?", paymentdomain.PaymentStatusPending, now)
	default:
		if !paymentdomain.PaymentStatus(status).Valid() {
			return nil, paymentdomain.ErrInvalidStatus
		}
		query = query.Where("status = ?", status)
	}
	if filter.TenantID != 0 {
		query = query.Where("tenant_id = ?", filter.TenantID)
	}
	if filter.LandlordID != 0 {
		query = query.Where("landlord_id = ?", filter.LandlordID)
	}
	if filter.LeaseID != 0 {
		query = query.Where("lease_id = ?", filter.LeaseID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var payments []paymentdomain.Payment
	if err := query.Order("due_date ASC, id ASC").Limit(limit).Find(&payments).Error; err != nil {
		return nil, db.Classify(err)
	}
	return payments, nil
}

func (r *repo) BeginAttempt(ctx context.Context, conn *gorm.DB, id snowflake.ID, now time.Time, maxAttempts int) (bool, error) {
	query := conn.WithContext(ctx).
		Model(&paymentdomain.Payment{}).
		Where("id = ? AND status IN ?", id, paymentdomain.AttemptableStatuses)
	if maxAttempts > 0 {
		query = query.Where("attempt_count < ?", maxAttempts)
	}
	result := query.Updates(map[string]any{
		"status":                paymentdomain.PaymentStatusProcessing,
		"attempt_count":         gorm.Expr("attempt_count + 1"),
		"processing_started_at": now,
		"failure_reason":        nil,
		"updated_at":            now,
	})
	if result.Error != nil {
		return false, db.Classify(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) MarkPaid(ctx context.Context, conn *gorm.DB, id snowflake.ID, paidAt time.Time, receiptNumber string) (bool, error) {
	result := conn.WithContext(ctx).
		Model(&paymentdomain.Payment{}).
		Where("id = ? AND status = ?", id, paymentdomain.PaymentStatusProcessing).
		Updates(map[string]any{
			"status":                paymentdomain.PaymentStatusPaid,
			"paid_date":             paidAt,
			"receipt_number":        receiptNumber,
			"failure_reason":        nil,
			"processing_started_at": nil,
			"updated_at":            paidAt,
		})
	if result.Error != nil {
		return false, db.Classify(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) MarkFailed(ctx context.Context, conn *gorm.DB, id snowflake.ID, reason string, now time.Time) (bool, error) {
	result := conn.WithContext(ctx).
		Model(&paymentdomain.Payment{}).
		Where("id = ? AND status = ?", id, paymentdomain.PaymentStatusProcessing).
		Updates(map[string]any{
			"status":                paymentdomain.PaymentStatusFailed,
			"failure_reason":        strings.TrimSpace(reason),
			"processing_started_at": nil,
			"updated_at":            now,
		})
	if result.Error != nil {
		return false, db.Classify(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// MarkTimedOut fails an attempt only while it is the same processing
// attempt that was seen as stuck: a newer attempt carries a later
// processing_started_at and is left alone.
func (r *repo) MarkTimedOut(ctx context.Context, conn *gorm.DB, id snowflake.ID, startedBefore, now time.Time) (bool, error) {
	result := conn.WithContext(ctx).
		Model(&paymentdomain.Payment{}).
		Where("id = ? AND status = ? AND processing_started_at < ?", id, paymentdomain.PaymentStatusProcessing, startedBefore).
		Updates(map[string]any{
			"status":                paymentdomain.PaymentStatusFailed,
			"failure_reason":        paymentdomain.ReasonProcessingTimeout,
			"processing_started_at": nil,
			"updated_at":            now,
		})
	if result.Error != nil {
		return false, db.Classify(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) ListStuckProcessing(ctx context.Context, conn *gorm.DB, startedBefore time.Time, limit int) ([]paymentdomain.Payment, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var payments []paymentdomain.Payment
	err := conn.WithContext(ctx).
		Where("status = ? AND processing_started_at < ?", paymentdomain.PaymentStatusProcessing, startedBefore).
		Order("processing_started_at ASC").
		Limit(limit).
		Find(&payments).Error
	if err != nil {
		return nil, db.Classify(err)
	}
	return payments, nil
}

func (r *repo) SoftDelete(ctx context.Context, conn *gorm.DB, id snowflake.ID) (bool, error) {
	result := conn.WithContext(ctx).
		Where("id = ? AND status IN ?", id, paymentdomain.AttemptableStatuses).
		Delete(&paymentdomain.Payment{})
	if result.Error != nil {
		return false, db.Classify(result.Error)
	}
	return result.RowsAffected > 0, nil
}
