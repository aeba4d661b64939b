package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	paymentdomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/payment/domain"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/testutil"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newRentPayment(node *snowflake.Node, leaseID snowflake.ID, month, year int) *paymentdomain.Payment {
	return &paymentdomain.Payment{
		ID:           node.Generate(),
		LeaseID:      &leaseID,
		PropertyID:   testutil.PropertyID,
		TenantID:     testutil.TenantID,
		LandlordID:   testutil.LandlordID,
		Amount:       decimal.RequireFromString("1500.00"),
		Type:         paymentdomain.PaymentTypeRent,
		BillingMonth: month,
		BillingYear:  year,
		Status:       paymentdomain.PaymentStatusPending,
		DueDate:      time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC),
	}
}

func setup(t *testing.T) (*gorm.DB, *snowflake.Node, paymentdomain.Repository) {
	t.Helper()
	return testutil.NewDB(t), testutil.NewNode(t), Provide()
}

func TestInsertSkipsDuplicateRentPeriod(t *testing.T) {
	conn, node, repo := setup(t)
	ctx := context.Background()
	leaseID := node.Generate()

	inserted, err := repo.Insert(ctx, conn, newRentPayment(node, leaseID, 5, 2024))
	if err != nil || !inserted {
		t.Fatalf("expected first insert, got inserted=%v err=%v", inserted, err)
	}

	inserted, err = repo.Insert(ctx, conn, newRentPayment(node, leaseID, 5, 2024))
	if err != nil {
		t.Fatalf("duplicate insert returned error: %v", err)
	}
	if inserted {
		t.Fatalf("expected duplicate rent period to be skipped")
	}

	inserted, err = repo.Insert(ctx, conn, newRentPayment(node, leaseID, 6, 2024))
	if err != nil || !inserted {
		t.Fatalf("expected next period insert, got inserted=%v err=%v", inserted, err)
	}
}

func TestInsertAllowsRepeatedNonRentCharges(t *testing.T) {
	conn, node, repo := setup(t)
	ctx := context.Background()
	leaseID := node.Generate()

	for i := 0; i < 2; i++ {
		p := newRentPayment(node, leaseID, 5, 2024)
		p.Type = paymentdomain.PaymentTypeUtilities
		inserted, err := repo.Insert(ctx, conn, p)
		if err != nil || !inserted {
			t.Fatalf("expected utilities insert %d, got inserted=%v err=%v", i, inserted, err)
		}
	}
}

func TestInsertRejectsNonPositiveAmount(t *testing.T) {
	conn, node, repo := setup(t)
	p := newRentPayment(node, node.Generate(), 5, 2024)
	p.Amount = decimal.Zero

	if _, err := repo.Insert(context.Background(), conn, p); err == nil {
		t.Fatalf("expected check constraint failure")
	}
}

func TestSoftDeletedRentFreesPeriod(t *testing.T) {
	conn, node, repo := setup(t)
	ctx := context.Background()
	leaseID := node.Generate()

	first := newRentPayment(node, leaseID, 5, 2024)
	if _, err := repo.Insert(ctx, conn, first); err != nil {
		t.Fatalf("insert: %v", err)
	}
	deleted, err := repo.SoftDelete(ctx, conn, first.ID)
	if err != nil || !deleted {
		t.Fatalf("expected soft delete, got deleted=%v err=%v", deleted, err)
	}
	if _, err := repo.FindByID(ctx, conn, first.ID); !errors.Is(err, paymentdomain.ErrNotFound) {
		t.Fatalf("expected deleted payment to be hidden, got %v", err)
	}

	inserted, err := repo.Insert(ctx, conn, newRentPayment(node, leaseID, 5, 2024))
	if err != nil || !inserted {
		t.Fatalf("expected regenerated rent, got inserted=%v err=%v", inserted, err)
	}
}

func TestAttemptCompareAndSet(t *testing.T) {
	conn, node, repo := setup(t)
	ctx := context.Background()
	now := time.Date(2024, time.June, 2, 10, 0, 0, 0, time.UTC)

	p := newRentPayment(node, node.Generate(), 5, 2024)
	if _, err := repo.Insert(ctx, conn, p); err != nil {
		t.Fatalf("insert: %v", err)
	}

	won, err := repo.BeginAttempt(ctx, conn, p.ID, now, 0)
	if err != nil || !won {
		t.Fatalf("expected first attempt to win, got won=%v err=%v", won, err)
	}
	won, err = repo.BeginAttempt(ctx, conn, p.ID, now, 0)
	if err != nil {
		t.Fatalf("second attempt: %v", err)
	}
	if won {
		t.Fatalf("expected second attempt to lose while processing")
	}

	ok, err := repo.MarkFailed(ctx, conn, p.ID, paymentdomain.ReasonCardDeclined, now)
	if err != nil || !ok {
		t.Fatalf("mark failed: ok=%v err=%v", ok, err)
	}

	won, err = repo.BeginAttempt(ctx, conn, p.ID, now, 0)
	if err != nil || !won {
		t.Fatalf("expected retry from failed to win, got won=%v err=%v", won, err)
	}
	ok, err = repo.MarkPaid(ctx, conn, p.ID, now, "RCPT-TEST-1")
	if err != nil || !ok {
		t.Fatalf("mark paid: ok=%v err=%v", ok, err)
	}

	stored, err := repo.FindByID(ctx, conn, p.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.Status != paymentdomain.PaymentStatusPaid || stored.PaidDate == nil || stored.ReceiptNumber == nil {
		t.Fatalf("unexpected paid snapshot: %+v", stored)
	}
	if stored.AttemptCount != 2 {
		t.Fatalf("expected 2 attempts, got %d", stored.AttemptCount)
	}
	if stored.FailureReason != nil {
		t.Fatalf("expected failure reason cleared, got %q", *stored.FailureReason)
	}

	won, err = repo.BeginAttempt(ctx, conn, p.ID, now, 0)
	if err != nil || won {
		t.Fatalf("expected paid payment to reject attempts, got won=%v err=%v", won, err)
	}
	ok, err = repo.MarkFailed(ctx, conn, p.ID, "late", now)
	if err != nil || ok {
		t.Fatalf("expected paid payment to reject failure, got ok=%v err=%v", ok, err)
	}
	deleted, err := repo.SoftDelete(ctx, conn, p.ID)
	if err != nil || deleted {
		t.Fatalf("expected paid payment to survive delete, got deleted=%v err=%v", deleted, err)
	}
}

func TestBeginAttemptHonorsMaxAttempts(t *testing.T) {
	conn, node, repo := setup(t)
	ctx := context.Background()
	now := time.Date(2024, time.June, 2, 10, 0, 0, 0, time.UTC)

	p := newRentPayment(node, node.Generate(), 5, 2024)
	if _, err := repo.Insert(ctx, conn, p); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if won, _ := repo.BeginAttempt(ctx, conn, p.ID, now, 1); !won {
		t.Fatalf("expected first attempt")
	}
	if ok, _ := repo.MarkFailed(ctx, conn, p.ID, paymentdomain.ReasonCardDeclined, now); !ok {
		t.Fatalf("expected failure recorded")
	}
	won, err := repo.BeginAttempt(ctx, conn, p.ID, now, 1)
	if err != nil || won {
		t.Fatalf("expected attempt limit to block, got won=%v err=%v", won, err)
	}
}

func TestReceiptNumbersAreUnique(t *testing.T) {
	conn, node, repo := setup(t)
	ctx := context.Background()
	now := time.Date(2024, time.June, 2, 10, 0, 0, 0, time.UTC)

	a := newRentPayment(node, node.Generate(), 5, 2024)
	b := newRentPayment(node, node.Generate(), 5, 2024)
	for _, p := range []*paymentdomain.Payment{a, b} {
		if _, err := repo.Insert(ctx, conn, p); err != nil {
			t.Fatalf("insert: %v", err)
		}
		if won, err := repo.BeginAttempt(ctx, conn, p.ID, now, 0); err != nil || !won {
			t.Fatalf("begin attempt: won=%v err=%v", won, err)
		}
	}
	if ok, err := repo.MarkPaid(ctx, conn, a.ID, now, "RCPT-SAME"); err != nil || !ok {
		t.Fatalf("mark paid a: ok=%v err=%v", ok, err)
	}
	if _, err := repo.MarkPaid(ctx, conn, b.ID, now, "RCPT-SAME"); err == nil {
		t.Fatalf("expected duplicate receipt number to be rejected")
	}
}

func TestListOverdueFilter(t *testing.T) {
	conn, node, repo := setup(t)
	ctx := context.Background()
	now := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)

	overdue := testutil.InsertPayment(t, conn, node, paymentdomain.PaymentTypeRent, "1500.00", now.AddDate(0, 0, -1))
	testutil.InsertPayment(t, conn, node, paymentdomain.PaymentTypeUtilities, "80.00", now.AddDate(0, 0, 5))

	rows, err := repo.List(ctx, conn, paymentdomain.ListFilter{Status: paymentdomain.StatusOverdue, Now: now})
	if err != nil {
		t.Fatalf("list overdue: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != overdue.ID {
		t.Fatalf("expected only the overdue payment, got %+v", rows)
	}

	rows, err = repo.List(ctx, conn, paymentdomain.ListFilter{Status: "pending", Now: now})
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 pending payments, got %d", len(rows))
	}

	if _, err := repo.List(ctx, conn, paymentdomain.ListFilter{Status: "late"}); !errors.Is(err, paymentdomain.ErrInvalidStatus) {
		t.Fatalf("expected invalid status filter, got %v", err)
	}
}

func TestListStuckProcessing(t *testing.T) {
	conn, node, repo := setup(t)
	ctx := context.Background()
	started := time.Date(2024, time.June, 2, 10, 0, 0, 0, time.UTC)

	p := newRentPayment(node, node.Generate(), 5, 2024)
	if _, err := repo.Insert(ctx, conn, p); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if won, err := repo.BeginAttempt(ctx, conn, p.ID, started, 0); err != nil || !won {
		t.Fatalf("begin attempt: won=%v err=%v", won, err)
	}

	rows, err := repo.ListStuckProcessing(ctx, conn, started.Add(-time.Minute), 10)
	if err != nil || len(rows) != 0 {
		t.Fatalf("expected nothing stuck yet, got %d err=%v", len(rows), err)
	}
	rows, err = repo.ListStuckProcessing(ctx, conn, started.Add(time.Hour), 10)
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected one stuck payment, got %d err=%v", len(rows), err)
	}
}

func TestMarkTimedOutHonorsCutoff(t *testing.T) {
	conn, node, repo := setup(t)
	ctx := context.Background()
	started := time.Date(2024, time.June, 2, 10, 0, 0, 0, time.UTC)

	p := newRentPayment(node, node.Generate(), 5, 2024)
	if _, err := repo.Insert(ctx, conn, p); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if won, err := repo.BeginAttempt(ctx, conn, p.ID, started, 0); err != nil || !won {
		t.Fatalf("begin attempt: won=%v err=%v", won, err)
	}

	ok, err := repo.MarkTimedOut(ctx, conn, p.ID, started, started.Add(time.Hour))
	if err != nil || ok {
		t.Fatalf("expected attempt started at the cutoff to be kept, got ok=%v err=%v", ok, err)
	}

	ok, err = repo.MarkTimedOut(ctx, conn, p.ID, started.Add(time.Minute), started.Add(time.Hour))
	if err != nil || !ok {
		t.Fatalf("expected stuck attempt to time out, got ok=%v err=%v", ok, err)
	}
	stored, err := repo.FindByID(ctx, conn, p.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.Status != paymentdomain.PaymentStatusFailed || stored.ProcessingStartedAt != nil {
		t.Fatalf("expected failed with cleared start, got %+v", stored)
	}
	if stored.FailureReason == nil || *stored.FailureReason != paymentdomain.ReasonProcessingTimeout {
		t.Fatalf("expected timeout reason, got %v", stored.FailureReason)
	}

	ok, err = repo.MarkTimedOut(ctx, conn, p.ID, started.Add(time.Minute), started.Add(time.Hour))
	if err != nil || ok {
		t.Fatalf("expected failed payment to be left alone, got ok=%v err=%v", ok, err)
	}
}
