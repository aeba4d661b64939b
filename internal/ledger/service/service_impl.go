package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/clock"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/config"
	ledgerdomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/ledger/domain"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const receiptPrefix = "RCPT"

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Cfg   config.Config
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	timeout time.Duration
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("ledger.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		timeout: p.Cfg.Database.QueryTimeout,
	}
}

// MintReceiptNumber returns RCPT-<yyyymmdd>-<id>. The id half comes from the
// snowflake node so two receipts minted by one process never collide; the
// unique index on payments.receipt_number covers multiple processes.
func (s *Service) MintReceiptNumber(paymentID snowflake.ID) string {
	suffix := strings.ToUpper(s.genID.Generate().Base36())
	s.log.Debug("minted receipt", zap.String("payment_id", paymentID.String()))
	return fmt.Sprintf("%s-%s-%s", receiptPrefix, s.clock.Now().UTC().Format("20060102"), suffix)
}

// PostCharge debits receivables and credits the account matching the
// payment type.
func (s *Service) PostCharge(ctx context.Context, tx *gorm.DB, posting ledgerdomain.Posting) error {
	return s.post(ctx, tx, ledgerdomain.SourceTypeCharge, posting,
		ledgerdomain.AccountCodeAccountsReceivable,
		ledgerdomain.ChargeAccountFor(posting.PaymentType),
	)
}

// PostSettlement moves a settled amount from receivables to cash.
func (s *Service) PostSettlement(ctx context.Context, tx *gorm.DB, posting ledgerdomain.Posting) error {
	return s.post(ctx, tx, ledgerdomain.SourceTypeSettlement, posting,
		ledgerdomain.AccountCodeCashClearing,
		ledgerdomain.AccountCodeAccountsReceivable,
	)
}

// PostReversal unwinds a charge that was withdrawn before settlement.
func (s *Service) PostReversal(ctx context.Context, tx *gorm.DB, posting ledgerdomain.Posting) error {
	return s.post(ctx, tx, ledgerdomain.SourceTypeReversal, posting,
		ledgerdomain.ChargeAccountFor(posting.PaymentType),
		ledgerdomain.AccountCodeAccountsReceivable,
	)
}

func (s *Service) post(
	ctx context.Context,
	tx *gorm.DB,
	sourceType string,
	posting ledgerdomain.Posting,
	debitCode string,
	creditCode string,
) error {
	if !posting.Amount.IsPositive() {
		return ledgerdomain.ErrInvalidLineAmount
	}

	debitID, err := s.ensureLedgerAccount(ctx, tx, posting.LandlordID, debitCode, posting.OccurredAt)
	if err != nil {
		return err
	}
	creditID, err := s.ensureLedgerAccount(ctx, tx, posting.LandlordID, creditCode, posting.OccurredAt)
	if err != nil {
		return err
	}

	lines := []ledgerdomain.LedgerEntryLine{
		{AccountID: debitID, Direction: ledgerdomain.LedgerEntryDirectionDebit, Amount: posting.Amount},
		{AccountID: creditID, Direction: ledgerdomain.LedgerEntryDirectionCredit, Amount: posting.Amount},
	}
	return s.CreateEntry(ctx, tx, posting.LandlordID, sourceType, posting.SourceID, posting.OccurredAt, lines)
}

// CreateEntry writes a balanced entry. A second entry for the same source is
// a no-op.
func (s *Service) CreateEntry(
	ctx context.Context,
	tx *gorm.DB,
	landlordID snowflake.ID,
	sourceType string,
	sourceID snowflake.ID,
	occurredAt time.Time,
	lines []ledgerdomain.LedgerEntryLine,
) error {
	if landlordID == 0 {
		return ledgerdomain.ErrInvalidLandlord
	}
	sourceType = strings.TrimSpace(sourceType)
	if sourceType == "" {
		return ledgerdomain.ErrInvalidSourceType
	}
	if sourceID == 0 {
		return ledgerdomain.ErrInvalidSourceID
	}
	if occurredAt.IsZero() {
		return ledgerdomain.ErrInvalidOccurredAt
	}
	for _, line := range lines {
		if line.AccountID == 0 {
			return ledgerdomain.ErrInvalidAccount
		}
	}
	if err := ledgerdomain.ValidateBalanced(lines); err != nil {
		return err
	}
	if tx == nil {
		tx = s.db
	}

	now := s.clock.Now().UTC()
	entryID := s.genID.Generate()
	result := tx.WithContext(ctx).Exec(
		`INSERT INTO ledger_entries (id, landlord_id, source_type, source_id, occurred_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (source_type, source_id) DO NOTHING`,
		entryID,
		landlordID,
		sourceType,
		sourceID,
		occurredAt.UTC(),
		now,
	)
	if result.Error != nil {
		return db.Classify(result.Error)
	}
	if result.RowsAffected == 0 {
		s.log.Debug("ledger entry already recorded",
			zap.String("source_type", sourceType),
			zap.String("source_id", sourceID.String()),
		)
		return nil
	}

	for i := range lines {
		lines[i].ID = s.genID.Generate()
		lines[i].LedgerEntryID = entryID
		lines[i].CreatedAt = now
	}
	if err := tx.WithContext(ctx).Create(&lines).Error; err != nil {
		return db.Classify(err)
	}
	return nil
}

func (s *Service) ensureLedgerAccount(ctx context.Context, tx *gorm.DB, landlordID snowflake.ID, code string, now time.Time) (snowflake.ID, error) {
	code = strings.TrimSpace(code)
	name := ledgerdomain.AccountName(code)
	if code == "" || name == "" {
		return 0, ledgerdomain.ErrInvalidAccount
	}
	if tx == nil {
		tx = s.db
	}

	var accountID snowflake.ID
	if err := tx.WithContext(ctx).Raw(
		`SELECT id FROM ledger_accounts WHERE landlord_id = ? AND code = ?`,
		landlordID,
		code,
	).Scan(&accountID).Error; err != nil {
		return 0, db.Classify(err)
	}
	if accountID != 0 {
		return accountID, nil
	}

	if err := tx.WithContext(ctx).Exec(
		`INSERT INTO ledger_accounts (id, landlord_id, code, name, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (landlord_id, code) DO NOTHING`,
		s.genID.Generate(),
		landlordID,
		code,
		name,
		now.UTC(),
	).Error; err != nil {
		return 0, db.Classify(err)
	}

	if err := tx.WithContext(ctx).Raw(
		`SELECT id FROM ledger_accounts WHERE landlord_id = ? AND code = ?`,
		landlordID,
		code,
	).Scan(&accountID).Error; err != nil {
		return 0, db.Classify(err)
	}
	if accountID == 0 {
		return 0, errors.New("ledger_account_not_found")
	}
	return accountID, nil
}

type statusTotal struct {
	Status string
	Count  int64
	Total  decimal.Decimal
}

// Summarize aggregates persisted payments. Overdue is computed against the
// clock at read time and is a subset of pending.
func (s *Service) Summarize(ctx context.Context, filter ledgerdomain.SummaryFilter) (ledgerdomain.Summary, error) {
	ctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := s.clock.Now().UTC()
	where, args := summaryScope(filter)

	var totals []statusTotal
	if err := s.db.WithContext(ctx).Raw(
		`SELECT status, COUNT(1) AS count, COALESCE(SUM(amount), 0) AS total
		 FROM payments
		 WHERE `+where+`
		 GROUP BY status`,
		args...,
	).Scan(&totals).Error; err != nil {
		return ledgerdomain.Summary{}, db.Classify(err)
	}

	var overdue statusTotal
	overdueArgs := append(append([]any{}, args...), now)
	if err := s.db.WithContext(ctx).Raw(
		`SELECT 'overdue' AS status, COUNT(1) AS count, COALESCE(SUM(amount), 0) AS total
		 FROM payments
		 WHERE `+where+` AND status = 'pending' AND due_date < ?`,
		overdueArgs...,
	).Scan(&overdue).Error; err != nil {
		return ledgerdomain.Summary{}, db.Classify(err)
	}

	summary := ledgerdomain.Summary{
		TotalPaid:     decimal.Zero,
		PendingAmount: decimal.Zero,
		OverdueAmount: overdue.Total.Round(2),
		OverdueCount:  overdue.Count,
		AsOf:          now,
	}
	for _, row := range totals {
		switch row.Status {
		case "paid":
			summary.TotalPaid = row.Total.Round(2)
			summary.PaidCount = row.Count
		case "pending":
			summary.PendingAmount = row.Total.Round(2)
			summary.PendingCount = row.Count
		case "processing":
			summary.ProcessingCount = row.Count
		case "failed":
			summary.FailedCount = row.Count
		}
	}
	return summary, nil
}

func summaryScope(filter ledgerdomain.SummaryFilter) (string, []any) {
	clauses := []string{"deleted_at IS NULL"}
	args := []any{}
	if filter.LandlordID != 0 {
		clauses = append(clauses, "landlord_id = ?")
		args = append(args, filter.LandlordID)
	}
	if filter.TenantID != 0 {
		clauses = append(clauses, "tenant_id = ?")
		args = append(args, filter.TenantID)
	}
	return strings.Join(clauses, " AND "), args
}
