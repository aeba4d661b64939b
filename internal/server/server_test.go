package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/authorization"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/clock"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/config"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/events"
	leaserepository "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/lease/repository"
	ledgerservice "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/ledger/service"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/observability/logger"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/payment/adapters"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/payment/adapters/demo"
	paymentdomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/payment/domain"
	paymentrepository "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/payment/repository"
	paymentservice "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/payment/service"
	rentbillingservice "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/rentbilling/service"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/testutil"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/pkg/db"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	landlordHeader = authorization.Landlord(testutil.LandlordID).String()
	tenantHeader   = authorization.Tenant(testutil.TenantID).String()
)

type apiHarness struct {
	engine *gin.Engine
	conn   *gorm.DB
}

func newAPIHarness(t *testing.T, mutate func(*config.Config)) *apiHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn := testutil.NewDB(t)
	node := testutil.NewNode(t)
	clk := clock.NewFixedClock(time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	cfg := config.Config{Environment: "test"}
	cfg.Payments.Gateway = demo.Provider
	cfg.Payments.ProcessingTimeout = 10 * time.Minute
	cfg.Scheduler.BatchSize = 50
	if mutate != nil {
		mutate(&cfg)
	}

	outbox := events.NewOutbox(conn, node, clk)
	authz := authorization.NewService(log)
	ledgerSvc := ledgerservice.NewService(ledgerservice.Params{DB: conn, Log: log, GenID: node, Clock: clk, Cfg: cfg})
	paymentRepo := paymentrepository.Provide()
	leaseRepo := leaserepository.Provide()

	paymentSvc := paymentservice.NewService(paymentservice.Params{
		DB:        conn,
		Log:       log,
		GenID:     node,
		Clock:     clk,
		Cfg:       cfg,
		Repo:      paymentRepo,
		LeaseRepo: leaseRepo,
		LedgerSvc: ledgerSvc,
		Outbox:    outbox,
		Authz:     authz,
		Adapters:  adapters.NewRegistry(demo.NewFactory()),
	})
	billingSvc := rentbillingservice.NewService(rentbillingservice.Params{
		DB:          conn,
		Log:         log,
		GenID:       node,
		Clock:       clk,
		Cfg:         cfg,
		LeaseRepo:   leaseRepo,
		PaymentRepo: paymentRepo,
		LedgerSvc:   ledgerSvc,
		Outbox:      outbox,
		Authz:       authz,
	})

	engine := NewEngine(EngineParams{Cfg: cfg})
	srv := NewServer(ServerParams{
		Engine:     engine,
		DB:         conn,
		Cfg:        cfg,
		Log:        log,
		Clock:      clk,
		PaymentSvc: paymentSvc,
		BillingSvc: billingSvc,
		LedgerSvc:  ledgerSvc,
	})
	srv.RegisterAPIRoutes()

	testutil.InsertLease(t, conn, node)
	return &apiHarness{engine: engine, conn: conn}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *errorBody      `json:"error"`
}

func (h *apiHarness) do(t *testing.T, method, path, actor string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set(HeaderActor, actor)
	}
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (h *apiHarness) generateJune(t *testing.T) string {
	t.Helper()
	rec, env := h.do(t, http.MethodPost, "/api/billing/generate", landlordHeader, gin.H{"month": 5, "year": 2024})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		Created []string `json:"created"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.Len(t, result.Created, 1)
	return result.Created[0]
}

func submitBody(card string) gin.H {
	return gin.H{
		"card_number":  card,
		"expiry_month": 12,
		"expiry_year":  2030,
		"cvv":          "123",
		"zip_code":     "94107",
	}
}

func TestActorHeaderRequired(t *testing.T) {
	h := newAPIHarness(t, nil)

	rec, env := h.do(t, http.MethodGet, "/api/payments", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "unauthorized", env.Error.Type)
	assert.NotEmpty(t, env.Error.RequestID)
	assert.Equal(t, rec.Header().Get(logger.RequestIDHeader), env.Error.RequestID)

	rec, _ = h.do(t, http.MethodGet, "/api/payments", "landlord:not-a-number", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env = h.do(t, http.MethodGet, "/api/payments", "system", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", env.Error.Type)
}

func TestGenerateRentIsIdempotentOverHTTP(t *testing.T) {
	h := newAPIHarness(t, nil)
	created := h.generateJune(t)

	rec, env := h.do(t, http.MethodPost, "/api/billing/generate", landlordHeader, gin.H{"month": 5, "year": 2024})
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		Created  []string `json:"created"`
		Existing []string `json:"existing"`
		Errors   []any    `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Empty(t, result.Created)
	assert.Equal(t, []string{created}, result.Existing)
	assert.NotNil(t, result.Errors)
}

func TestGenerateRentValidation(t *testing.T) {
	h := newAPIHarness(t, nil)

	rec, env := h.do(t, http.MethodPost, "/api/billing/generate", landlordHeader, gin.H{"month": 12, "year": 2024})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", env.Error.Type)

	rec, env = h.do(t, http.MethodPost, "/api/billing/generate", landlordHeader, gin.H{"year": 2024})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", env.Error.Type)
	assert.Equal(t, "month", env.Error.Field)

	rec, env = h.do(t, http.MethodPost, "/api/billing/generate", landlordHeader, "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", env.Error.Type)

	rec, _ = h.do(t, http.MethodPost, "/api/billing/generate", tenantHeader, gin.H{"month": 5, "year": 2024})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSubmitPaymentSettlesOnce(t *testing.T) {
	h := newAPIHarness(t, nil)
	paymentID := h.generateJune(t)
	path := fmt.Sprintf("/api/payments/%s/submit", paymentID)

	rec, env := h.do(t, http.MethodPost, path, tenantHeader, submitBody(demo.CardSuccess))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var outcome struct {
		Status        string `json:"status"`
		ReceiptNumber string `json:"receipt_number"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &outcome))
	assert.Equal(t, "paid", outcome.Status)
	assert.Regexp(t, `^RCPT-20240615-[0-9A-Z]+$`, outcome.ReceiptNumber)

	rec, env = h.do(t, http.MethodPost, path, tenantHeader, submitBody(demo.CardSuccess))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "payment_already_settled", env.Error.Type)
}

func TestSubmitPaymentDeclineIsAResult(t *testing.T) {
	h := newAPIHarness(t, nil)
	paymentID := h.generateJune(t)

	rec, env := h.do(t, http.MethodPost, "/api/payments/"+paymentID+"/submit", tenantHeader, submitBody(demo.CardDeclined))
	require.Equal(t, http.StatusOK, rec.Code)

	var outcome struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &outcome))
	assert.Equal(t, "failed", outcome.Status)
	assert.Equal(t, paymentdomain.ReasonCardDeclined, outcome.Reason)
}

func TestSubmitPaymentRejectsBadInput(t *testing.T) {
	h := newAPIHarness(t, nil)
	paymentID := h.generateJune(t)
	path := "/api/payments/" + paymentID + "/submit"

	body := submitBody(demo.CardSuccess)
	body["expiry_month"] = 13
	rec, env := h.do(t, http.MethodPost, path, tenantHeader, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_card", env.Error.Type)

	rec, env = h.do(t, http.MethodPost, path, tenantHeader, gin.H{"expiry_month": 12})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "card_number", env.Error.Field)

	rec, _ = h.do(t, http.MethodPost, "/api/payments/abc/submit", tenantHeader, submitBody(demo.CardSuccess))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = h.do(t, http.MethodPost, path, landlordHeader, submitBody(demo.CardSuccess))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSubmitPaymentRateLimited(t *testing.T) {
	h := newAPIHarness(t, func(cfg *config.Config) {
		cfg.HTTP.SubmitRateLimit = 1
		cfg.HTTP.SubmitRateWindow = time.Hour
	})
	paymentID := h.generateJune(t)
	path := "/api/payments/" + paymentID + "/submit"

	rec, _ := h.do(t, http.MethodPost, path, tenantHeader, submitBody(demo.CardDeclined))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := h.do(t, http.MethodPost, path, tenantHeader, submitBody(demo.CardSuccess))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", env.Error.Type)
}

func TestListAndGetPayments(t *testing.T) {
	h := newAPIHarness(t, nil)
	paymentID := h.generateJune(t)

	rec, env := h.do(t, http.MethodGet, "/api/payments?status=overdue", tenantHeader, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []struct {
		ID      string `json:"id"`
		Status  string `json:"status"`
		Overdue bool   `json:"overdue"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, paymentID, items[0].ID)
	assert.Equal(t, "pending", items[0].Status)
	assert.True(t, items[0].Overdue)

	rec, _ = h.do(t, http.MethodGet, "/api/payments?status=bogus", tenantHeader, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = h.do(t, http.MethodGet, "/api/payments/"+paymentID, landlordHeader, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	other := authorization.Tenant(testutil.TenantID + 1).String()
	rec, _ = h.do(t, http.MethodGet, "/api/payments/"+paymentID, other, nil)
	assert.Contains(t, []int{http.StatusForbidden, http.StatusNotFound}, rec.Code)
}

func TestCreateAndDeletePayment(t *testing.T) {
	h := newAPIHarness(t, nil)

	rec, env := h.do(t, http.MethodPost, "/api/payments", landlordHeader, gin.H{
		"property_id": testutil.PropertyID.String(),
		"tenant_id":   testutil.TenantID.String(),
		"amount":      "75.50",
		"type":        "utilities",
		"due_date":    "2024-07-01",
		"description": "Water",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID           string `json:"id"`
		Amount       string `json:"amount"`
		BillingMonth int    `json:"billing_month"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "75.5", created.Amount)
	assert.Equal(t, 6, created.BillingMonth)

	rec, env = h.do(t, http.MethodPost, "/api/payments", landlordHeader, gin.H{"amount": "oops", "type": "other", "due_date": "2024-07-01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "amount", env.Error.Field)

	rec, _ = h.do(t, http.MethodDelete, "/api/payments/"+created.ID, landlordHeader, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = h.do(t, http.MethodGet, "/api/payments/"+created.ID, landlordHeader, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPaymentSummaryScopedToActor(t *testing.T) {
	h := newAPIHarness(t, nil)
	paymentID := h.generateJune(t)

	rec, _ := h.do(t, http.MethodPost, "/api/payments/"+paymentID+"/submit", tenantHeader, submitBody(demo.CardSuccess))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := h.do(t, http.MethodGet, "/api/payments/summary", landlordHeader, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary struct {
		TotalPaid string `json:"total_paid"`
		PaidCount int    `json:"paid_count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, "1500", summary.TotalPaid)
	assert.Equal(t, 1, summary.PaidCount)

	other := authorization.Landlord(testutil.LandlordID + 1).String()
	rec, env = h.do(t, http.MethodGet, "/api/payments/summary", other, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 0, summary.PaidCount)
}

func TestHealthz(t *testing.T) {
	h := newAPIHarness(t, nil)
	rec, _ := h.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMapError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"storage", fmt.Errorf("%w: database is locked", db.ErrStorageUnavailable), http.StatusServiceUnavailable, "storage_unavailable"},
		{"conflict", paymentdomain.ErrConflict, http.StatusConflict, "conflict"},
		{"gateway", fmt.Errorf("%w: timeout", paymentdomain.ErrGatewayUnavailable), http.StatusServiceUnavailable, "gateway_unavailable"},
		{"validation", newValidationError("year", "required", "year is required"), http.StatusBadRequest, "validation_error"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := mapError(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.kind, body.Type)
		})
	}

	_, body := mapError(errors.New("secret detail"))
	assert.Equal(t, "internal error", body.Message)
}
