package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/authorization"
	ledgerdomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/ledger/domain"
	paymentdomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/payment/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type createPaymentRequest struct {
	LeaseID      string `json:"lease_id"`
	PropertyID   string `json:"property_id"`
	TenantID     string `json:"tenant_id"`
	Amount       string `json:"amount"`
	Type         string `json:"type"`
	BillingMonth *int   `json:"billing_month"`
	BillingYear  int    `json:"billing_year"`
	DueDate      string `json:"due_date"`
	Description  string `json:"description"`
}

type submitPaymentRequest struct {
	CardNumber  string `json:"card_number"`
	ExpiryMonth int    `json:"expiry_month"`
	ExpiryYear  int    `json:"expiry_year"`
	CVV         string `json:"cvv"`
	ZipCode     string `json:"zip_code"`
}

// CreatePayment records a landlord-entered charge.
func (s *Server) CreatePayment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	charge, err := req.toDomain(actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.paymentSvc.CreateCharge(c.Request.Context(), charge)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (r createPaymentRequest) toDomain(actor authorization.Actor) (paymentdomain.CreateChargeRequest, error) {
	out := paymentdomain.CreateChargeRequest{
		Actor:       actor,
		Type:        paymentdomain.PaymentType(strings.ToLower(strings.TrimSpace(r.Type))),
		BillingYear: r.BillingYear,
		Description: strings.TrimSpace(r.Description),
	}
	if actor.Type == authorization.ActorTypeLandlord {
		out.LandlordID = actor.ID
	}

	if raw := strings.TrimSpace(r.LeaseID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil || id == 0 {
			return out, newValidationError("lease_id", "invalid", "lease_id is invalid")
		}
		out.LeaseID = &id
	}
	if raw := strings.TrimSpace(r.PropertyID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			return out, newValidationError("property_id", "invalid", "property_id is invalid")
		}
		out.PropertyID = id
	}
	if raw := strings.TrimSpace(r.TenantID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			return out, newValidationError("tenant_id", "invalid", "tenant_id is invalid")
		}
		out.TenantID = id
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(r.Amount))
	if err != nil {
		return out, newValidationError("amount", "invalid", "amount must be a decimal string")
	}
	out.Amount = amount

	dueDate, err := parseDate(r.DueDate)
	if err != nil {
		return out, newValidationError("due_date", "invalid", "due_date must be YYYY-MM-DD or RFC3339")
	}
	out.DueDate = dueDate

	if r.BillingMonth != nil {
		out.BillingMonth = *r.BillingMonth
	}
	return out, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// ListPayments returns the payments visible to the caller. status accepts
// the stored statuses plus "overdue".
func (s *Server) ListPayments(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var query struct {
		Status string `form:"status"`
		Type   string `form:"type"`
		Limit  string `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	limit := 0
	if raw := strings.TrimSpace(query.Limit); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			AbortWithError(c, newValidationError("limit", "invalid", "limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	items, err := s.paymentSvc.List(c.Request.Context(), paymentdomain.ListRequest{
		Actor:  actor,
		Status: strings.ToLower(strings.TrimSpace(query.Status)),
		Type:   paymentdomain.PaymentType(strings.ToLower(strings.TrimSpace(query.Type))),
		Limit:  limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) GetPayment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := paymentIDParam(c)
	if !ok {
		return
	}

	resp, err := s.paymentSvc.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// SubmitPayment runs one settlement attempt with the submitted card.
// A decline is a 200 with status "failed"; the tenant may retry.
func (s *Server) SubmitPayment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := paymentIDParam(c)
	if !ok {
		return
	}

	var req submitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.CardNumber) == "" {
		AbortWithError(c, newValidationError("card_number", "required", "card_number is required"))
		return
	}

	outcome, err := s.paymentSvc.SubmitPayment(c.Request.Context(), paymentdomain.SubmitRequest{
		Actor:     actor,
		PaymentID: id,
		Card: paymentdomain.CardInput{
			CardNumber:  req.CardNumber,
			ExpiryMonth: req.ExpiryMonth,
			ExpiryYear:  req.ExpiryYear,
			CVV:         req.CVV,
			ZipCode:     req.ZipCode,
		},
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": outcome})
}

// DeletePayment soft-deletes an unsettled payment.
func (s *Server) DeletePayment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := paymentIDParam(c)
	if !ok {
		return
	}

	if err := s.paymentSvc.Delete(c.Request.Context(), actor, id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// PaymentSummary aggregates payments for the caller: a landlord sees their
// portfolio, a tenant sees their own payments.
func (s *Server) PaymentSummary(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	filter := ledgerdomain.SummaryFilter{}
	switch actor.Type {
	case authorization.ActorTypeLandlord:
		filter.LandlordID = actor.ID
	case authorization.ActorTypeTenant:
		filter.TenantID = actor.ID
	default:
		AbortWithError(c, authorization.ErrForbidden)
		return
	}

	summary, err := s.ledgerSvc.Summarize(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}

func paymentIDParam(c *gin.Context) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || id == 0 {
		AbortWithError(c, ErrNotFound)
		return 0, false
	}
	return id, true
}
