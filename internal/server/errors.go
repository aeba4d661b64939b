package server

import (
	"errors"
	"net/http"

	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/authorization"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/billingperiod"
	leasedomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/lease/domain"
	obsctx "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/observability/context"
	paymentdomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/payment/domain"
	rentbillingdomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/rentbilling/domain"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/pkg/db"
	"github.com/gin-gonic/gin"
)

var (
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not_found")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

// ValidationError reports a single rejected request field.
type ValidationError struct {
	Field   string
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(field, code, message string) error {
	return &ValidationError{Field: field, Code: code, Message: message}
}

func invalidRequestError() error {
	return ErrInvalidRequest
}

type errorBody struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type errorMapping struct {
	target error
	status int
	kind   string
}

// errorMappings is checked in order; the first errors.Is match wins.
var errorMappings = []errorMapping{
	{ErrInvalidRequest, http.StatusBadRequest, "invalid_request"},
	{billingperiod.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{paymentdomain.ErrInvalidPayment, http.StatusBadRequest, "invalid_input"},
	{paymentdomain.ErrInvalidAmount, http.StatusBadRequest, "invalid_input"},
	{paymentdomain.ErrInvalidType, http.StatusBadRequest, "invalid_input"},
	{paymentdomain.ErrInvalidStatus, http.StatusBadRequest, "invalid_input"},
	{paymentdomain.ErrInvalidCard, http.StatusBadRequest, "invalid_card"},
	{leasedomain.ErrInvalidLease, http.StatusBadRequest, "invalid_input"},
	{leasedomain.ErrMissingParty, http.StatusBadRequest, "invalid_input"},
	{leasedomain.ErrInvalidRentAmount, http.StatusBadRequest, "invalid_input"},
	{leasedomain.ErrInvalidDueDay, http.StatusBadRequest, "invalid_input"},
	{leasedomain.ErrInvalidTerm, http.StatusBadRequest, "invalid_input"},

	{ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{authorization.ErrInvalidActor, http.StatusUnauthorized, "unauthorized"},
	{authorization.ErrForbidden, http.StatusForbidden, "forbidden"},

	{ErrNotFound, http.StatusNotFound, "not_found"},
	{paymentdomain.ErrNotFound, http.StatusNotFound, "not_found"},
	{leasedomain.ErrNotFound, http.StatusNotFound, "not_found"},

	{paymentdomain.ErrConflict, http.StatusConflict, "conflict"},
	{paymentdomain.ErrPaymentSettled, http.StatusConflict, "payment_already_settled"},
	{paymentdomain.ErrDuplicatePayment, http.StatusConflict, "duplicate_payment"},
	{paymentdomain.ErrAttemptsExhausted, http.StatusConflict, "payment_attempts_exhausted"},
	{paymentdomain.ErrInvalidTransition, http.StatusConflict, "conflict"},

	{ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},

	{db.ErrStorageUnavailable, http.StatusServiceUnavailable, "storage_unavailable"},
	{rentbillingdomain.ErrLeaseEnumeration, http.StatusServiceUnavailable, "storage_unavailable"},
	{paymentdomain.ErrGatewayUnavailable, http.StatusServiceUnavailable, "gateway_unavailable"},
	{paymentdomain.ErrGatewayNotFound, http.StatusServiceUnavailable, "gateway_unavailable"},
	{ErrServiceUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
}

// AbortWithError translates err into the API error envelope. Unknown
// errors become a 500 without their message.
func AbortWithError(c *gin.Context, err error) {
	status, body := mapError(err)
	body.RequestID = obsctx.RequestIDFromGin(c)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": body})
}

func mapError(err error) (int, errorBody) {
	var validation *ValidationError
	if errors.As(err, &validation) {
		return http.StatusBadRequest, errorBody{
			Type:    "validation_error",
			Message: validation.Message,
			Field:   validation.Field,
		}
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, errorBody{Type: m.kind, Message: err.Error()}
		}
	}
	return http.StatusInternalServerError, errorBody{
		Type:    "internal_error",
		Message: "internal error",
	}
}
