package events

// Payment lifecycle event types written to the outbox.
const (
	EventPaymentGenerated = "payment.generated"
	EventPaymentCreated   = "payment.created"
	EventPaymentSettled   = "payment.settled"
	EventPaymentFailed    = "payment.failed"
	EventPaymentDeleted   = "payment.deleted"
)

// PaymentPayload captures the minimal data a consumer needs to react to a
// payment change.
type PaymentPayload struct {
	PaymentID     string `json:"payment_id"`
	LeaseID       string `json:"lease_id,omitempty"`
	TenantID      string `json:"tenant_id"`
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	Period        string `json:"period,omitempty"`
	Status        string `json:"status"`
	ReceiptNumber string `json:"receipt_number,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p PaymentPayload) ToMap() map[string]any {
	payload := map[string]any{
		"payment_id": p.PaymentID,
		"tenant_id":  p.TenantID,
		"type":       p.Type,
		"amount":     p.Amount,
		"status":     p.Status,
	}
	if p.LeaseID != "" {
		payload["lease_id"] = p.LeaseID
	}
	if p.Period != "" {
		payload["period"] = p.Period
	}
	if p.ReceiptNumber != "" {
		payload["receipt_number"] = p.ReceiptNumber
	}
	if p.Reason != "" {
		payload["reason"] = p.Reason
	}
	return payload
}

// DedupeKey scopes an event to one payment, so replays of the same change
// collapse into a single row.
func DedupeKey(eventType string, paymentID string) string {
	return eventType + ":" + paymentID
}
