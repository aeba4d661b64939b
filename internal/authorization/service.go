package authorization

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

const (
	ObjectBilling = "billing"
	ObjectPayment = "payment"
)

const (
	ActionBillingGenerate = "billing.generate"
	ActionPaymentCreate   = "payment.create"
	ActionPaymentRead     = "payment.read"
	ActionPaymentSubmit   = "payment.submit"
	ActionPaymentDelete   = "payment.delete"
)

// Resource identifies the owners of the object being acted on. Zero
// owner ids mean "not scoped to one owner" (e.g. a generation run).
type Resource struct {
	Object     string
	LandlordID snowflake.ID
	TenantID   snowflake.ID
}

type Service interface {
	Authorize(ctx context.Context, actor Actor, resource Resource, action string) error
}
