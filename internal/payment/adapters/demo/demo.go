// Package demo is a closed, deterministic card simulator used in place of
// a real payment processor. No network calls are made and no real card
// validation is performed.
package demo

import (
	"context"
	"fmt"

	paymentdomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/payment/domain"
)

const Provider = "demo"

// Test card numbers.
const (
	CardSuccess           = "4242424242424242"
	CardDeclined          = "4000000000000002"
	CardInsufficientFunds = "4000000000009995"
)

var declines = map[string]string{
	CardDeclined:          paymentdomain.ReasonCardDeclined,
	CardInsufficientFunds: paymentdomain.ReasonInsufficientFunds,
}

type Factory struct{}

func NewFactory() *Factory { return &Factory{} }

func (f *Factory) Provider() string { return Provider }

func (f *Factory) NewGateway(cfg paymentdomain.GatewayConfig) (paymentdomain.Gateway, error) {
	return &Gateway{}, nil
}

// Gateway maps card input to an outcome. Expiry is checked before the
// card table, so an expired success card still fails.
type Gateway struct{}

func (g *Gateway) Provider() string { return Provider }

func (g *Gateway) Charge(ctx context.Context, req paymentdomain.ChargeRequest) (paymentdomain.ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return paymentdomain.ChargeResult{}, err
	}
	if err := req.Card.Validate(); err != nil {
		return paymentdomain.ChargeResult{}, err
	}

	if req.Card.ExpiredAt(req.Now) {
		return paymentdomain.ChargeResult{Reason: paymentdomain.ReasonCardExpired}, nil
	}

	number := req.Card.NormalizedNumber()
	if number == CardSuccess {
		return paymentdomain.ChargeResult{
			Approved:  true,
			Reference: fmt.Sprintf("demo_%s", req.PaymentID.Base36()),
		}, nil
	}
	if reason, ok := declines[number]; ok {
		return paymentdomain.ChargeResult{Reason: reason}, nil
	}
	return paymentdomain.ChargeResult{Reason: paymentdomain.ReasonInvalidCard}, nil
}
