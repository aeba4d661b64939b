package domain

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// CardInput is the card data a tenant submits with a payment attempt.
type CardInput struct {
	CardNumber  string `json:"card_number"`
	ExpiryMonth int    `json:"expiry_month"`
	ExpiryYear  int    `json:"expiry_year"`
	CVV         string `json:"cvv"`
	ZipCode     string `json:"zip_code"`
}

// ChargeRequest is what a gateway sees for one settlement attempt.
type ChargeRequest struct {
	PaymentID snowflake.ID
	Amount    decimal.Decimal
	Card      CardInput
	Now       time.Time
}

// ChargeResult is the terminal gateway decision for an attempt.
type ChargeResult struct {
	Approved  bool
	Reason    string
	Reference string
}

// Gateway settles a single charge. Declines are results, not errors; an
// error means the gateway could not decide.
type Gateway interface {
	Provider() string
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

type GatewayConfig struct {
	Provider string
	Config   map[string]any
}

type GatewayFactory interface {
	Provider() string
	NewGateway(config GatewayConfig) (Gateway, error)
}

// Validate rejects expiry fields that cannot name a calendar month. It does
// not judge the card number; that is the gateway's decision.
func (c CardInput) Validate() error {
	if c.ExpiryMonth < 1 || c.ExpiryMonth > 12 {
		return ErrInvalidCard
	}
	if c.ExpiryYear <= 0 {
		return ErrInvalidCard
	}
	return nil
}

// NormalizedNumber strips the spaces and dashes people type into card fields.
func (c CardInput) NormalizedNumber() string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, c.CardNumber)
}

// ExpiryFullYear expands two-digit years into the 2000s.
func (c CardInput) ExpiryFullYear() int {
	if c.ExpiryYear < 100 {
		return c.ExpiryYear + 2000
	}
	return c.ExpiryYear
}

// ExpiredAt reports whether the card's expiry month ended before now's month.
func (c CardInput) ExpiredAt(now time.Time) bool {
	year := c.ExpiryFullYear()
	if year != now.Year() {
		return year < now.Year()
	}
	return time.Month(c.ExpiryMonth) < now.Month()
}
