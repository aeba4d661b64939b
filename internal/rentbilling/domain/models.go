// Package domain describes monthly rent generation: one rent payment per
// active lease per billing period.
package domain

import (
	"context"
	"errors"

	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/authorization"
	"github.com/bwmarrin/snowflake"
)

// GenerateRequest names the billing period to generate. Month is
// zero-based (0 = January).
type GenerateRequest struct {
	Month int
	Year  int
	Actor authorization.Actor
}

// GenerationError is a lease that could not be billed this run.
type GenerationError struct {
	LeaseID snowflake.ID `json:"lease_id"`
	Reason  string       `json:"reason"`
}

// GenerationResult reports what a run did. Created holds payment ids,
// Existing holds lease ids already billed for the period.
type GenerationResult struct {
	Created  []snowflake.ID    `json:"created"`
	Existing []snowflake.ID    `json:"existing"`
	Errors   []GenerationError `json:"errors"`
}

func NewGenerationResult() GenerationResult {
	return GenerationResult{
		Created:  []snowflake.ID{},
		Existing: []snowflake.ID{},
		Errors:   []GenerationError{},
	}
}

type Service interface {
	GenerateForPeriod(ctx context.Context, req GenerateRequest) (GenerationResult, error)
}

// ErrLeaseEnumeration wraps the only failure that aborts a whole run.
var ErrLeaseEnumeration = errors.New("lease_enumeration_failed")
