package domain

import "fmt"

var transitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:    {PaymentStatusProcessing},
	PaymentStatusFailed:     {PaymentStatusProcessing},
	PaymentStatusProcessing: {PaymentStatusPaid, PaymentStatusFailed},
	PaymentStatusPaid:       nil,
}

// AttemptableStatuses are the stored states a new settlement attempt may
// start from.
var AttemptableStatuses = []PaymentStatus{PaymentStatusPending, PaymentStatusFailed}

// CanTransition returns nil when from -> to is a legal move.
func CanTransition(from, to PaymentStatus) error {
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// IsTerminal reports whether no further transition is possible.
func (s PaymentStatus) IsTerminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// CanAttempt reports whether a settlement attempt may start from s.
func (s PaymentStatus) CanAttempt() bool {
	for _, status := range AttemptableStatuses {
		if s == status {
			return true
		}
	}
	return false
}
