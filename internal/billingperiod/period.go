// Package billingperiod maps leases onto monthly billing periods.
//
// Months are zero-based (0 = January) to match the period encoding stored
// on payments and accepted by the generation API.
package billingperiod

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidInput = errors.New("invalid_input")

// Period identifies one monthly rent cycle.
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// New validates month (0-11) and year before building a Period.
func New(month, year int) (Period, error) {
	p := Period{Month: month, Year: year}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// Of returns the period containing t, in UTC.
func Of(t time.Time) Period {
	t = t.UTC()
	return Period{Month: int(t.Month()) - 1, Year: t.Year()}
}

func (p Period) Validate() error {
	if p.Month < 0 || p.Month > 11 {
		return fmt.Errorf("%w: month %d outside 0-11", ErrInvalidInput, p.Month)
	}
	if p.Year <= 0 || p.Year > 9999 {
		return fmt.Errorf("%w: year %d", ErrInvalidInput, p.Year)
	}
	return nil
}

// Start is midnight UTC on the first day of the period.
func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month+1), 1, 0, 0, 0, 0, time.UTC)
}

// End is the exclusive upper bound: the first instant of the next period.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month+1)
}

// DaysIn returns the number of days in the period's month.
func (p Period) DaysIn() int {
	return p.End().AddDate(0, 0, -1).Day()
}

// ResolveDueDate returns the due date for a lease due on paymentDueDay in
// the given period, clamped to the last day of shorter months.
func ResolveDueDate(paymentDueDay, month, year int) (time.Time, error) {
	if paymentDueDay < 1 || paymentDueDay > 31 {
		return time.Time{}, fmt.Errorf("%w: payment due day %d outside 1-31", ErrInvalidInput, paymentDueDay)
	}
	p, err := New(month, year)
	if err != nil {
		return time.Time{}, err
	}
	return p.DueDate(paymentDueDay), nil
}

// DueDate clamps day into the period. Callers must pass a day in 1-31.
func (p Period) DueDate(day int) time.Time {
	if last := p.DaysIn(); day > last {
		day = last
	}
	return time.Date(p.Year, time.Month(p.Month+1), day, 0, 0, 0, 0, time.UTC)
}
