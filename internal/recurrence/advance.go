// Package recurrence materializes finance transactions from recurring
// definitions and moves each definition to its next occurrence.
//
// Advancement uses one strategy per frequency, looked up in a registry so
// new frequencies can be added without touching the batch logic.
package recurrence

import (
	"errors"
	"fmt"
	"time"

	"produtivo/internal/core"
)

// ErrCustomIntervalUndefined is returned when a custom recurrence has no
// positive interval to advance by.
var ErrCustomIntervalUndefined = errors.New("custom recurrence has no interval defined")

// Advancer computes the occurrence that follows r.NextOccurrence.
type Advancer interface {
	Next(r core.Recurrence) (core.Date, error)
}

// MonthlyAdvancer moves to BaseDay of the following month, clamped to
// the last day of that month.
type MonthlyAdvancer struct{}

func (MonthlyAdvancer) Next(r core.Recurrence) (core.Date, error) {
	cur := r.NextOccurrence
	year, month := cur.Year(), time.Month(cur.Month())+1
	if month > time.December {
		month = time.January
		year++
	}
	return clampedDate(year, month, baseDayOr(r, cur.Day())), nil
}

// WeeklyAdvancer adds seven days.
type WeeklyAdvancer struct{}

func (WeeklyAdvancer) Next(r core.Recurrence) (core.Date, error) {
	return r.NextOccurrence.AddDays(7), nil
}

// YearlyAdvancer keeps the month and moves to BaseDay of the next year,
// clamped (Feb 29 becomes Feb 28 outside leap years).
type YearlyAdvancer struct{}

func (YearlyAdvancer) Next(r core.Recurrence) (core.Date, error) {
	cur := r.NextOccurrence
	return clampedDate(cur.Year()+1, time.Month(cur.Month()), baseDayOr(r, cur.Day())), nil
}

// CustomAdvancer adds IntervalDays.
type CustomAdvancer struct{}

func (CustomAdvancer) Next(r core.Recurrence) (core.Date, error) {
	if r.IntervalDays <= 0 {
		return core.Date{}, ErrCustomIntervalUndefined
	}
	return r.NextOccurrence.AddDays(r.IntervalDays), nil
}

func baseDayOr(r core.Recurrence, fallback int) int {
	if r.BaseDay >= 1 && r.BaseDay <= 31 {
		return r.BaseDay
	}
	return fallback
}

func clampedDate(year int, month time.Month, day int) core.Date {
	if last := core.DaysInMonth(year, month); day > last {
		day = last
	}
	return core.NewDate(year, int(month), day)
}

var advancers = map[core.Frequency]Advancer{
	core.Monthly: MonthlyAdvancer{},
	core.Weekly:  WeeklyAdvancer{},
	core.Yearly:  YearlyAdvancer{},
	core.Custom:  CustomAdvancer{},
}

// GetAdvancer returns the strategy registered for frequency.
func GetAdvancer(frequency core.Frequency) (Advancer, error) {
	a, ok := advancers[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", frequency)
	}
	return a, nil
}

// RegisterAdvancer installs or replaces the strategy for a frequency.
func RegisterAdvancer(frequency core.Frequency, a Advancer) {
	advancers[frequency] = a
}

// Advance returns r moved to its next occurrence.
func Advance(r core.Recurrence) (core.Recurrence, error) {
	a, err := GetAdvancer(r.Frequency)
	if err != nil {
		return r, err
	}
	next, err := a.Next(r)
	if err != nil {
		return r, err
	}
	if !next.After(r.NextOccurrence) {
		return r, fmt.Errorf("advance %s: next occurrence %s does not move past %s", r.ID, next, r.NextOccurrence)
	}
	r.NextOccurrence = next
	return r, nil
}

// IsEligible reports whether r should generate a transaction on today:
// it must be active and due on or before today.
func IsEligible(r core.Recurrence, today core.Date) bool {
	return r.Active && !r.NextOccurrence.After(today)
}

// IdempotencyKey identifies one occurrence of one recurrence.
func IdempotencyKey(recurrenceID string, occurrence core.Date) string {
	return recurrenceID + ":" + occurrence.String()
}

// Materialize builds the transaction for r's current occurrence.
func Materialize(r core.Recurrence, status core.TransactionStatus) core.Transaction {
	id := r.ID
	return core.Transaction{
		OwnerID:        r.OwnerID,
		AccountID:      r.AccountID,
		CategoryID:     copyPtr(r.CategoryID),
		Date:           r.NextOccurrence,
		Amount:         r.Amount,
		Type:           r.Type,
		Status:         status,
		Description:    r.Description,
		Tags:           r.Tags,
		IdempotencyKey: IdempotencyKey(r.ID, r.NextOccurrence),
		RecurrenceID:   &id,
		Metadata:       map[string]string{"source": "recurrence"},
	}
}

func copyPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
