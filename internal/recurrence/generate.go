package recurrence

import (
	"fmt"
	"sort"

	"produtivo/internal/core"
	"produtivo/internal/state"
)

const defaultMaxCatchUp = 24

// Options tunes a generation batch.
type Options struct {
	// Status given to generated transactions. Defaults to settled.
	Status core.TransactionStatus
	// CatchUp keeps generating for a recurrence while it is still due,
	// instead of one occurrence per batch.
	CatchUp bool
	// MaxCatchUp bounds CatchUp per recurrence. Defaults to 24.
	MaxCatchUp int
	// NewID assigns ids to generated transactions.
	NewID func() string
}

func (o Options) withDefaults() Options {
	if o.Status == "" {
		o.Status = core.TransactionSettled
	}
	if o.MaxCatchUp <= 0 {
		o.MaxCatchUp = defaultMaxCatchUp
	}
	return o
}

// Failure records why one recurrence could not be processed.
type Failure struct {
	RecurrenceID string `json:"recurrence_id"`
	Occurrence   string `json:"occurrence,omitempty"`
	Error        string `json:"error"`
}

// Report summarizes a batch.
type Report struct {
	Generated    int                `json:"generated"`
	Skipped      int                `json:"skipped"`
	Failures     []Failure          `json:"failures,omitempty"`
	Transactions []core.Transaction `json:"transactions,omitempty"`
}

// Due returns the eligible recurrences in processing order: ascending next
// occurrence, ties broken by id.
func Due(recs []core.Recurrence, today core.Date) []core.Recurrence {
	var due []core.Recurrence
	for _, r := range recs {
		if IsEligible(r, today) {
			due = append(due, r)
		}
	}
	SortForProcessing(due)
	return due
}

// SortForProcessing orders recurrences the way batches process them.
func SortForProcessing(recs []core.Recurrence) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i].NextOccurrence, recs[j].NextOccurrence
		if !a.Equal(b) {
			return a.Before(b)
		}
		return recs[i].ID < recs[j].ID
	})
}

// GenerateDue materializes every due occurrence in f and advances the
// recurrences. A failing recurrence is recorded in the report and left
// unchanged; the others are still processed.
func GenerateDue(f state.Finance, today core.Date, opts Options) (state.Finance, Report) {
	opts = opts.withDefaults()
	var report Report

	for _, r := range Due(f.Recurrences, today) {
		next, items, err := generateOne(f, r, today, opts)
		if err != nil {
			report.Failures = append(report.Failures, Failure{
				RecurrenceID: r.ID,
				Occurrence:   r.NextOccurrence.String(),
				Error:        err.Error(),
			})
			continue
		}
		f = next
		for _, it := range items {
			if it.skipped {
				report.Skipped++
				continue
			}
			report.Generated++
			report.Transactions = append(report.Transactions, it.tx)
		}
	}
	return f, report
}

type generated struct {
	tx      core.Transaction
	skipped bool
}

// step materializes the occurrence cur sits on and returns it together with
// cur moved past it.
func step(cur core.Recurrence, opts Options) (core.Transaction, core.Recurrence, error) {
	tx := Materialize(cur, opts.Status)
	if opts.NewID != nil {
		tx.ID = opts.NewID()
	} else {
		tx.ID = tx.IdempotencyKey
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, cur, fmt.Errorf("materialize %s: %w", tx.IdempotencyKey, err)
	}
	next, err := Advance(cur)
	if err != nil {
		return core.Transaction{}, cur, err
	}
	return tx, next, nil
}

// walk steps r through its due occurrences, one per call unless opts.CatchUp
// is set, and hands each to apply. It returns the recurrence after the last
// applied occurrence, or the one that failed.
func walk(r core.Recurrence, today core.Date, opts Options, apply func(cur core.Recurrence, tx core.Transaction, next core.Recurrence) error) (core.Recurrence, error) {
	cur := r
	for i := 0; i < opts.MaxCatchUp && IsEligible(cur, today); i++ {
		tx, next, err := step(cur, opts)
		if err != nil {
			return cur, err
		}
		if err := apply(cur, tx, next); err != nil {
			return cur, err
		}
		cur = next
		if !opts.CatchUp {
			break
		}
	}
	return cur, nil
}

// generateOne processes a single recurrence against a working copy so a
// failure midway leaves f untouched.
func generateOne(f state.Finance, r core.Recurrence, today core.Date, opts Options) (state.Finance, []generated, error) {
	var out []generated
	work := f
	last, err := walk(r, today, opts, func(_ core.Recurrence, tx core.Transaction, _ core.Recurrence) error {
		if _, exists := work.FindByIdempotencyKey(tx.IdempotencyKey); exists {
			out = append(out, generated{tx: tx, skipped: true})
			return nil
		}
		next, err := work.PutTransaction(tx)
		if err != nil {
			return fmt.Errorf("materialize %s: %w", tx.IdempotencyKey, err)
		}
		work = next
		out = append(out, generated{tx: tx})
		return nil
	})
	if err != nil {
		return f, nil, err
	}

	if work, err = work.PutRecurrence(last); err != nil {
		return f, nil, fmt.Errorf("update recurrence %s: %w", r.ID, err)
	}
	return work, out, nil
}
