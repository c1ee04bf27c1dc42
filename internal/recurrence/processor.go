package recurrence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"produtivo/internal/core"
)

// Store is the persistence the processor needs.
type Store interface {
	// ListDueRecurrences returns active recurrences due on or before today.
	// An empty ownerID means every owner.
	ListDueRecurrences(ctx context.Context, ownerID string, today core.Date) ([]core.Recurrence, error)
	// ApplyOccurrence atomically inserts tx (unless a transaction with the
	// same idempotency key exists) and moves r to next. created is false
	// when the occurrence had already been materialized.
	ApplyOccurrence(ctx context.Context, r core.Recurrence, tx core.Transaction, next core.Date) (created bool, err error)
}

// Publisher is notified of every transaction the processor creates.
type Publisher interface {
	PublishTransactionSync(ctx context.Context, ownerID, transactionID string) error
}

// Processor runs generation batches against a Store.
type Processor struct {
	store     Store
	publisher Publisher
	opts      Options
}

// NewProcessor creates a processor; publisher may be nil.
func NewProcessor(store Store, publisher Publisher, opts Options) *Processor {
	return &Processor{
		store:     store,
		publisher: publisher,
		opts:      opts.withDefaults(),
	}
}

// ProcessDue generates the due occurrences of ownerID (or of everyone when
// ownerID is empty). Per-recurrence failures are collected in the report;
// the returned error is only set when the due list cannot be loaded.
func (p *Processor) ProcessDue(ctx context.Context, ownerID string, today core.Date) (Report, error) {
	if p.store == nil {
		return Report{}, errors.New("processor not properly initialized")
	}

	recs, err := p.store.ListDueRecurrences(ctx, ownerID, today)
	if err != nil {
		return Report{}, fmt.Errorf("list due recurrences: %w", err)
	}
	due := Due(recs, today)

	slog.InfoContext(ctx, "Processing recurrences",
		"owner_id", ownerID,
		"due", len(due),
		"processing_date", today.String())

	var report Report
	for _, r := range due {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		p.processOne(ctx, r, today, &report)
	}

	slog.InfoContext(ctx, "Recurrence processing complete",
		"generated", report.Generated,
		"skipped", report.Skipped,
		"failed", len(report.Failures))
	return report, nil
}

func (p *Processor) processOne(ctx context.Context, r core.Recurrence, today core.Date, report *Report) {
	failed, err := walk(r, today, p.opts, func(cur core.Recurrence, tx core.Transaction, next core.Recurrence) error {
		created, err := p.store.ApplyOccurrence(ctx, cur, tx, next.NextOccurrence)
		if err != nil {
			return err
		}
		if !created {
			report.Skipped++
			slog.InfoContext(ctx, "Occurrence already materialized",
				"recurrence_id", cur.ID,
				"idempotency_key", tx.IdempotencyKey)
			return nil
		}
		report.Generated++
		report.Transactions = append(report.Transactions, tx)
		slog.InfoContext(ctx, "Created transaction from recurrence",
			"recurrence_id", cur.ID,
			"transaction_id", tx.ID,
			"amount_cents", tx.Amount.Cents,
			"frequency", cur.Frequency)
		p.publish(ctx, tx)
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to generate occurrence",
			"recurrence_id", failed.ID,
			"occurrence", failed.NextOccurrence.String(),
			"error", err)
		report.Failures = append(report.Failures, Failure{
			RecurrenceID: failed.ID,
			Occurrence:   failed.NextOccurrence.String(),
			Error:        err.Error(),
		})
	}
}

func (p *Processor) publish(ctx context.Context, tx core.Transaction) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishTransactionSync(ctx, tx.OwnerID, tx.ID); err != nil {
		// Don't fail the batch - transaction is saved locally
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"transaction_id", tx.ID,
			"error", err)
	}
}
