// Package worker exports finance transactions to the spreadsheet, either
// one at a time from queue messages or in batches from the pending sweep.
package worker

import (
	"context"
	"errors"
	"fmt"

	"produtivo/internal/amqp"
	"produtivo/internal/core"
	plog "produtivo/internal/log"
	"produtivo/internal/sheets"
	"produtivo/internal/storage"
)

// Store is the persistence the worker reads transactions from and records
// export results in.
type Store interface {
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	GetAccount(ctx context.Context, id string) (core.Account, error)
	GetCategory(ctx context.Context, id string) (core.Category, error)
	ListPendingSync(ctx context.Context, limit int) ([]core.Transaction, error)
	MarkSynced(ctx context.Context, id, ref string) error
	MarkSyncError(ctx context.Context, id string) error
	// SyncStatus returns the export state of id and the reference of its
	// exported row, empty when it was never exported.
	SyncStatus(ctx context.Context, id string) (status, ref string, err error)
}

// SyncWorker handles synchronization of transactions from SQLite to the
// configured exporter.
type SyncWorker struct {
	store     Store
	exporter  sheets.TransactionExporter
	log       *plog.Logger
	batchSize int
}

func NewSyncWorker(store Store, exporter sheets.TransactionExporter, batchSize int, logger *plog.Logger) *SyncWorker {
	if logger == nil {
		logger = plog.Discard()
	}
	if batchSize <= 0 {
		batchSize = 20
	}
	return &SyncWorker{
		store:     store,
		exporter:  exporter,
		log:       logger.WithComponent(plog.ComponentWorker),
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single transaction sync message. Messages
// for transactions that no longer exist, whose owner does not match or that
// are already synced are acknowledged without exporting anything.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	w.log.InfoContext(ctx, "Processing sync message",
		plog.FieldTransactionID, msg.ID,
		"version", msg.Version)

	tx, err := w.store.GetTransaction(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		w.log.WarnContext(ctx, "Transaction no longer exists, dropping message",
			plog.FieldTransactionID, msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}
	if msg.OwnerID != "" && msg.OwnerID != tx.OwnerID {
		w.log.WarnContext(ctx, "Sync message owner mismatch, dropping message",
			plog.FieldTransactionID, msg.ID,
			plog.FieldUserID, msg.OwnerID)
		return nil
	}

	return w.export(ctx, tx)
}

// ExportPending exports up to limit transactions that were never synced or
// failed before. It is the backup path for lost queue messages.
func (w *SyncWorker) ExportPending(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = w.batchSize
	}
	pending, err := w.store.ListPendingSync(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	w.log.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	synced := 0
	for _, tx := range pending {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		if err := w.export(ctx, tx); err != nil {
			w.log.ErrorContext(ctx, "Failed to sync transaction",
				plog.FieldTransactionID, tx.ID,
				plog.FieldError, err)
			continue
		}
		synced++
	}
	return synced, nil
}

// StartupSyncCheck runs a larger sweep at worker startup to recover from
// downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, err := w.ExportPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	w.log.InfoContext(ctx, "Startup sync completed", "synced", synced)
	return nil
}

// export writes tx unless it is already synced. A transaction exported
// before and edited since has its existing row rewritten.
func (w *SyncWorker) export(ctx context.Context, tx core.Transaction) error {
	status, ref, err := w.store.SyncStatus(ctx, tx.ID)
	if err != nil {
		return fmt.Errorf("get sync status: %w", err)
	}
	if status == storage.SyncSynced {
		w.log.DebugContext(ctx, "Transaction already synced",
			plog.FieldTransactionID, tx.ID,
			plog.FieldSheetsRef, ref)
		return nil
	}

	entry := sheets.Entry{Transaction: tx}
	if acc, err := w.store.GetAccount(ctx, tx.AccountID); err == nil {
		entry.AccountName = acc.Name
	}
	if tx.CategoryID != nil {
		if cat, err := w.store.GetCategory(ctx, *tx.CategoryID); err == nil {
			entry.CategoryName = cat.Name
		}
	}

	if ref != "" {
		ref, err = w.exporter.Update(ctx, ref, entry)
	} else {
		ref, err = w.exporter.Export(ctx, entry)
	}
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, tx.ID); markErr != nil {
			w.log.ErrorContext(ctx, "Failed to mark sync error",
				plog.FieldTransactionID, tx.ID,
				plog.FieldError, markErr)
		}
		return fmt.Errorf("export transaction: %w", err)
	}

	// The row is already written; a failed mark only means a later sweep
	// may export it again.
	if err := w.store.MarkSynced(ctx, tx.ID, ref); err != nil {
		w.log.ErrorContext(ctx, "Failed to mark as synced",
			plog.FieldTransactionID, tx.ID,
			plog.FieldError, err)
	}

	w.log.InfoContext(ctx, "Successfully synced transaction",
		plog.FieldTransactionID, tx.ID,
		plog.FieldSheetsRef, ref,
		plog.FieldAmountCents, tx.Amount.Cents)
	return nil
}
