package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"produtivo/internal/core"
	"produtivo/internal/recurrence"
)

var _ recurrence.Store = (*FinanceStore)(nil)

func newTestFinanceStore(t *testing.T) *FinanceStore {
	t.Helper()
	store, err := OpenFinanceStore(filepath.Join(t.TempDir(), "finance.db"))
	if err != nil {
		t.Fatalf("OpenFinanceStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedAccount(t *testing.T, store *FinanceStore) core.Account {
	t.Helper()
	acc := core.Account{ID: "acc", OwnerID: "u1", Name: "Nubank", Type: core.AccountBank, Currency: "BRL", InitialBalance: core.Money{Cents: 1000}}
	if err := store.PutAccount(context.Background(), acc); err != nil {
		t.Fatalf("PutAccount() error = %v", err)
	}
	return acc
}

func TestMigrateFinance_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finance.db")
	first, err := migrateFinance(path)
	if err != nil {
		t.Fatalf("first migrateFinance() error = %v", err)
	}
	second, err := migrateFinance(path)
	if err != nil {
		t.Fatalf("second migrateFinance() error = %v", err)
	}
	if first != 1 || second != first {
		t.Fatalf("versions = %d, %d, want 1, 1", first, second)
	}

	store, err := OpenFinanceStore(path)
	if err != nil {
		t.Fatalf("OpenFinanceStore() error = %v", err)
	}
	defer store.Close()
	if got := store.SchemaVersion(); got != 1 {
		t.Errorf("SchemaVersion() = %d, want 1", got)
	}
}

func TestFinanceStore_LoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestFinanceStore(t)
	seedAccount(t, store)

	parent := "food"
	if err := store.PutCategory(ctx, core.Category{ID: "food", OwnerID: "u1", Name: "Food", Type: core.CategoryExpense}); err != nil {
		t.Fatalf("PutCategory() error = %v", err)
	}
	if err := store.PutCategory(ctx, core.Category{ID: "grocery", OwnerID: "u1", Name: "Grocery", Type: core.CategoryExpense, ParentID: &parent}); err != nil {
		t.Fatalf("PutCategory(child) error = %v", err)
	}
	tx := core.Transaction{
		ID: "t1", OwnerID: "u1", AccountID: "acc", CategoryID: &parent,
		Date: core.NewDate(2024, 3, 2), Amount: core.Money{Cents: 2500},
		Type: core.TransactionExpense, Status: core.TransactionSettled,
		Description: "market", Tags: "home,food", Metadata: map[string]string{"source": "manual"},
	}
	if err := store.PutTransaction(ctx, tx); err != nil {
		t.Fatalf("PutTransaction() error = %v", err)
	}
	if err := store.PutBudget(ctx, core.Budget{ID: "b1", OwnerID: "u1", CategoryID: "food", Planned: core.Money{Cents: 10000}, Month: "2024-03", AlertThreshold: 80}); err != nil {
		t.Fatalf("PutBudget() error = %v", err)
	}

	f, err := store.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(f.Accounts) != 1 || len(f.Categories) != 2 || len(f.Transactions) != 1 || len(f.Budgets) != 1 {
		t.Fatalf("unexpected collection sizes: %+v", f)
	}
	got := f.Transactions[0]
	if !got.Date.Equal(tx.Date) || got.Amount != tx.Amount || got.Metadata["source"] != "manual" || got.IdempotencyKey != "" {
		t.Errorf("transaction round trip = %+v", got)
	}
	if got.CategoryID == nil || *got.CategoryID != "food" {
		t.Errorf("category = %v", got.CategoryID)
	}

	other, _ := store.Load(ctx, "u2")
	if len(other.Accounts) != 0 || len(other.Transactions) != 0 {
		t.Errorf("another owner sees data: %+v", other)
	}
}

func TestFinanceStore_OwnerScopedWrites(t *testing.T) {
	ctx := context.Background()
	store := newTestFinanceStore(t)
	acc := seedAccount(t, store)

	hijack := acc
	hijack.OwnerID = "intruder"
	hijack.Name = "mine now"
	if err := store.PutAccount(ctx, hijack); err != nil {
		t.Fatalf("PutAccount() error = %v", err)
	}
	f, _ := store.Load(ctx, "u1")
	if f.Accounts[0].Name != "Nubank" {
		t.Fatal("another owner overwrote the account")
	}

	if err := store.DeleteAccount(ctx, "intruder", "acc"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("DeleteAccount() by another owner error = %v", err)
	}
}

func TestFinanceStore_ForeignKeys(t *testing.T) {
	store := newTestFinanceStore(t)
	tx := core.Transaction{
		ID: "t1", OwnerID: "u1", AccountID: "missing", Date: core.NewDate(2024, 1, 1),
		Amount: core.Money{Cents: 1}, Type: core.TransactionExpense, Status: core.TransactionSettled,
	}
	if err := store.PutTransaction(context.Background(), tx); !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("PutTransaction() with unknown account error = %v, want ErrInvalidInput", err)
	}
}

func TestFinanceStore_ApplyOccurrence(t *testing.T) {
	ctx := context.Background()
	store := newTestFinanceStore(t)
	seedAccount(t, store)

	rec := core.Recurrence{
		ID: "r1", OwnerID: "u1", AccountID: "acc", Type: core.TransactionExpense,
		Frequency: core.Monthly, BaseDay: 15, NextOccurrence: core.NewDate(2024, 1, 15),
		Amount: core.Money{Cents: 10000}, Description: "rent", Active: true,
	}
	if err := store.PutRecurrence(ctx, rec); err != nil {
		t.Fatalf("PutRecurrence() error = %v", err)
	}

	due, err := store.ListDueRecurrences(ctx, "", core.NewDate(2024, 1, 20))
	if err != nil || len(due) != 1 {
		t.Fatalf("ListDueRecurrences() = %+v, %v", due, err)
	}
	if none, _ := store.ListDueRecurrences(ctx, "u1", core.NewDate(2024, 1, 14)); len(none) != 0 {
		t.Fatalf("recurrence due too early: %+v", none)
	}

	tx := core.Transaction{
		ID: "gen-1", OwnerID: "u1", AccountID: "acc", Date: rec.NextOccurrence, Amount: rec.Amount,
		Type: core.TransactionExpense, Status: core.TransactionSettled, Description: "rent",
		IdempotencyKey: "r1:2024-01-15",
	}
	next := core.NewDate(2024, 2, 15)
	created, err := store.ApplyOccurrence(ctx, due[0], tx, next)
	if err != nil || !created {
		t.Fatalf("ApplyOccurrence() = %v, %v", created, err)
	}

	// Replaying the same occurrence with a stale recurrence changes nothing.
	tx.ID = "gen-2"
	created, err = store.ApplyOccurrence(ctx, due[0], tx, next)
	if err != nil || created {
		t.Fatalf("replayed ApplyOccurrence() = %v, %v", created, err)
	}

	f, _ := store.Load(ctx, "u1")
	if len(f.Transactions) != 1 || f.Transactions[0].ID != "gen-1" {
		t.Fatalf("transactions = %+v", f.Transactions)
	}
	if !f.Recurrences[0].NextOccurrence.Equal(next) {
		t.Fatalf("next occurrence = %s, want %s", f.Recurrences[0].NextOccurrence, next)
	}
}

func TestFinanceStore_SyncStatus(t *testing.T) {
	ctx := context.Background()
	store := newTestFinanceStore(t)
	seedAccount(t, store)

	for _, id := range []string{"t1", "t2"} {
		tx := core.Transaction{
			ID: id, OwnerID: "u1", AccountID: "acc", Date: core.NewDate(2024, 1, 1),
			Amount: core.Money{Cents: 100}, Type: core.TransactionIncome, Status: core.TransactionSettled,
		}
		if err := store.PutTransaction(ctx, tx); err != nil {
			t.Fatalf("PutTransaction() error = %v", err)
		}
	}

	if err := store.MarkSynced(ctx, "t1", "Transactions!A2"); err != nil {
		t.Fatalf("MarkSynced() error = %v", err)
	}
	if err := store.MarkSyncError(ctx, "t2"); err != nil {
		t.Fatalf("MarkSyncError() error = %v", err)
	}

	status, ref, err := store.SyncStatus(ctx, "t1")
	if err != nil || status != SyncSynced || ref != "Transactions!A2" {
		t.Fatalf("SyncStatus(t1) = %s %s %v", status, ref, err)
	}
	pending, err := store.ListPendingSync(ctx, 10)
	if err != nil || len(pending) != 1 || pending[0].ID != "t2" {
		t.Fatalf("ListPendingSync() = %+v, %v", pending, err)
	}
	if err := store.MarkSynced(ctx, "nope", ""); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("MarkSynced(missing) error = %v", err)
	}
}
