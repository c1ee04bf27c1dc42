package state

import (
	"errors"
	"testing"

	"produtivo/internal/core"
)

func strPtr(s string) *string { return &s }

func TestFinance_PutCategoryNestsOneLevel(t *testing.T) {
	f := Finance{}
	f, err := f.PutCategory(core.Category{ID: "food", Name: "Food", Type: core.CategoryExpense})
	if err != nil {
		t.Fatalf("PutCategory(root) error = %v", err)
	}
	f, err = f.PutCategory(core.Category{ID: "grocery", Name: "Grocery", Type: core.CategoryExpense, ParentID: strPtr("food")})
	if err != nil {
		t.Fatalf("PutCategory(child) error = %v", err)
	}
	_, err = f.PutCategory(core.Category{ID: "fruit", Name: "Fruit", Type: core.CategoryExpense, ParentID: strPtr("grocery")})
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("grandchild error = %v, want ErrInvalidInput", err)
	}
	_, err = f.PutCategory(core.Category{ID: "x", Name: "X", Type: core.CategoryExpense, ParentID: strPtr("missing")})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("unknown parent error = %v, want ErrNotFound", err)
	}
}

func TestFinance_PutTransactionIdempotencyKey(t *testing.T) {
	tx := core.Transaction{
		ID:             "t1",
		AccountID:      "acc",
		Date:           core.NewDate(2024, 1, 1),
		Amount:         core.Money{Cents: 500},
		Type:           core.TransactionExpense,
		Status:         core.TransactionSettled,
		IdempotencyKey: "r1:2024-01-01",
	}
	f, err := Finance{}.PutTransaction(tx)
	if err != nil {
		t.Fatalf("PutTransaction() error = %v", err)
	}
	dup := tx
	dup.ID = "t2"
	if _, err := f.PutTransaction(dup); !errors.Is(err, core.ErrAlreadyExists) {
		t.Fatalf("duplicate key error = %v, want ErrAlreadyExists", err)
	}
	// Updating the same transaction keeps its key.
	tx.Description = "edited"
	if _, err := f.PutTransaction(tx); err != nil {
		t.Fatalf("update error = %v", err)
	}
}

func TestFinance_DeleteMissing(t *testing.T) {
	if _, err := (Finance{}).DeleteAccount("nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("DeleteAccount() error = %v", err)
	}
	if _, err := (Finance{}).DeleteBudget("nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("DeleteBudget() error = %v", err)
	}
}

func TestAccountBalance(t *testing.T) {
	acc := core.Account{ID: "a", Currency: "BRL", InitialBalance: core.Money{Cents: 10000}}
	txs := []core.Transaction{
		{AccountID: "a", Amount: core.Money{Cents: 2500}, Type: core.TransactionExpense, Status: core.TransactionSettled},
		{AccountID: "a", Amount: core.Money{Cents: 5000}, Type: core.TransactionIncome, Status: core.TransactionSettled},
		{AccountID: "a", Amount: core.Money{Cents: 1000}, Type: core.TransactionExpense, Status: core.TransactionPending},
		{AccountID: "a", Amount: core.Money{Cents: -300}, Type: core.TransactionTransfer, Status: core.TransactionSettled},
		{AccountID: "b", Amount: core.Money{Cents: 9999}, Type: core.TransactionIncome, Status: core.TransactionSettled},
	}

	got := AccountBalance(acc, txs)
	if got.Balance.Cents != 12200 {
		t.Errorf("Balance = %d, want 12200", got.Balance.Cents)
	}
	if got.Pending.Cents != -1000 {
		t.Errorf("Pending = %d, want -1000", got.Pending.Cents)
	}
}

func TestBudgetUsage(t *testing.T) {
	cats := []core.Category{
		{ID: "food", Name: "Food", Type: core.CategoryExpense},
		{ID: "grocery", Name: "Grocery", Type: core.CategoryExpense, ParentID: strPtr("food")},
	}
	budget := core.Budget{ID: "b1", CategoryID: "food", Planned: core.Money{Cents: 10000}, Month: "2024-03", AlertThreshold: 80}
	txs := []core.Transaction{
		{CategoryID: strPtr("food"), Date: core.NewDate(2024, 3, 2), Amount: core.Money{Cents: 3000}, Type: core.TransactionExpense},
		{CategoryID: strPtr("grocery"), Date: core.NewDate(2024, 3, 20), Amount: core.Money{Cents: 5000}, Type: core.TransactionExpense},
		{CategoryID: strPtr("grocery"), Date: core.NewDate(2024, 4, 1), Amount: core.Money{Cents: 5000}, Type: core.TransactionExpense},
		{CategoryID: strPtr("food"), Date: core.NewDate(2024, 3, 5), Amount: core.Money{Cents: 7000}, Type: core.TransactionIncome},
	}

	got := BudgetUsage(budget, cats, txs)
	if got.Spent.Cents != 8000 || got.Remaining.Cents != 2000 {
		t.Fatalf("spent/remaining = %d/%d, want 8000/2000", got.Spent.Cents, got.Remaining.Cents)
	}
	if got.Percent != 80 || !got.Alert {
		t.Fatalf("percent = %d alert = %v, want 80 true", got.Percent, got.Alert)
	}
}
