package state

import (
	"fmt"
	"strings"

	"produtivo/internal/core"
)

// Finance is the full finance collection of one owner.
type Finance struct {
	Accounts     []core.Account
	Categories   []core.Category
	Transactions []core.Transaction
	Recurrences  []core.Recurrence
	Budgets      []core.Budget
}

func upsert[T any](items []T, v T, idOf func(T) string) ([]T, bool) {
	out := make([]T, len(items), len(items)+1)
	copy(out, items)
	for i := range out {
		if idOf(out[i]) == idOf(v) {
			out[i] = v
			return out, true
		}
	}
	return append(out, v), false
}

func remove[T any](items []T, id string, idOf func(T) string) ([]T, bool) {
	out := make([]T, 0, len(items))
	found := false
	for _, it := range items {
		if idOf(it) == id {
			found = true
			continue
		}
		out = append(out, it)
	}
	return out, found
}

func find[T any](items []T, id string, idOf func(T) string) (T, bool) {
	for _, it := range items {
		if idOf(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

func accountID(a core.Account) string         { return a.ID }
func categoryID(c core.Category) string       { return c.ID }
func transactionID(t core.Transaction) string { return t.ID }
func recurrenceID(r core.Recurrence) string   { return r.ID }
func budgetID(b core.Budget) string           { return b.ID }

func (f Finance) PutAccount(a core.Account) (Finance, error) {
	if err := a.Validate(); err != nil {
		return f, err
	}
	f.Accounts, _ = upsert(f.Accounts, a, accountID)
	return f, nil
}

func (f Finance) PutCategory(c core.Category) (Finance, error) {
	if err := c.Validate(); err != nil {
		return f, err
	}
	if c.ParentID != nil {
		parent, ok := find(f.Categories, *c.ParentID, categoryID)
		if !ok {
			return f, fmt.Errorf("parent category %s: %w", *c.ParentID, core.ErrNotFound)
		}
		if parent.ParentID != nil {
			return f, fmt.Errorf("%w: categories nest only one level", core.ErrInvalidInput)
		}
	}
	f.Categories, _ = upsert(f.Categories, c, categoryID)
	return f, nil
}

func (f Finance) PutTransaction(t core.Transaction) (Finance, error) {
	if err := t.Validate(); err != nil {
		return f, err
	}
	if t.IdempotencyKey != "" {
		if existing, ok := f.FindByIdempotencyKey(t.IdempotencyKey); ok && existing.ID != t.ID {
			return f, fmt.Errorf("transaction %s: %w", t.IdempotencyKey, core.ErrAlreadyExists)
		}
	}
	f.Transactions, _ = upsert(f.Transactions, t, transactionID)
	return f, nil
}

func (f Finance) PutRecurrence(r core.Recurrence) (Finance, error) {
	if err := r.Validate(); err != nil {
		return f, err
	}
	f.Recurrences, _ = upsert(f.Recurrences, r, recurrenceID)
	return f, nil
}

func (f Finance) PutBudget(b core.Budget) (Finance, error) {
	if err := b.Validate(); err != nil {
		return f, err
	}
	f.Budgets, _ = upsert(f.Budgets, b, budgetID)
	return f, nil
}

func (f Finance) DeleteAccount(id string) (Finance, error) {
	var ok bool
	if f.Accounts, ok = remove(f.Accounts, id, accountID); !ok {
		return f, fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	return f, nil
}

func (f Finance) DeleteCategory(id string) (Finance, error) {
	var ok bool
	if f.Categories, ok = remove(f.Categories, id, categoryID); !ok {
		return f, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	return f, nil
}

func (f Finance) DeleteTransaction(id string) (Finance, error) {
	var ok bool
	if f.Transactions, ok = remove(f.Transactions, id, transactionID); !ok {
		return f, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	return f, nil
}

func (f Finance) DeleteRecurrence(id string) (Finance, error) {
	var ok bool
	if f.Recurrences, ok = remove(f.Recurrences, id, recurrenceID); !ok {
		return f, fmt.Errorf("recurrence %s: %w", id, core.ErrNotFound)
	}
	return f, nil
}

func (f Finance) DeleteBudget(id string) (Finance, error) {
	var ok bool
	if f.Budgets, ok = remove(f.Budgets, id, budgetID); !ok {
		return f, fmt.Errorf("budget %s: %w", id, core.ErrNotFound)
	}
	return f, nil
}

func (f Finance) Recurrence(id string) (core.Recurrence, bool) {
	return find(f.Recurrences, id, recurrenceID)
}

func (f Finance) Account(id string) (core.Account, bool) {
	return find(f.Accounts, id, accountID)
}

func (f Finance) Category(id string) (core.Category, bool) {
	return find(f.Categories, id, categoryID)
}

func (f Finance) Transaction(id string) (core.Transaction, bool) {
	return find(f.Transactions, id, transactionID)
}

func (f Finance) Budget(id string) (core.Budget, bool) {
	return find(f.Budgets, id, budgetID)
}

// FindByIdempotencyKey returns the transaction generated for an occurrence.
func (f Finance) FindByIdempotencyKey(key string) (core.Transaction, bool) {
	for _, t := range f.Transactions {
		if t.IdempotencyKey == key {
			return t, true
		}
	}
	return core.Transaction{}, false
}

// AccountBalance sums settled transactions on top of the initial balance.
// Pending transactions are reported apart.
func AccountBalance(a core.Account, txs []core.Transaction) core.AccountBalance {
	bal := core.AccountBalance{AccountID: a.ID, Currency: a.Currency, Balance: a.InitialBalance}
	for _, t := range txs {
		if t.AccountID != a.ID {
			continue
		}
		signed := SignedAmount(t)
		if t.Status == core.TransactionSettled {
			bal.Balance.Cents += signed
		} else {
			bal.Pending.Cents += signed
		}
	}
	return bal
}

// SignedAmount returns the effect of t on its account: expenses subtract,
// income adds, transfers keep the sign they were recorded with.
func SignedAmount(t core.Transaction) int64 {
	abs := t.Amount.Abs().Cents
	switch t.Type {
	case core.TransactionExpense:
		return -abs
	case core.TransactionIncome:
		return abs
	default:
		return t.Amount.Cents
	}
}

// BudgetUsage totals the expenses of the budget's category (and its direct
// subcategories) in the budget's month.
func BudgetUsage(b core.Budget, categories []core.Category, txs []core.Transaction) core.BudgetUsage {
	inScope := map[string]bool{b.CategoryID: true}
	for _, c := range categories {
		if c.ParentID != nil && *c.ParentID == b.CategoryID {
			inScope[c.ID] = true
		}
	}

	var spent int64
	for _, t := range txs {
		if t.Type != core.TransactionExpense || t.CategoryID == nil || !inScope[*t.CategoryID] {
			continue
		}
		if !strings.HasPrefix(t.Date.String(), b.Month) {
			continue
		}
		spent += t.Amount.Abs().Cents
	}

	usage := core.BudgetUsage{
		BudgetID:   b.ID,
		CategoryID: b.CategoryID,
		Month:      b.Month,
		Planned:    b.Planned,
		Spent:      core.Money{Cents: spent},
		Remaining:  core.Money{Cents: b.Planned.Cents - spent},
	}
	if b.Planned.Cents > 0 {
		usage.Percent = int((spent*100 + b.Planned.Cents/2) / b.Planned.Cents)
	}
	usage.Alert = usage.Percent >= b.AlertThreshold
	return usage
}
