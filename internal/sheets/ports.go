// Package sheets exports finance transactions to a spreadsheet.
package sheets

import (
	"context"

	"github.com/shopspring/decimal"

	"produtivo/internal/core"
)

// Header is the column layout of the exported sheet.
var Header = []any{"Date", "Description", "Amount", "Type", "Account", "Category", "Tags"}

// Entry is a transaction with its account and category resolved to names.
type Entry struct {
	Transaction  core.Transaction
	AccountName  string
	CategoryName string
}

// TransactionExporter writes transactions to the export target. Export
// appends a row and returns a reference to it; Update rewrites the row at a
// reference previously returned by Export.
type TransactionExporter interface {
	Export(ctx context.Context, e Entry) (ref string, err error)
	Update(ctx context.Context, ref string, e Entry) (string, error)
}

// Row renders e in Header order. Amounts are written as plain decimals so
// the spreadsheet locale decides how they are displayed.
func Row(e Entry) []any {
	tx := e.Transaction
	account := e.AccountName
	if account == "" {
		account = tx.AccountID
	}
	return []any{
		tx.Date.String(),
		tx.Description,
		decimal.New(tx.Amount.Cents, -2).StringFixed(2),
		string(tx.Type),
		account,
		e.CategoryName,
		tx.Tags,
	}
}
