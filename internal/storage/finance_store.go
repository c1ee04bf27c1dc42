package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"produtivo/internal/core"
	"produtivo/internal/state"
)

// Sync states of a transaction's spreadsheet export.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

// FinanceStore keeps accounts, categories, transactions, recurrences and
// budgets in an SQLite file through sqlx.
type FinanceStore struct {
	db      *sqlx.DB
	version uint
}

// OpenFinanceStore opens the database at dbPath and applies migrations.
func OpenFinanceStore(dbPath string) (*FinanceStore, error) {
	if err := ensureDirForSQLite(dbPath); err != nil {
		return nil, err
	}
	version, err := migrateFinance(dbPath)
	if err != nil {
		return nil, fmt.Errorf("migrate finance database: %w", err)
	}

	dsn := "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open finance database: %w", err)
	}
	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	return &FinanceStore{db: db, version: version}, nil
}

// SchemaVersion is the migration version the database was opened at.
func (s *FinanceStore) SchemaVersion() uint {
	return s.version
}

func (s *FinanceStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *FinanceStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func wrapWrite(err error, what string) error {
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", what, core.ErrAlreadyExists)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%s: %w: referenced record does not exist", what, core.ErrInvalidInput)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func expectOne(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, core.ErrNotFound)
	}
	return nil
}

func nullString(p *string) sql.NullString {
	if p == nil || *p == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// Rows

type accountRow struct {
	ID                  string `db:"id"`
	OwnerID             string `db:"owner_id"`
	Name                string `db:"name"`
	Type                string `db:"type"`
	InitialBalanceCents int64  `db:"initial_balance_cents"`
	Currency            string `db:"currency"`
	Color               string `db:"color"`
	Archived            bool   `db:"archived"`
}

func (r accountRow) toCore() core.Account {
	return core.Account{
		ID:             r.ID,
		OwnerID:        r.OwnerID,
		Name:           r.Name,
		Type:           core.AccountType(r.Type),
		InitialBalance: core.Money{Cents: r.InitialBalanceCents},
		Currency:       r.Currency,
		Color:          r.Color,
		Archived:       r.Archived,
	}
}

type categoryRow struct {
	ID       string         `db:"id"`
	OwnerID  string         `db:"owner_id"`
	Name     string         `db:"name"`
	Type     string         `db:"type"`
	ParentID sql.NullString `db:"parent_id"`
	Color    string         `db:"color"`
}

func (r categoryRow) toCore() core.Category {
	return core.Category{
		ID:       r.ID,
		OwnerID:  r.OwnerID,
		Name:     r.Name,
		Type:     core.CategoryType(r.Type),
		ParentID: stringPtr(r.ParentID),
		Color:    r.Color,
	}
}

type transactionRow struct {
	ID             string         `db:"id"`
	OwnerID        string         `db:"owner_id"`
	AccountID      string         `db:"account_id"`
	CategoryID     sql.NullString `db:"category_id"`
	Date           core.Date      `db:"date"`
	AmountCents    int64          `db:"amount_cents"`
	Type           string         `db:"type"`
	Status         string         `db:"status"`
	Description    string         `db:"description"`
	Tags           string         `db:"tags"`
	AttachmentURL  string         `db:"attachment_url"`
	Metadata       string         `db:"metadata"`
	IdempotencyKey sql.NullString `db:"idempotency_key"`
	RecurrenceID   sql.NullString `db:"recurrence_id"`
}

func toTransactionRow(t core.Transaction) (transactionRow, error) {
	meta := "{}"
	if len(t.Metadata) > 0 {
		b, err := json.Marshal(t.Metadata)
		if err != nil {
			return transactionRow{}, fmt.Errorf("encode metadata: %w", err)
		}
		meta = string(b)
	}
	return transactionRow{
		ID:             t.ID,
		OwnerID:        t.OwnerID,
		AccountID:      t.AccountID,
		CategoryID:     nullString(t.CategoryID),
		Date:           t.Date,
		AmountCents:    t.Amount.Cents,
		Type:           string(t.Type),
		Status:         string(t.Status),
		Description:    t.Description,
		Tags:           t.Tags,
		AttachmentURL:  t.AttachmentURL,
		Metadata:       meta,
		IdempotencyKey: nullString(&t.IdempotencyKey),
		RecurrenceID:   nullString(t.RecurrenceID),
	}, nil
}

func (r transactionRow) toCore() (core.Transaction, error) {
	var meta map[string]string
	if r.Metadata != "" && r.Metadata != "{}" {
		if err := json.Unmarshal([]byte(r.Metadata), &meta); err != nil {
			return core.Transaction{}, fmt.Errorf("decode metadata of %s: %w", r.ID, err)
		}
	}
	return core.Transaction{
		ID:             r.ID,
		OwnerID:        r.OwnerID,
		AccountID:      r.AccountID,
		CategoryID:     stringPtr(r.CategoryID),
		Date:           r.Date,
		Amount:         core.Money{Cents: r.AmountCents},
		Type:           core.TransactionType(r.Type),
		Status:         core.TransactionStatus(r.Status),
		Description:    r.Description,
		Tags:           r.Tags,
		AttachmentURL:  r.AttachmentURL,
		Metadata:       meta,
		IdempotencyKey: r.IdempotencyKey.String,
		RecurrenceID:   stringPtr(r.RecurrenceID),
	}, nil
}

type recurrenceRow struct {
	ID             string         `db:"id"`
	OwnerID        string         `db:"owner_id"`
	AccountID      string         `db:"account_id"`
	CategoryID     sql.NullString `db:"category_id"`
	Type           string         `db:"type"`
	Frequency      string         `db:"frequency"`
	BaseDay        int            `db:"base_day"`
	IntervalDays   int            `db:"interval_days"`
	NextOccurrence core.Date      `db:"next_occurrence"`
	AmountCents    int64          `db:"amount_cents"`
	Description    string         `db:"description"`
	Tags           string         `db:"tags"`
	Active         bool           `db:"active"`
}

func toRecurrenceRow(r core.Recurrence) recurrenceRow {
	return recurrenceRow{
		ID:             r.ID,
		OwnerID:        r.OwnerID,
		AccountID:      r.AccountID,
		CategoryID:     nullString(r.CategoryID),
		Type:           string(r.Type),
		Frequency:      string(r.Frequency),
		BaseDay:        r.BaseDay,
		IntervalDays:   r.IntervalDays,
		NextOccurrence: r.NextOccurrence,
		AmountCents:    r.Amount.Cents,
		Description:    r.Description,
		Tags:           r.Tags,
		Active:         r.Active,
	}
}

func (r recurrenceRow) toCore() core.Recurrence {
	return core.Recurrence{
		ID:             r.ID,
		OwnerID:        r.OwnerID,
		AccountID:      r.AccountID,
		CategoryID:     stringPtr(r.CategoryID),
		Type:           core.TransactionType(r.Type),
		Frequency:      core.Frequency(r.Frequency),
		BaseDay:        r.BaseDay,
		IntervalDays:   r.IntervalDays,
		NextOccurrence: r.NextOccurrence,
		Amount:         core.Money{Cents: r.AmountCents},
		Description:    r.Description,
		Tags:           r.Tags,
		Active:         r.Active,
	}
}

type budgetRow struct {
	ID             string `db:"id"`
	OwnerID        string `db:"owner_id"`
	CategoryID     string `db:"category_id"`
	PlannedCents   int64  `db:"planned_cents"`
	Month          string `db:"month"`
	AlertThreshold int    `db:"alert_threshold"`
}

func (r budgetRow) toCore() core.Budget {
	return core.Budget{
		ID:             r.ID,
		OwnerID:        r.OwnerID,
		CategoryID:     r.CategoryID,
		Planned:        core.Money{Cents: r.PlannedCents},
		Month:          r.Month,
		AlertThreshold: r.AlertThreshold,
	}
}

const (
	accountColumns     = `id, owner_id, name, type, initial_balance_cents, currency, color, archived`
	categoryColumns    = `id, owner_id, name, type, parent_id, color`
	transactionColumns = `id, owner_id, account_id, category_id, date, amount_cents, type, status,
		description, tags, attachment_url, metadata, idempotency_key, recurrence_id`
	recurrenceColumns = `id, owner_id, account_id, category_id, type, frequency, base_day, interval_days,
		next_occurrence, amount_cents, description, tags, active`
	budgetColumns = `id, owner_id, category_id, planned_cents, month, alert_threshold`
)

// Load reads the whole finance collection of ownerID.
func (s *FinanceStore) Load(ctx context.Context, ownerID string) (state.Finance, error) {
	var f state.Finance

	var accounts []accountRow
	if err := s.db.SelectContext(ctx, &accounts,
		`SELECT `+accountColumns+` FROM accounts WHERE owner_id = ? ORDER BY lower(name), id`, ownerID); err != nil {
		return f, fmt.Errorf("load accounts: %w", err)
	}
	for _, r := range accounts {
		f.Accounts = append(f.Accounts, r.toCore())
	}

	var categories []categoryRow
	if err := s.db.SelectContext(ctx, &categories,
		`SELECT `+categoryColumns+` FROM categories WHERE owner_id = ? ORDER BY lower(name), id`, ownerID); err != nil {
		return f, fmt.Errorf("load categories: %w", err)
	}
	for _, r := range categories {
		f.Categories = append(f.Categories, r.toCore())
	}

	txs, err := s.ListTransactions(ctx, ownerID)
	if err != nil {
		return f, err
	}
	f.Transactions = txs

	var recs []recurrenceRow
	if err := s.db.SelectContext(ctx, &recs,
		`SELECT `+recurrenceColumns+` FROM recurrences WHERE owner_id = ? ORDER BY next_occurrence, id`, ownerID); err != nil {
		return f, fmt.Errorf("load recurrences: %w", err)
	}
	for _, r := range recs {
		f.Recurrences = append(f.Recurrences, r.toCore())
	}

	var budgets []budgetRow
	if err := s.db.SelectContext(ctx, &budgets,
		`SELECT `+budgetColumns+` FROM budgets WHERE owner_id = ? ORDER BY month DESC, id`, ownerID); err != nil {
		return f, fmt.Errorf("load budgets: %w", err)
	}
	for _, r := range budgets {
		f.Budgets = append(f.Budgets, r.toCore())
	}

	return f, nil
}

// Accounts

func (s *FinanceStore) PutAccount(ctx context.Context, a core.Account) error {
	const q = `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES (:id, :owner_id, :name, :type, :initial_balance_cents, :currency, :color, :archived)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, type = excluded.type,
			initial_balance_cents = excluded.initial_balance_cents,
			currency = excluded.currency, color = excluded.color, archived = excluded.archived
		WHERE accounts.owner_id = excluded.owner_id`
	row := accountRow{
		ID: a.ID, OwnerID: a.OwnerID, Name: a.Name, Type: string(a.Type),
		InitialBalanceCents: a.InitialBalance.Cents, Currency: a.Currency, Color: a.Color, Archived: a.Archived,
	}
	if _, err := s.db.NamedExecContext(ctx, q, row); err != nil {
		return wrapWrite(err, "put account")
	}
	return nil
}

func (s *FinanceStore) DeleteAccount(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return expectOne(res, "account", id)
}

func (s *FinanceStore) GetAccount(ctx context.Context, id string) (core.Account, error) {
	var row accountRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Account{}, fmt.Errorf("account %s: %w", id, core.ErrNotFound)
		}
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return row.toCore(), nil
}

// Categories

func (s *FinanceStore) GetCategory(ctx context.Context, id string) (core.Category, error) {
	var row categoryRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Category{}, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
		}
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return row.toCore(), nil
}

func (s *FinanceStore) PutCategory(ctx context.Context, c core.Category) error {
	const q = `
		INSERT INTO categories (` + categoryColumns + `)
		VALUES (:id, :owner_id, :name, :type, :parent_id, :color)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, type = excluded.type, parent_id = excluded.parent_id, color = excluded.color
		WHERE categories.owner_id = excluded.owner_id`
	row := categoryRow{
		ID: c.ID, OwnerID: c.OwnerID, Name: c.Name, Type: string(c.Type),
		ParentID: nullString(c.ParentID), Color: c.Color,
	}
	if _, err := s.db.NamedExecContext(ctx, q, row); err != nil {
		return wrapWrite(err, "put category")
	}
	return nil
}

func (s *FinanceStore) DeleteCategory(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return expectOne(res, "category", id)
}

// Transactions

const insertTransaction = `
	INSERT INTO transactions (` + transactionColumns + `)
	VALUES (:id, :owner_id, :account_id, :category_id, :date, :amount_cents, :type, :status,
		:description, :tags, :attachment_url, :metadata, :idempotency_key, :recurrence_id)`

func (s *FinanceStore) PutTransaction(ctx context.Context, t core.Transaction) error {
	const q = insertTransaction + `
		ON CONFLICT(id) DO UPDATE SET
			account_id = excluded.account_id, category_id = excluded.category_id, date = excluded.date,
			amount_cents = excluded.amount_cents, type = excluded.type, status = excluded.status,
			description = excluded.description, tags = excluded.tags,
			attachment_url = excluded.attachment_url, metadata = excluded.metadata,
			sync_status = 'pending'
		WHERE transactions.owner_id = excluded.owner_id`
	row, err := toTransactionRow(t)
	if err != nil {
		return err
	}
	if _, err := s.db.NamedExecContext(ctx, q, row); err != nil {
		return wrapWrite(err, "put transaction")
	}
	return nil
}

func (s *FinanceStore) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	var row transactionRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
		}
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return row.toCore()
}

// ListTransactions returns the transactions of ownerID, newest first.
func (s *FinanceStore) ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	var rows []transactionRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT `+transactionColumns+` FROM transactions WHERE owner_id = ? ORDER BY date DESC, created_at DESC, id`, ownerID); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return transactionsToCore(rows)
}

func transactionsToCore(rows []transactionRow) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(rows))
	for _, r := range rows {
		t, err := r.toCore()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *FinanceStore) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return expectOne(res, "transaction", id)
}

// ListPendingSync returns up to limit transactions not yet exported,
// oldest first.
func (s *FinanceStore) ListPendingSync(ctx context.Context, limit int) ([]core.Transaction, error) {
	var rows []transactionRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT `+transactionColumns+` FROM transactions WHERE sync_status != ? ORDER BY created_at, id LIMIT ?`,
		SyncSynced, limit); err != nil {
		return nil, fmt.Errorf("list pending sync: %w", err)
	}
	return transactionsToCore(rows)
}

func (s *FinanceStore) MarkSynced(ctx context.Context, id, ref string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE transactions SET sync_status = ?, sync_ref = ? WHERE id = ?`, SyncSynced, ref, id)
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return expectOne(res, "transaction", id)
}

func (s *FinanceStore) MarkSyncError(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE transactions SET sync_status = ? WHERE id = ?`, SyncError, id)
	if err != nil {
		return fmt.Errorf("mark sync error: %w", err)
	}
	return expectOne(res, "transaction", id)
}

// SyncStatus returns the export state and spreadsheet reference of id.
func (s *FinanceStore) SyncStatus(ctx context.Context, id string) (status, ref string, err error) {
	var row struct {
		Status string `db:"sync_status"`
		Ref    string `db:"sync_ref"`
	}
	if err := s.db.GetContext(ctx, &row, `SELECT sync_status, sync_ref FROM transactions WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
		}
		return "", "", fmt.Errorf("sync status: %w", err)
	}
	return row.Status, row.Ref, nil
}

// Recurrences

func (s *FinanceStore) PutRecurrence(ctx context.Context, r core.Recurrence) error {
	const q = `
		INSERT INTO recurrences (` + recurrenceColumns + `)
		VALUES (:id, :owner_id, :account_id, :category_id, :type, :frequency, :base_day, :interval_days,
			:next_occurrence, :amount_cents, :description, :tags, :active)
		ON CONFLICT(id) DO UPDATE SET
			account_id = excluded.account_id, category_id = excluded.category_id, type = excluded.type,
			frequency = excluded.frequency, base_day = excluded.base_day, interval_days = excluded.interval_days,
			next_occurrence = excluded.next_occurrence, amount_cents = excluded.amount_cents,
			description = excluded.description, tags = excluded.tags, active = excluded.active
		WHERE recurrences.owner_id = excluded.owner_id`
	if _, err := s.db.NamedExecContext(ctx, q, toRecurrenceRow(r)); err != nil {
		return wrapWrite(err, "put recurrence")
	}
	return nil
}

func (s *FinanceStore) DeleteRecurrence(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recurrences WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete recurrence: %w", err)
	}
	return expectOne(res, "recurrence", id)
}

// ListDueRecurrences returns active recurrences due on or before today,
// for ownerID or for everyone when ownerID is empty.
func (s *FinanceStore) ListDueRecurrences(ctx context.Context, ownerID string, today core.Date) ([]core.Recurrence, error) {
	var rows []recurrenceRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT `+recurrenceColumns+` FROM recurrences
		WHERE active = 1 AND next_occurrence <= ? AND (? = '' OR owner_id = ?)
		ORDER BY next_occurrence, id`, today, ownerID, ownerID); err != nil {
		return nil, fmt.Errorf("list due recurrences: %w", err)
	}
	out := make([]core.Recurrence, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCore())
	}
	return out, nil
}

// ApplyOccurrence inserts tx unless its idempotency key is already taken
// and moves r to next, in one database transaction. The recurrence is only
// moved if it still sits on the occurrence being applied.
func (s *FinanceStore) ApplyOccurrence(ctx context.Context, r core.Recurrence, t core.Transaction, next core.Date) (bool, error) {
	row, err := toTransactionRow(t)
	if err != nil {
		return false, err
	}

	dbtx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer dbtx.Rollback()

	res, err := dbtx.NamedExecContext(ctx, insertTransaction+` ON CONFLICT DO NOTHING`, row)
	if err != nil {
		return false, wrapWrite(err, "insert occurrence")
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert occurrence: %w", err)
	}

	moved, err := dbtx.ExecContext(ctx,
		`UPDATE recurrences SET next_occurrence = ? WHERE id = ? AND next_occurrence = ?`,
		next, r.ID, r.NextOccurrence)
	if err != nil {
		return false, fmt.Errorf("advance recurrence: %w", err)
	}
	if n, err := moved.RowsAffected(); err != nil {
		return false, fmt.Errorf("advance recurrence: %w", err)
	} else if n == 0 {
		// Someone else already advanced it; keep their result.
		return false, nil
	}

	if err := dbtx.Commit(); err != nil {
		return false, fmt.Errorf("commit occurrence: %w", err)
	}
	return inserted == 1, nil
}

// Budgets

func (s *FinanceStore) PutBudget(ctx context.Context, b core.Budget) error {
	const q = `
		INSERT INTO budgets (` + budgetColumns + `)
		VALUES (:id, :owner_id, :category_id, :planned_cents, :month, :alert_threshold)
		ON CONFLICT(id) DO UPDATE SET
			category_id = excluded.category_id, planned_cents = excluded.planned_cents,
			month = excluded.month, alert_threshold = excluded.alert_threshold
		WHERE budgets.owner_id = excluded.owner_id`
	row := budgetRow{
		ID: b.ID, OwnerID: b.OwnerID, CategoryID: b.CategoryID, PlannedCents: b.Planned.Cents,
		Month: b.Month, AlertThreshold: b.AlertThreshold,
	}
	if _, err := s.db.NamedExecContext(ctx, q, row); err != nil {
		return wrapWrite(err, "put budget")
	}
	return nil
}

func (s *FinanceStore) DeleteBudget(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM budgets WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return expectOne(res, "budget", id)
}
