package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"produtivo/internal/core"
	plog "produtivo/internal/log"
	"produtivo/internal/recurrence"
	"produtivo/internal/state"
)

// FinanceRepository persists the finance collection of each owner.
type FinanceRepository interface {
	recurrence.Store

	Load(ctx context.Context, ownerID string) (state.Finance, error)
	PutAccount(ctx context.Context, a core.Account) error
	DeleteAccount(ctx context.Context, ownerID, id string) error
	PutCategory(ctx context.Context, c core.Category) error
	DeleteCategory(ctx context.Context, ownerID, id string) error
	PutTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, ownerID, id string) error
	PutRecurrence(ctx context.Context, r core.Recurrence) error
	DeleteRecurrence(ctx context.Context, ownerID, id string) error
	PutBudget(ctx context.Context, b core.Budget) error
	DeleteBudget(ctx context.Context, ownerID, id string) error
}

// TransactionFilter narrows ListTransactions. Zero fields match everything.
type TransactionFilter struct {
	AccountID  string
	CategoryID string
	Type       core.TransactionType
	From       *core.Date
	To         *core.Date
}

func (f TransactionFilter) match(t core.Transaction) bool {
	if f.AccountID != "" && t.AccountID != f.AccountID {
		return false
	}
	if f.CategoryID != "" && (t.CategoryID == nil || *t.CategoryID != f.CategoryID) {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.From != nil && t.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && t.Date.After(*f.To) {
		return false
	}
	return true
}

// FinanceService validates finance mutations against the owner's whole
// collection through the state reducers, then persists the single entity.
type FinanceService struct {
	repo      FinanceRepository
	publisher recurrence.Publisher
	processor *recurrence.Processor
	log       *plog.Logger
	now       func() time.Time
	loc       *time.Location
	newID     func() string
}

// NewFinanceService creates the service. publisher may be nil, in which
// case new transactions are only picked up by the pending-sync sweep.
func NewFinanceService(repo FinanceRepository, publisher recurrence.Publisher, opts recurrence.Options, logger *plog.Logger) *FinanceService {
	if logger == nil {
		logger = plog.Discard()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &FinanceService{
		repo:      repo,
		publisher: publisher,
		processor: recurrence.NewProcessor(repo, publisher, opts),
		log:       logger.WithComponent(plog.ComponentFinance),
		now:       time.Now,
		loc:       time.Local,
		newID:     uuid.NewString,
	}
}

// SetLocation sets the time zone that decides which day is "today".
func (s *FinanceService) SetLocation(loc *time.Location) {
	if loc != nil {
		s.loc = loc
	}
}

func (s *FinanceService) today() core.Date {
	return core.DateOf(s.now(), s.loc)
}

func (s *FinanceService) load(ctx context.Context, ownerID string) (state.Finance, error) {
	if ownerID == "" {
		return state.Finance{}, core.ErrUnauthorized
	}
	f, err := s.repo.Load(ctx, ownerID)
	if err != nil {
		return state.Finance{}, fmt.Errorf("load finance: %w", err)
	}
	return f, nil
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
}

func (s *FinanceService) checkRefs(f state.Finance, accountID string, categoryID *string) error {
	if _, ok := f.Account(accountID); !ok {
		return fmt.Errorf("%w: unknown account %s", core.ErrInvalidInput, accountID)
	}
	if categoryID != nil && *categoryID != "" {
		if _, ok := f.Category(*categoryID); !ok {
			return fmt.Errorf("%w: unknown category %s", core.ErrInvalidInput, *categoryID)
		}
	}
	return nil
}

func blankToNil(p *string) *string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

// Accounts

func (s *FinanceService) Accounts(ctx context.Context, ownerID string) ([]core.Account, error) {
	f, err := s.load(ctx, ownerID)
	return f.Accounts, err
}

// SaveAccount creates the account when id is empty and updates it otherwise.
func (s *FinanceService) SaveAccount(ctx context.Context, ownerID, id string, a core.Account) (core.Account, error) {
	f, err := s.load(ctx, ownerID)
	if err != nil {
		return core.Account{}, err
	}
	if id == "" {
		id = s.newID()
	} else if _, ok := f.Account(id); !ok {
		return core.Account{}, notFound("account", id)
	}
	a.ID, a.OwnerID = id, ownerID
	a.Name = strings.TrimSpace(a.Name)
	a.Currency = strings.ToUpper(strings.TrimSpace(a.Currency))
	if a.Currency == "" {
		a.Currency = "BRL"
	}
	if _, err := f.PutAccount(a); err != nil {
		return core.Account{}, invalid(err)
	}
	if err := s.repo.PutAccount(ctx, a); err != nil {
		return core.Account{}, err
	}
	return a, nil
}

func (s *FinanceService) DeleteAccount(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return core.ErrUnauthorized
	}
	return s.repo.DeleteAccount(ctx, ownerID, id)
}

// Balance returns the current balance of one account.
func (s *FinanceService) Balance(ctx context.Context, ownerID, accountID string) (core.AccountBalance, error) {
	f, err := s.load(ctx, ownerID)
	if err != nil {
		return core.AccountBalance{}, err
	}
	a, ok := f.Account(accountID)
	if !ok {
		return core.AccountBalance{}, notFound("account", accountID)
	}
	return state.AccountBalance(a, f.Transactions), nil
}

// Balances returns the balance of every non-archived account.
func (s *FinanceService) Balances(ctx context.Context, ownerID string) ([]core.AccountBalance, error) {
	f, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]core.AccountBalance, 0, len(f.Accounts))
	for _, a := range f.Accounts {
		if a.Archived {
			continue
		}
		out = append(out, state.AccountBalance(a, f.Transactions))
	}
	return out, nil
}

// Categories

func (s *FinanceService) Categories(ctx context.Context, ownerID string) ([]core.Category, error) {
	f, err := s.load(ctx, ownerID)
	return f.Categories, err
}

func (s *FinanceService) SaveCategory(ctx context.Context, ownerID, id string, c core.Category) (core.Category, error) {
	f, err := s.load(ctx, ownerID)
	if err != nil {
		return core.Category{}, err
	}
	if id == "" {
		id = s.newID()
	} else if _, ok := f.Category(id); !ok {
		return core.Category{}, notFound("category", id)
	}
	c.ID, c.OwnerID = id, ownerID
	c.Name = strings.TrimSpace(c.Name)
	c.ParentID = blankToNil(c.ParentID)
	if c.ParentID != nil {
		for _, child := range f.Categories {
			if child.ParentID != nil && *child.ParentID == id {
				return core.Category{}, fmt.Errorf("%w: a category with subcategories cannot have a parent", core.ErrInvalidInput)
			}
		}
	}
	if _, err := f.PutCategory(c); err != nil {
		return core.Category{}, invalid(err)
	}
	if err := s.repo.PutCategory(ctx, c); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (s *FinanceService) DeleteCategory(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return core.ErrUnauthorized
	}
	return s.repo.DeleteCategory(ctx, ownerID, id)
}

// Transactions

// Transactions lists the owner's transactions matching filter, newest first.
func (s *FinanceService) Transactions(ctx context.Context, ownerID string, filter TransactionFilter) ([]core.Transaction, error) {
	f, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]core.Transaction, 0, len(f.Transactions))
	for _, t := range f.Transactions {
		if filter.match(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *FinanceService) Transaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	f, err := s.load(ctx, ownerID)
	if err != nil {
		return core.Transaction{}, err
	}
	t, ok := f.Transaction(id)
	if !ok {
		return core.Transaction{}, notFound("transaction", id)
	}
	return t, nil
}

// SaveTransaction creates or updates a transaction and queues it for export.
// Idempotency keys and recurrence links are only assigned by generation:
// they are dropped on create and kept from the stored row on update.
func (s *FinanceService) SaveTransaction(ctx context.Context, ownerID, id string, t core.Transaction) (core.Transaction, error) {
	f, err := s.load(ctx, ownerID)
	if err != nil {
		return core.Transaction{}, err
	}
	if id == "" {
		id = s.newID()
		t.IdempotencyKey = ""
		t.RecurrenceID = nil
	} else {
		existing, ok := f.Transaction(id)
		if !ok {
			return core.Transaction{}, notFound("transaction", id)
		}
		t.IdempotencyKey = existing.IdempotencyKey
		t.RecurrenceID = existing.RecurrenceID
	}
	t.ID, t.OwnerID = id, ownerID
	t.CategoryID = blankToNil(t.CategoryID)
	t.Tags = core.JoinTags(core.SplitTags(t.Tags))
	if t.Status == "" {
		t.Status = core.TransactionSettled
	}
	if t.Date.IsZero() {
		t.Date = s.today()
	}

	if err := s.checkRefs(f, t.AccountID, t.CategoryID); err != nil {
		return core.Transaction{}, err
	}
	if _, err := f.PutTransaction(t); err != nil {
		return core.Transaction{}, invalid(err)
	}
	if err := s.repo.PutTransaction(ctx, t); err != nil {
		return core.Transaction{}, err
	}

	s.publish(ctx, t)
	return t, nil
}

func (s *FinanceService) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return core.ErrUnauthorized
	}
	return s.repo.DeleteTransaction(ctx, ownerID, id)
}

// publish is best effort: the transaction is already stored and the sweep
// exports whatever the queue missed.
func (s *FinanceService) publish(ctx context.Context, t core.Transaction) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionSync(ctx, t.OwnerID, t.ID); err != nil {
		s.log.WarnContext(ctx, "Failed to publish sync message",
			plog.FieldTransactionID, t.ID,
			plog.FieldError, err)
	}
}

// Recurrences

func (s *FinanceService) Recurrences(ctx context.Context, ownerID string) ([]core.Recurrence, error) {
	f, err := s.load(ctx, ownerID)
	return f.Recurrences, err
}

func (s *FinanceService) SaveRecurrence(ctx context.Context, ownerID, id string, r core.Recurrence) (core.Recurrence, error) {
	f, err := s.load(ctx, ownerID)
	if err != nil {
		return core.Recurrence{}, err
	}
	if id == "" {
		id = s.newID()
	} else if _, ok := f.Recurrence(id); !ok {
		return core.Recurrence{}, notFound("recurrence", id)
	}
	r.ID, r.OwnerID = id, ownerID
	r.CategoryID = blankToNil(r.CategoryID)
	r.Tags = core.JoinTags(core.SplitTags(r.Tags))
	if r.BaseDay == 0 && !r.NextOccurrence.IsZero() {
		r.BaseDay = r.NextOccurrence.Day()
	}
	if r.Frequency == core.Custom && r.IntervalDays <= 0 {
		return core.Recurrence{}, invalid(recurrence.ErrCustomIntervalUndefined)
	}

	if err := s.checkRefs(f, r.AccountID, r.CategoryID); err != nil {
		return core.Recurrence{}, err
	}
	if _, err := f.PutRecurrence(r); err != nil {
		return core.Recurrence{}, invalid(err)
	}
	if err := s.repo.PutRecurrence(ctx, r); err != nil {
		return core.Recurrence{}, err
	}
	return r, nil
}

func (s *FinanceService) DeleteRecurrence(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return core.ErrUnauthorized
	}
	return s.repo.DeleteRecurrence(ctx, ownerID, id)
}

// GenerateDue materializes the owner's due recurrences as of today.
func (s *FinanceService) GenerateDue(ctx context.Context, ownerID string) (recurrence.Report, error) {
	if ownerID == "" {
		return recurrence.Report{}, core.ErrUnauthorized
	}
	return s.processor.ProcessDue(ctx, ownerID, s.today())
}

// GenerateAll materializes the due recurrences of every owner.
func (s *FinanceService) GenerateAll(ctx context.Context) (recurrence.Report, error) {
	return s.processor.ProcessDue(ctx, "", s.today())
}

// Budgets

func (s *FinanceService) Budgets(ctx context.Context, ownerID string) ([]core.Budget, error) {
	f, err := s.load(ctx, ownerID)
	return f.Budgets, err
}

func (s *FinanceService) SaveBudget(ctx context.Context, ownerID, id string, b core.Budget) (core.Budget, error) {
	f, err := s.load(ctx, ownerID)
	if err != nil {
		return core.Budget{}, err
	}
	if id == "" {
		id = s.newID()
	} else if _, ok := f.Budget(id); !ok {
		return core.Budget{}, notFound("budget", id)
	}
	b.ID, b.OwnerID = id, ownerID
	if b.AlertThreshold == 0 {
		b.AlertThreshold = 80
	}
	if b.Month == "" {
		b.Month = s.today().Format("2006-01")
	}
	if _, ok := f.Category(b.CategoryID); !ok {
		return core.Budget{}, fmt.Errorf("%w: unknown category %s", core.ErrInvalidInput, b.CategoryID)
	}
	for _, other := range f.Budgets {
		if other.ID != id && other.CategoryID == b.CategoryID && other.Month == b.Month {
			return core.Budget{}, fmt.Errorf("budget for %s in %s: %w", b.CategoryID, b.Month, core.ErrAlreadyExists)
		}
	}
	if _, err := f.PutBudget(b); err != nil {
		return core.Budget{}, invalid(err)
	}
	if err := s.repo.PutBudget(ctx, b); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (s *FinanceService) DeleteBudget(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return core.ErrUnauthorized
	}
	return s.repo.DeleteBudget(ctx, ownerID, id)
}

func (s *FinanceService) BudgetUsage(ctx context.Context, ownerID, id string) (core.BudgetUsage, error) {
	f, err := s.load(ctx, ownerID)
	if err != nil {
		return core.BudgetUsage{}, err
	}
	b, ok := f.Budget(id)
	if !ok {
		return core.BudgetUsage{}, notFound("budget", id)
	}
	return state.BudgetUsage(b, f.Categories, f.Transactions), nil
}

// BudgetAlerts returns the usage of the month's budgets that crossed their
// alert threshold, highest percentage first.
func (s *FinanceService) BudgetAlerts(ctx context.Context, ownerID, month string) ([]core.BudgetUsage, error) {
	f, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if month == "" {
		month = s.today().Format("2006-01")
	}
	var out []core.BudgetUsage
	for _, b := range f.Budgets {
		if b.Month != month {
			continue
		}
		if u := state.BudgetUsage(b, f.Categories, f.Transactions); u.Alert {
			out = append(out, u)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Percent > out[j].Percent })
	return out, nil
}
