package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	AccountWallet AccountType = "wallet"
	AccountBank   AccountType = "bank"
	AccountCard   AccountType = "card"

	CategoryExpense CategoryType = "expense"
	CategoryIncome  CategoryType = "income"

	TransactionExpense  TransactionType = "expense"
	TransactionIncome   TransactionType = "income"
	TransactionTransfer TransactionType = "transfer"

	TransactionPending TransactionStatus = "pending"
	TransactionSettled TransactionStatus = "settled"

	Monthly Frequency = "monthly"
	Weekly  Frequency = "weekly"
	Yearly  Frequency = "yearly"
	Custom  Frequency = "custom"
)

type (
	AccountType       string
	CategoryType      string
	TransactionType   string
	TransactionStatus string
	Frequency         string

	Account struct {
		ID             string      `json:"id"`
		OwnerID        string      `json:"owner_id"`
		Name           string      `json:"name"`
		Type           AccountType `json:"type"`
		InitialBalance Money       `json:"initial_balance"`
		Currency       string      `json:"currency"`
		Color          string      `json:"color"`
		Archived       bool        `json:"archived"`
	}

	Category struct {
		ID       string       `json:"id"`
		OwnerID  string       `json:"owner_id"`
		Name     string       `json:"name"`
		Type     CategoryType `json:"type"`
		ParentID *string      `json:"parent_id,omitempty"`
		Color    string       `json:"color"`
	}

	Transaction struct {
		ID             string            `json:"id"`
		OwnerID        string            `json:"owner_id"`
		AccountID      string            `json:"account_id"`
		CategoryID     *string           `json:"category_id,omitempty"`
		Date           Date              `json:"date"`
		Amount         Money             `json:"amount"`
		Type           TransactionType   `json:"type"`
		Status         TransactionStatus `json:"status"`
		Description    string            `json:"description,omitempty"`
		Tags           string            `json:"tags,omitempty"`
		AttachmentURL  string            `json:"attachment_url,omitempty"`
		Metadata       map[string]string `json:"metadata,omitempty"`
		IdempotencyKey string            `json:"idempotency_key,omitempty"`
		RecurrenceID   *string           `json:"recurrence_id,omitempty"`
	}

	Recurrence struct {
		ID             string          `json:"id"`
		OwnerID        string          `json:"owner_id"`
		AccountID      string          `json:"account_id"`
		CategoryID     *string         `json:"category_id,omitempty"`
		Type           TransactionType `json:"type"`
		Frequency      Frequency       `json:"frequency"`
		BaseDay        int             `json:"base_day"`
		IntervalDays   int             `json:"interval_days,omitempty"`
		NextOccurrence Date            `json:"next_occurrence"`
		Amount         Money           `json:"amount"`
		Description    string          `json:"description,omitempty"`
		Tags           string          `json:"tags,omitempty"`
		Active         bool            `json:"active"`
	}

	Budget struct {
		ID             string `json:"id"`
		OwnerID        string `json:"owner_id"`
		CategoryID     string `json:"category_id"`
		Planned        Money  `json:"planned"`
		Month          string `json:"month"`
		AlertThreshold int    `json:"alert_threshold"`
	}
)

var (
	ErrInvalidAccountType     = errors.New("invalid account type")
	ErrInvalidCategoryType    = errors.New("invalid category type")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidTxStatus        = errors.New("invalid transaction status")
	ErrInvalidFrequency       = errors.New("invalid frequency")
	ErrInvalidBaseDay         = errors.New("base day must be between 1 and 31")
	ErrInvalidThreshold       = errors.New("alert threshold must be between 1 and 100")
	ErrInvalidBudgetMonth     = errors.New("budget month must be YYYY-MM")
	ErrEmptyAccount           = errors.New("account is required")
	ErrEmptyCategory          = errors.New("category is required")
	ErrSelfParent             = errors.New("category cannot be its own parent")
)

var budgetMonthRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	switch a.Type {
	case AccountWallet, AccountBank, AccountCard:
	default:
		return ErrInvalidAccountType
	}
	if len(strings.TrimSpace(a.Currency)) != 3 {
		return fmt.Errorf("invalid currency %q: must be a 3-letter code", a.Currency)
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.Type != CategoryExpense && c.Type != CategoryIncome {
		return ErrInvalidCategoryType
	}
	if c.ParentID != nil && c.ID != "" && *c.ParentID == c.ID {
		return ErrSelfParent
	}
	return nil
}

func validTransactionType(t TransactionType) bool {
	switch t {
	case TransactionExpense, TransactionIncome, TransactionTransfer:
		return true
	}
	return false
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.AccountID) == "" {
		return ErrEmptyAccount
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !validTransactionType(t.Type) {
		return ErrInvalidTransactionType
	}
	if t.Status != TransactionPending && t.Status != TransactionSettled {
		return ErrInvalidTxStatus
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

// TagList splits the comma-joined tag string.
func (t Transaction) TagList() []string {
	return SplitTags(t.Tags)
}

func (r Recurrence) Validate() error {
	if strings.TrimSpace(r.AccountID) == "" {
		return ErrEmptyAccount
	}
	if !validTransactionType(r.Type) {
		return ErrInvalidTransactionType
	}
	switch r.Frequency {
	case Monthly, Weekly, Yearly:
	case Custom:
		if r.IntervalDays <= 0 {
			return errors.New("custom frequency requires interval_days > 0")
		}
	default:
		return ErrInvalidFrequency
	}
	if r.BaseDay < 1 || r.BaseDay > 31 {
		return ErrInvalidBaseDay
	}
	if err := r.NextOccurrence.Validate(); err != nil {
		return fmt.Errorf("invalid next occurrence: %w", err)
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if len(r.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if b.Planned.Cents <= 0 {
		return ErrInvalidAmount
	}
	if !budgetMonthRe.MatchString(b.Month) {
		return ErrInvalidBudgetMonth
	}
	if b.AlertThreshold < 1 || b.AlertThreshold > 100 {
		return ErrInvalidThreshold
	}
	return nil
}

// SplitTags turns "a, b,c" into [a b c], dropping empty entries.
func SplitTags(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// JoinTags is the inverse of SplitTags.
func JoinTags(tags []string) string {
	return strings.Join(tags, ",")
}
