package core

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"

	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

type (
	TaskStatus string
	Priority   string

	Subtask struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Completed bool   `json:"completed"`
	}

	Task struct {
		ID          string     `json:"id"`
		OwnerID     string     `json:"owner_id"`
		Title       string     `json:"title"`
		Description string     `json:"description,omitempty"`
		Status      TaskStatus `json:"status"`
		Priority    Priority   `json:"priority"`
		ListID      string     `json:"list_id,omitempty"`
		Tags        []string   `json:"tags"`
		DueDate     *Date      `json:"due_date,omitempty"`
		CompletedAt *time.Time `json:"completed_at,omitempty"`
		Link        string     `json:"link,omitempty"`
		PhotoURLs   []string   `json:"photo_urls"`
		Subtasks    []Subtask  `json:"subtasks"`
		CreatedAt   time.Time  `json:"created_at"`
		UpdatedAt   time.Time  `json:"updated_at"`
	}

	TaskList struct {
		ID      string `json:"id"`
		OwnerID string `json:"owner_id"`
		Name    string `json:"name"`
		Color   string `json:"color"`
	}

	User struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
	}
)

var (
	ErrEmptyTitle       = errors.New("empty title")
	ErrTitleTooLong     = errors.New("title too long (max 200 characters)")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidPriority  = errors.New("invalid priority")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrPasswordTooShort = errors.New("password too short (min 6 characters)")
)

var priorityAliases = map[string]Priority{
	"low":     PriorityLow,
	"baixa":   PriorityLow,
	"medium":  PriorityMedium,
	"media":   PriorityMedium,
	"média":   PriorityMedium,
	"high":    PriorityHigh,
	"alta":    PriorityHigh,
	"urgent":  PriorityUrgent,
	"urgente": PriorityUrgent,
}

var statusAliases = map[string]TaskStatus{
	"pending":    StatusPending,
	"pendente":   StatusPending,
	"pendentes":  StatusPending,
	"completed":  StatusCompleted,
	"concluida":  StatusCompleted,
	"concluída":  StatusCompleted,
	"concluidas": StatusCompleted,
	"concluídas": StatusCompleted,
}

// ParsePriority accepts the canonical names and their Portuguese forms.
func ParsePriority(s string) (Priority, bool) {
	p, ok := priorityAliases[strings.ToLower(strings.TrimSpace(s))]
	return p, ok
}

// ParseStatus accepts the canonical names and their Portuguese forms.
func ParseStatus(s string) (TaskStatus, bool) {
	st, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]
	return st, ok
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

func (s TaskStatus) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// IsCompleted reports whether the task is done.
func (t Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// HasTag reports whether the task carries tag, compared case-sensitively.
func (t Task) HasTag(tag string) bool {
	for _, v := range t.Tags {
		if v == tag {
			return true
		}
	}
	return false
}

func (t Task) Validate() error {
	title := strings.TrimSpace(t.Title)
	if title == "" {
		return ErrEmptyTitle
	}
	if len(title) > 200 {
		return ErrTitleTooLong
	}
	if !t.Status.Valid() {
		return ErrInvalidStatus
	}
	if !t.Priority.Valid() {
		return ErrInvalidPriority
	}
	for _, st := range t.Subtasks {
		if strings.TrimSpace(st.Title) == "" {
			return errors.New("subtask title cannot be empty")
		}
	}
	return nil
}

func (l TaskList) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// ValidateEmail checks the address syntax.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateRegistration checks the fields required to create an account.
func ValidateRegistration(name, email, password string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if len(password) < 6 {
		return ErrPasswordTooShort
	}
	return nil
}
