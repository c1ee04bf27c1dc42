package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"produtivo/internal/analytics"
	"produtivo/internal/cache"
	"produtivo/internal/core"
	plog "produtivo/internal/log"
	"produtivo/internal/search"
	"produtivo/internal/state"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// TaskRepository is the persistence the task service needs.
type TaskRepository interface {
	CreateTask(ctx context.Context, t core.Task) error
	GetTask(ctx context.Context, id string) (core.Task, error)
	SaveTask(ctx context.Context, t core.Task) error
	DeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context, ownerID string) ([]core.Task, error)
	CreateList(ctx context.Context, l core.TaskList) error
	ListLists(ctx context.Context, ownerID string) ([]core.TaskList, error)
	DeleteList(ctx context.Context, ownerID, listID string, now time.Time) error
}

// TaskInput carries the fields of a create or update request. Nil fields
// are left untouched on update.
type TaskInput struct {
	Title        *string          `json:"title"`
	Description  *string          `json:"description"`
	Status       *core.TaskStatus `json:"status"`
	Priority     *core.Priority   `json:"priority"`
	ListID       *string          `json:"list_id"`
	Tags         *[]string        `json:"tags"`
	DueDate      *core.Date       `json:"due_date"`
	ClearDueDate bool             `json:"clear_due_date"`
	Link         *string          `json:"link"`
	PhotoURLs    *[]string        `json:"photo_urls"`
	Subtasks     *[]core.Subtask  `json:"subtasks"`
}

// TaskQuery selects a page of tasks.
type TaskQuery struct {
	Query  string
	Filter search.Filter
	Page   int
	Limit  int
}

type Page struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type TaskPage struct {
	Items      []core.Task
	Pagination Page
}

// TaskService implements task and list use cases on top of a TaskRepository.
type TaskService struct {
	repo    TaskRepository
	reports cache.Cache[analytics.Report]
	log     *plog.Logger
	now     func() time.Time
	loc     *time.Location
	newID   func() string

	mu      sync.Mutex
	deleted map[string]state.Tasks
}

// NewTaskService creates the service. reports may be nil to disable the
// analytics cache.
func NewTaskService(repo TaskRepository, reports cache.Cache[analytics.Report], logger *plog.Logger) *TaskService {
	if logger == nil {
		logger = plog.Discard()
	}
	return &TaskService{
		repo:    repo,
		reports: reports,
		log:     logger.WithComponent(plog.ComponentTasks),
		now:     time.Now,
		loc:     time.Local,
		newID:   uuid.NewString,
		deleted: make(map[string]state.Tasks),
	}
}

// SetLocation sets the time zone used for date buckets and analytics.
func (s *TaskService) SetLocation(loc *time.Location) {
	if loc != nil {
		s.loc = loc
	}
}

func invalid(err error) error {
	if errors.Is(err, core.ErrInvalidInput) || errors.Is(err, core.ErrAlreadyExists) {
		return err
	}
	return fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
}

func normalizePriority(p core.Priority) (core.Priority, error) {
	parsed, ok := core.ParsePriority(string(p))
	if !ok {
		return "", invalid(core.ErrInvalidPriority)
	}
	return parsed, nil
}

func normalizeStatus(st core.TaskStatus) (core.TaskStatus, error) {
	parsed, ok := core.ParseStatus(string(st))
	if !ok {
		return "", invalid(core.ErrInvalidStatus)
	}
	return parsed, nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimPrefix(strings.TrimSpace(t), "#")
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// apply copies the set fields of in onto t.
func (s *TaskService) apply(t core.Task, in TaskInput, now time.Time) (core.Task, error) {
	if in.Title != nil {
		t.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Priority != nil {
		p, err := normalizePriority(*in.Priority)
		if err != nil {
			return t, err
		}
		t.Priority = p
	}
	if in.Status != nil {
		st, err := normalizeStatus(*in.Status)
		if err != nil {
			return t, err
		}
		t = state.ApplyStatus(t, st, now)
	}
	if in.ListID != nil {
		t.ListID = strings.TrimSpace(*in.ListID)
	}
	if in.Tags != nil {
		t.Tags = cleanTags(*in.Tags)
	}
	if in.ClearDueDate {
		t.DueDate = nil
	} else if in.DueDate != nil && !in.DueDate.IsZero() {
		d := *in.DueDate
		t.DueDate = &d
	}
	if in.Link != nil {
		t.Link = strings.TrimSpace(*in.Link)
	}
	if in.PhotoURLs != nil {
		t.PhotoURLs = append([]string{}, (*in.PhotoURLs)...)
	}
	if in.Subtasks != nil {
		subs := make([]core.Subtask, 0, len(*in.Subtasks))
		for _, st := range *in.Subtasks {
			st.Title = strings.TrimSpace(st.Title)
			if st.Title == "" {
				return t, invalid(errors.New("subtask title cannot be empty"))
			}
			if st.ID == "" {
				st.ID = s.newID()
			}
			subs = append(subs, st)
		}
		t.Subtasks = subs
	}
	return t, nil
}

func (s *TaskService) checkList(ctx context.Context, ownerID, listID string) error {
	if listID == "" {
		return nil
	}
	lists, err := s.repo.ListLists(ctx, ownerID)
	if err != nil {
		return err
	}
	for _, l := range lists {
		if l.ID == listID {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown list %s", core.ErrInvalidInput, listID)
}

func (s *TaskService) Create(ctx context.Context, ownerID string, in TaskInput) (core.Task, error) {
	now := s.now()
	t := core.Task{
		ID:        s.newID(),
		OwnerID:   ownerID,
		Status:    core.StatusPending,
		Priority:  core.PriorityMedium,
		Tags:      []string{},
		PhotoURLs: []string{},
		Subtasks:  []core.Subtask{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	t, err := s.apply(t, in, now)
	if err != nil {
		return core.Task{}, err
	}

	// Validation goes through the state reducer so create and update share rules.
	if _, err := state.NewTasks(nil).Add(t); err != nil {
		return core.Task{}, invalid(err)
	}
	if err := s.checkList(ctx, ownerID, t.ListID); err != nil {
		return core.Task{}, err
	}
	if err := s.repo.CreateTask(ctx, t); err != nil {
		return core.Task{}, fmt.Errorf("create task: %w", err)
	}

	s.invalidate(ownerID)
	s.log.InfoContext(ctx, "Task created", plog.FieldTaskID, t.ID, plog.FieldUserID, ownerID)
	return t, nil
}

// Get returns a task. Anonymous viewers (empty viewerID) may read any task;
// signed-in viewers only their own.
func (s *TaskService) Get(ctx context.Context, viewerID, id string) (core.Task, error) {
	t, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return core.Task{}, err
	}
	if viewerID != "" && t.OwnerID != viewerID {
		return core.Task{}, fmt.Errorf("task %s: %w", id, core.ErrNotFound)
	}
	return t, nil
}

func (s *TaskService) owned(ctx context.Context, ownerID, id string) (core.Task, error) {
	if ownerID == "" {
		return core.Task{}, core.ErrUnauthorized
	}
	return s.Get(ctx, ownerID, id)
}

// List returns one page of the viewer's tasks filtered by query and filter.
func (s *TaskService) List(ctx context.Context, viewerID string, q TaskQuery) (TaskPage, error) {
	tasks, err := s.repo.ListTasks(ctx, viewerID)
	if err != nil {
		return TaskPage{}, err
	}
	var lists []core.TaskList
	if viewerID != "" {
		if lists, err = s.repo.ListLists(ctx, viewerID); err != nil {
			return TaskPage{}, err
		}
	}

	matched := search.Apply(tasks, q.Query, q.Filter, search.Options{
		Now:      s.now(),
		Location: s.loc,
		Lists:    lists,
	})
	return paginate(matched, q.Page, q.Limit), nil
}

func paginate(tasks []core.Task, page, limit int) TaskPage {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	total := len(tasks)
	p := Page{Page: page, Limit: limit, Total: int64(total), TotalPages: (total + limit - 1) / limit}

	start := (page - 1) * limit
	if start >= total {
		return TaskPage{Items: []core.Task{}, Pagination: p}
	}
	end := start + limit
	if end > total {
		end = total
	}
	return TaskPage{Items: tasks[start:end], Pagination: p}
}

func (s *TaskService) save(ctx context.Context, t core.Task) (core.Task, error) {
	if err := s.repo.SaveTask(ctx, t); err != nil {
		return core.Task{}, fmt.Errorf("save task: %w", err)
	}
	s.invalidate(t.OwnerID)
	return t, nil
}

func (s *TaskService) Update(ctx context.Context, ownerID, id string, in TaskInput) (core.Task, error) {
	current, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return core.Task{}, err
	}

	now := s.now()
	patched, err := s.apply(current, in, now)
	if err != nil {
		return core.Task{}, err
	}
	next, err := state.NewTasks([]core.Task{current}).Update(id, now, func(core.Task) core.Task { return patched })
	if err != nil {
		return core.Task{}, invalid(err)
	}
	updated, _ := next.Find(id)
	if in.ListID != nil && updated.ListID != current.ListID {
		if err := s.checkList(ctx, ownerID, updated.ListID); err != nil {
			return core.Task{}, err
		}
	}
	return s.save(ctx, updated)
}

// ToggleStatus flips a task between pending and completed.
func (s *TaskService) ToggleStatus(ctx context.Context, ownerID, id string) (core.Task, error) {
	current, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return core.Task{}, err
	}
	next, err := state.NewTasks([]core.Task{current}).ToggleStatus(id, s.now())
	if err != nil {
		return core.Task{}, err
	}
	updated, _ := next.Find(id)
	return s.save(ctx, updated)
}

func (s *TaskService) ToggleSubtask(ctx context.Context, ownerID, id, subtaskID string) (core.Task, error) {
	current, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return core.Task{}, err
	}
	next, err := state.NewTasks([]core.Task{current}).ToggleSubtask(id, subtaskID, s.now())
	if err != nil {
		return core.Task{}, err
	}
	updated, _ := next.Find(id)
	return s.save(ctx, updated)
}

// Delete removes a task and remembers it so RestoreLastDeleted can undo it.
// Only the most recent deletion per owner is kept.
func (s *TaskService) Delete(ctx context.Context, ownerID, id string) (core.Task, error) {
	current, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return core.Task{}, err
	}
	if err := s.repo.DeleteTask(ctx, id); err != nil {
		return core.Task{}, fmt.Errorf("delete task: %w", err)
	}
	next, _ := state.NewTasks([]core.Task{current}).Delete(id)

	s.mu.Lock()
	s.deleted[ownerID] = next
	s.mu.Unlock()

	s.invalidate(ownerID)
	s.log.InfoContext(ctx, "Task deleted", plog.FieldTaskID, id, plog.FieldUserID, ownerID)
	return current, nil
}

// RestoreLastDeleted recreates the owner's most recently deleted task.
func (s *TaskService) RestoreLastDeleted(ctx context.Context, ownerID string) (core.Task, error) {
	s.mu.Lock()
	snapshot, ok := s.deleted[ownerID]
	delete(s.deleted, ownerID)
	s.mu.Unlock()

	if !ok {
		return core.Task{}, fmt.Errorf("deleted task: %w", core.ErrNotFound)
	}
	restored, ok := snapshot.RestoreLastDeleted()
	if !ok || len(restored.Items) == 0 {
		return core.Task{}, fmt.Errorf("deleted task: %w", core.ErrNotFound)
	}
	t := restored.Items[0]
	// The list may have been deleted since; restore the task detached.
	if err := s.checkList(ctx, ownerID, t.ListID); err != nil {
		if !errors.Is(err, core.ErrInvalidInput) {
			return core.Task{}, fmt.Errorf("restore task: %w", err)
		}
		t.ListID = ""
	}
	if err := s.repo.CreateTask(ctx, t); err != nil {
		return core.Task{}, fmt.Errorf("restore task: %w", err)
	}
	s.invalidate(ownerID)
	return t, nil
}

// Lists

func (s *TaskService) CreateList(ctx context.Context, ownerID, name, color string) (core.TaskList, error) {
	l := core.TaskList{ID: s.newID(), OwnerID: ownerID, Name: strings.TrimSpace(name), Color: strings.TrimSpace(color)}
	if err := l.Validate(); err != nil {
		return core.TaskList{}, invalid(err)
	}
	if err := s.repo.CreateList(ctx, l); err != nil {
		return core.TaskList{}, fmt.Errorf("create list: %w", err)
	}
	return l, nil
}

func (s *TaskService) Lists(ctx context.Context, ownerID string) ([]core.TaskList, error) {
	return s.repo.ListLists(ctx, ownerID)
}

// DeleteList removes a list. Its tasks stay, detached from any list.
func (s *TaskService) DeleteList(ctx context.Context, ownerID, listID string) error {
	if err := s.repo.DeleteList(ctx, ownerID, listID, s.now()); err != nil {
		return err
	}
	s.invalidate(ownerID)
	return nil
}

// Analytics

// Analytics computes the owner's report for window, serving repeated calls
// on the same day from the cache.
func (s *TaskService) Analytics(ctx context.Context, ownerID string, window analytics.Window) (analytics.Report, error) {
	now := s.now()
	key := fmt.Sprintf("%s:%s:%s", ownerID, window, core.DateOf(now, s.loc))
	if s.reports != nil {
		if r, ok := s.reports.Get(key); ok {
			return r, nil
		}
	}

	tasks, err := s.repo.ListTasks(ctx, ownerID)
	if err != nil {
		return analytics.Report{}, err
	}
	report := analytics.Compute(tasks, window, analytics.Options{Now: now, Location: s.loc})
	if s.reports != nil {
		s.reports.Set(key, report)
	}
	return report, nil
}

func (s *TaskService) invalidate(ownerID string) {
	if s.reports != nil {
		s.reports.DeletePrefix(ownerID + ":")
	}
}
