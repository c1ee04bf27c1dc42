package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"produtivo/internal/analytics"
	"produtivo/internal/cache"
	"produtivo/internal/core"
	"produtivo/internal/search"
)

type memoryTaskRepo struct {
	mu        sync.Mutex
	tasks     map[string]core.Task
	lists     map[string]core.TaskList
	listCalls int
}

func newMemoryTaskRepo() *memoryTaskRepo {
	return &memoryTaskRepo{tasks: map[string]core.Task{}, lists: map[string]core.TaskList{}}
}

func (m *memoryTaskRepo) CreateTask(_ context.Context, t core.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[t.ID]; ok {
		return core.ErrAlreadyExists
	}
	m.tasks[t.ID] = t
	return nil
}

func (m *memoryTaskRepo) GetTask(_ context.Context, id string) (core.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return core.Task{}, fmt.Errorf("task %s: %w", id, core.ErrNotFound)
	}
	return t, nil
}

func (m *memoryTaskRepo) SaveTask(_ context.Context, t core.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[t.ID]; !ok {
		return core.ErrNotFound
	}
	m.tasks[t.ID] = t
	return nil
}

func (m *memoryTaskRepo) DeleteTask(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *memoryTaskRepo) ListTasks(_ context.Context, ownerID string) ([]core.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	var out []core.Task
	for _, t := range m.tasks {
		if ownerID == "" || t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryTaskRepo) CreateList(_ context.Context, l core.TaskList) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists[l.ID] = l
	return nil
}

func (m *memoryTaskRepo) ListLists(_ context.Context, ownerID string) ([]core.TaskList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.TaskList
	for _, l := range m.lists {
		if l.OwnerID == ownerID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memoryTaskRepo) DeleteList(_ context.Context, ownerID, listID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lists[listID]
	if !ok || l.OwnerID != ownerID {
		return core.ErrNotFound
	}
	delete(m.lists, listID)
	for id, t := range m.tasks {
		if t.ListID == listID {
			t.ListID = ""
			t.UpdatedAt = now
			m.tasks[id] = t
		}
	}
	return nil
}

var testNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func newTestTaskService(repo TaskRepository, reports cache.Cache[analytics.Report]) *TaskService {
	s := NewTaskService(repo, reports, nil)
	s.now = func() time.Time { return testNow }
	s.loc = time.UTC
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("id-%02d", n)
	}
	return s
}

func ptr[T any](v T) *T { return &v }

func TestTaskService_CreateDefaultsAndValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestTaskService(newMemoryTaskRepo(), nil)

	task, err := s.Create(ctx, "u1", TaskInput{
		Title:    ptr("  Write report "),
		Priority: ptr(core.Priority("alta")),
		Tags:     ptr([]string{"#work", "work", " "}),
		Subtasks: ptr([]core.Subtask{{Title: "outline"}}),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if task.Title != "Write report" || task.Priority != core.PriorityHigh || task.Status != core.StatusPending {
		t.Errorf("unexpected task %+v", task)
	}
	if len(task.Tags) != 1 || task.Tags[0] != "work" {
		t.Errorf("tags = %v", task.Tags)
	}
	if len(task.Subtasks) != 1 || task.Subtasks[0].ID == "" {
		t.Errorf("subtasks = %+v", task.Subtasks)
	}

	tests := []struct {
		name string
		in   TaskInput
	}{
		{"missing title", TaskInput{}},
		{"bad priority", TaskInput{Title: ptr("x"), Priority: ptr(core.Priority("extreme"))}},
		{"bad status", TaskInput{Title: ptr("x"), Status: ptr(core.TaskStatus("done?"))}},
		{"unknown list", TaskInput{Title: ptr("x"), ListID: ptr("nope")}},
		{"empty subtask", TaskInput{Title: ptr("x"), Subtasks: ptr([]core.Subtask{{Title: " "}})}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Create(ctx, "u1", tt.in); !errors.Is(err, core.ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestTaskService_OwnershipIsNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestTaskService(newMemoryTaskRepo(), nil)
	task, _ := s.Create(ctx, "u1", TaskInput{Title: ptr("mine")})

	if _, err := s.Get(ctx, "u2", task.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get by other owner error = %v", err)
	}
	if _, err := s.Get(ctx, "", task.ID); err != nil {
		t.Errorf("anonymous Get error = %v", err)
	}
	if _, err := s.Update(ctx, "u2", task.ID, TaskInput{Title: ptr("stolen")}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Update by other owner error = %v", err)
	}
	if _, err := s.Delete(ctx, "u2", task.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Delete by other owner error = %v", err)
	}
}

func TestTaskService_UpdateStatusStampsCompletion(t *testing.T) {
	ctx := context.Background()
	s := newTestTaskService(newMemoryTaskRepo(), nil)
	task, _ := s.Create(ctx, "u1", TaskInput{Title: ptr("x"), DueDate: ptr(core.NewDate(2024, 5, 20))})

	updated, err := s.Update(ctx, "u1", task.ID, TaskInput{Status: ptr(core.TaskStatus("concluida"))})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Status != core.StatusCompleted || updated.CompletedAt == nil || !updated.CompletedAt.Equal(testNow) {
		t.Fatalf("unexpected completion: %+v", updated)
	}
	if updated.DueDate == nil {
		t.Fatal("due date lost on partial update")
	}

	cleared, err := s.Update(ctx, "u1", task.ID, TaskInput{ClearDueDate: true})
	if err != nil || cleared.DueDate != nil {
		t.Fatalf("clear due date = %+v, %v", cleared.DueDate, err)
	}

	toggled, err := s.ToggleStatus(ctx, "u1", task.ID)
	if err != nil || toggled.Status != core.StatusPending || toggled.CompletedAt != nil {
		t.Fatalf("ToggleStatus() = %+v, %v", toggled, err)
	}
}

func TestTaskService_ToggleSubtask(t *testing.T) {
	ctx := context.Background()
	s := newTestTaskService(newMemoryTaskRepo(), nil)
	task, _ := s.Create(ctx, "u1", TaskInput{Title: ptr("x"), Subtasks: ptr([]core.Subtask{{ID: "s1", Title: "a"}})})

	got, err := s.ToggleSubtask(ctx, "u1", task.ID, "s1")
	if err != nil || !got.Subtasks[0].Completed {
		t.Fatalf("ToggleSubtask() = %+v, %v", got.Subtasks, err)
	}
	if _, err := s.ToggleSubtask(ctx, "u1", task.ID, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing subtask error = %v", err)
	}
}

func TestTaskService_ListSearchAndPaginate(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryTaskRepo()
	s := newTestTaskService(repo, nil)

	list, _ := s.CreateList(ctx, "u1", "Trabalho", "")
	for i := 0; i < 12; i++ {
		in := TaskInput{Title: ptr(fmt.Sprintf("task %d", i))}
		if i%2 == 0 {
			in.Tags = ptr([]string{"work"})
			in.Priority = ptr(core.PriorityHigh)
			in.ListID = ptr(list.ID)
		}
		if _, err := s.Create(ctx, "u1", in); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	s.Create(ctx, "u2", TaskInput{Title: ptr("other owner"), Tags: ptr([]string{"work"})})

	tests := []struct {
		name      string
		query     TaskQuery
		wantItems int
		wantTotal int64
		wantPages int
	}{
		{"default page", TaskQuery{}, 10, 12, 2},
		{"second page", TaskQuery{Page: 2}, 2, 12, 2},
		{"beyond last page", TaskQuery{Page: 5}, 0, 12, 2},
		{"smart query", TaskQuery{Query: "#work prioridade:alta"}, 6, 6, 1},
		{"list by name", TaskQuery{Query: "lista:trabalho", Limit: 3}, 3, 6, 2},
		{"structured filter", TaskQuery{Filter: search.Filter{Priorities: []core.Priority{core.PriorityMedium}}}, 6, 6, 1},
		{"limit capped", TaskQuery{Limit: 1000}, 12, 12, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := s.List(ctx, "u1", tt.query)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(page.Items) != tt.wantItems || page.Pagination.Total != tt.wantTotal || page.Pagination.TotalPages != tt.wantPages {
				t.Errorf("got %d items, pagination %+v", len(page.Items), page.Pagination)
			}
		})
	}

	all, _ := s.List(ctx, "", TaskQuery{Limit: 100})
	if all.Pagination.Total != 13 {
		t.Errorf("anonymous total = %d, want 13", all.Pagination.Total)
	}
}

func TestTaskService_DeleteAndRestore(t *testing.T) {
	ctx := context.Background()
	s := newTestTaskService(newMemoryTaskRepo(), nil)
	a, _ := s.Create(ctx, "u1", TaskInput{Title: ptr("a")})
	b, _ := s.Create(ctx, "u1", TaskInput{Title: ptr("b")})

	if _, err := s.Delete(ctx, "u1", a.ID); err != nil {
		t.Fatalf("Delete(a) error = %v", err)
	}
	if _, err := s.Delete(ctx, "u1", b.ID); err != nil {
		t.Fatalf("Delete(b) error = %v", err)
	}

	restored, err := s.RestoreLastDeleted(ctx, "u1")
	if err != nil || restored.ID != b.ID {
		t.Fatalf("RestoreLastDeleted() = %+v, %v", restored, err)
	}
	if _, err := s.RestoreLastDeleted(ctx, "u1"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second restore error = %v", err)
	}
	if _, err := s.Get(ctx, "u1", a.ID); !errors.Is(err, core.ErrNotFound) {
		t.Error("only the last deletion should be restorable")
	}
}

func TestTaskService_DeleteListOrphans(t *testing.T) {
	ctx := context.Background()
	s := newTestTaskService(newMemoryTaskRepo(), nil)
	l, _ := s.CreateList(ctx, "u1", "Casa", "#fff")
	task, _ := s.Create(ctx, "u1", TaskInput{Title: ptr("x"), ListID: ptr(l.ID)})

	if err := s.DeleteList(ctx, "u1", l.ID); err != nil {
		t.Fatalf("DeleteList() error = %v", err)
	}
	got, err := s.Get(ctx, "u1", task.ID)
	if err != nil || got.ListID != "" {
		t.Fatalf("task after list deletion = %+v, %v", got, err)
	}
	if _, err := s.CreateList(ctx, "u1", " ", ""); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("empty list name error = %v", err)
	}
}

func TestTaskService_RestoreAfterListDeleted(t *testing.T) {
	ctx := context.Background()
	s := newTestTaskService(newMemoryTaskRepo(), nil)
	gone, _ := s.CreateList(ctx, "u1", "Casa", "")
	kept, _ := s.CreateList(ctx, "u1", "Trabalho", "")
	a, _ := s.Create(ctx, "u1", TaskInput{Title: ptr("a"), ListID: ptr(gone.ID)})

	if _, err := s.Delete(ctx, "u1", a.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.DeleteList(ctx, "u1", gone.ID); err != nil {
		t.Fatalf("DeleteList() error = %v", err)
	}
	restored, err := s.RestoreLastDeleted(ctx, "u1")
	if err != nil || restored.ListID != "" {
		t.Fatalf("RestoreLastDeleted() = %+v, %v", restored, err)
	}
	if got, _ := s.Get(ctx, "u1", a.ID); got.ListID != "" {
		t.Errorf("stored task list = %q, want none", got.ListID)
	}

	b, _ := s.Create(ctx, "u1", TaskInput{Title: ptr("b"), ListID: ptr(kept.ID)})
	s.Delete(ctx, "u1", b.ID)
	restored, err = s.RestoreLastDeleted(ctx, "u1")
	if err != nil || restored.ListID != kept.ID {
		t.Errorf("restore into existing list = %+v, %v", restored, err)
	}
}

func TestTaskService_AnalyticsCache(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryTaskRepo()
	reports := cache.NewLRUCache[analytics.Report](10, time.Hour)
	s := newTestTaskService(repo, reports)

	task, _ := s.Create(ctx, "u1", TaskInput{Title: ptr("x")})

	first, err := s.Analytics(ctx, "u1", analytics.WindowWeek)
	if err != nil || first.Total != 1 || first.CompletionRate != 0 {
		t.Fatalf("Analytics() = %+v, %v", first, err)
	}
	calls := repo.listCalls
	if _, err := s.Analytics(ctx, "u1", analytics.WindowWeek); err != nil {
		t.Fatal(err)
	}
	if repo.listCalls != calls {
		t.Error("second call should be served from the cache")
	}

	if _, err := s.ToggleStatus(ctx, "u1", task.ID); err != nil {
		t.Fatal(err)
	}
	after, _ := s.Analytics(ctx, "u1", analytics.WindowWeek)
	if after.Completed != 1 || after.CompletionRate != 100 {
		t.Errorf("report after mutation = %+v", after)
	}
}
