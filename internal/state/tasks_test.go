package state

import (
	"errors"
	"testing"
	"time"

	"produtivo/internal/core"
)

func task(id, title string) core.Task {
	return core.Task{
		ID:       id,
		Title:    title,
		Status:   core.StatusPending,
		Priority: core.PriorityMedium,
		Tags:     []string{"work"},
	}
}

func TestTasks_AddAndFind(t *testing.T) {
	s := NewTasks(nil)
	next, err := s.Add(task("1", "Write report"))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if len(s.Items) != 0 {
		t.Fatal("Add must not mutate the receiver")
	}
	if _, ok := next.Find("1"); !ok {
		t.Fatal("added task not found")
	}
	if _, err := next.Add(task("1", "dup")); !errors.Is(err, core.ErrAlreadyExists) {
		t.Fatalf("duplicate id error = %v, want ErrAlreadyExists", err)
	}
	if _, err := next.Add(task("2", "   ")); !errors.Is(err, core.ErrEmptyTitle) {
		t.Fatalf("empty title error = %v", err)
	}
}

func TestTasks_FindReturnsCopy(t *testing.T) {
	s := NewTasks([]core.Task{task("1", "a")})
	got, _ := s.Find("1")
	got.Tags[0] = "changed"
	again, _ := s.Find("1")
	if again.Tags[0] != "work" {
		t.Fatal("Find leaked internal slice")
	}
}

func TestTasks_ToggleStatus(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewTasks([]core.Task{task("1", "a")})

	done, err := s.ToggleStatus("1", now)
	if err != nil {
		t.Fatalf("ToggleStatus() error = %v", err)
	}
	got, _ := done.Find("1")
	if got.Status != core.StatusCompleted || got.CompletedAt == nil || !got.CompletedAt.Equal(now) {
		t.Fatalf("expected completed with timestamp, got %+v", got)
	}

	undone, _ := done.ToggleStatus("1", now.Add(time.Hour))
	got, _ = undone.Find("1")
	if got.Status != core.StatusPending || got.CompletedAt != nil {
		t.Fatalf("expected pending without completion time, got %+v", got)
	}

	if _, err := s.ToggleStatus("missing", now); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("missing task error = %v", err)
	}
}

func TestTasks_SetStatusRejectsInvalid(t *testing.T) {
	s := NewTasks([]core.Task{task("1", "a")})
	if _, err := s.SetStatus("1", "archived", time.Now()); !errors.Is(err, core.ErrInvalidStatus) {
		t.Fatalf("SetStatus() error = %v, want ErrInvalidStatus", err)
	}
}

func TestTasks_ToggleSubtask(t *testing.T) {
	base := task("1", "a")
	base.Subtasks = []core.Subtask{{ID: "s1", Title: "step"}}
	s := NewTasks([]core.Task{base})

	next, err := s.ToggleSubtask("1", "s1", time.Now())
	if err != nil {
		t.Fatalf("ToggleSubtask() error = %v", err)
	}
	got, _ := next.Find("1")
	if !got.Subtasks[0].Completed {
		t.Fatal("subtask not toggled")
	}
	orig, _ := s.Find("1")
	if orig.Subtasks[0].Completed {
		t.Fatal("receiver mutated")
	}
	if _, err := s.ToggleSubtask("1", "nope", time.Now()); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("missing subtask error = %v", err)
	}
}

func TestTasks_DeleteAndRestore(t *testing.T) {
	s := NewTasks([]core.Task{task("1", "a"), task("2", "b"), task("3", "c")})

	afterDelete, err := s.Delete("2")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(afterDelete.Items) != 2 || afterDelete.LastDeleted == nil {
		t.Fatalf("unexpected state after delete: %+v", afterDelete)
	}

	restored, ok := afterDelete.RestoreLastDeleted()
	if !ok {
		t.Fatal("expected restore to succeed")
	}
	if len(restored.Items) != 3 || restored.Items[1].ID != "2" {
		t.Fatalf("task not restored at its old position: %+v", restored.Items)
	}
	if restored.LastDeleted != nil {
		t.Fatal("undo buffer should be empty after restore")
	}
	if _, ok := restored.RestoreLastDeleted(); ok {
		t.Fatal("second restore should be a no-op")
	}
}

func TestTasks_DeleteKeepsOnlyLastDeletion(t *testing.T) {
	s := NewTasks([]core.Task{task("1", "a"), task("2", "b")})
	s, _ = s.Delete("1")
	s, _ = s.Delete("2")

	restored, ok := s.RestoreLastDeleted()
	if !ok || len(restored.Items) != 1 || restored.Items[0].ID != "2" {
		t.Fatalf("only the last deletion should be restorable, got %+v", restored.Items)
	}
}

func TestTasks_DeleteListOrphansTasks(t *testing.T) {
	a := task("1", "a")
	a.ListID = "inbox"
	b := task("2", "b")
	b.ListID = "other"
	s := NewTasks([]core.Task{a, b})

	next := s.DeleteList("inbox", time.Now())
	if len(next.Items) != 2 {
		t.Fatal("tasks must survive list deletion")
	}
	if next.Items[0].ListID != "" || next.Items[1].ListID != "other" {
		t.Fatalf("unexpected list ids: %q %q", next.Items[0].ListID, next.Items[1].ListID)
	}
}
