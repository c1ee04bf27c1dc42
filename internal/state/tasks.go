// Package state holds explicit, copy-on-write containers for the task and
// finance collections. Every mutation returns a new value and leaves the
// receiver untouched, so the same container can back an HTTP handler, a
// worker or a test without shared mutable state.
package state

import (
	"fmt"
	"time"

	"produtivo/internal/core"
)

// DeletedTask remembers the last removed task and where it was.
type DeletedTask struct {
	Task  core.Task
	Index int
}

// Tasks is the task collection plus a one-deep undo buffer for deletions.
type Tasks struct {
	Items       []core.Task
	LastDeleted *DeletedTask
}

func NewTasks(items []core.Task) Tasks {
	return Tasks{Items: cloneTasks(items)}
}

// Find returns the task with the given id.
func (s Tasks) Find(id string) (core.Task, bool) {
	for _, t := range s.Items {
		if t.ID == id {
			return cloneTask(t), true
		}
	}
	return core.Task{}, false
}

func (s Tasks) indexOf(id string) int {
	for i, t := range s.Items {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Add appends t after validating it.
func (s Tasks) Add(t core.Task) (Tasks, error) {
	if err := t.Validate(); err != nil {
		return s, err
	}
	if s.indexOf(t.ID) >= 0 {
		return s, fmt.Errorf("task %s: %w", t.ID, core.ErrAlreadyExists)
	}
	next := s.copy()
	next.Items = append(next.Items, cloneTask(t))
	return next, nil
}

// Update applies fn to the task with id and stamps UpdatedAt.
func (s Tasks) Update(id string, now time.Time, fn func(core.Task) core.Task) (Tasks, error) {
	i := s.indexOf(id)
	if i < 0 {
		return s, fmt.Errorf("task %s: %w", id, core.ErrNotFound)
	}
	updated := fn(cloneTask(s.Items[i]))
	updated.ID = id
	if err := updated.Validate(); err != nil {
		return s, err
	}
	updated.UpdatedAt = now
	next := s.copy()
	next.Items[i] = updated
	return next, nil
}

// SetStatus moves a task to status, keeping CompletedAt consistent with it.
func (s Tasks) SetStatus(id string, status core.TaskStatus, now time.Time) (Tasks, error) {
	if !status.Valid() {
		return s, core.ErrInvalidStatus
	}
	return s.Update(id, now, func(t core.Task) core.Task {
		return ApplyStatus(t, status, now)
	})
}

// ToggleStatus flips a task between pending and completed.
func (s Tasks) ToggleStatus(id string, now time.Time) (Tasks, error) {
	t, ok := s.Find(id)
	if !ok {
		return s, fmt.Errorf("task %s: %w", id, core.ErrNotFound)
	}
	status := core.StatusCompleted
	if t.IsCompleted() {
		status = core.StatusPending
	}
	return s.SetStatus(id, status, now)
}

// ToggleSubtask flips the completed flag of one subtask.
func (s Tasks) ToggleSubtask(taskID, subtaskID string, now time.Time) (Tasks, error) {
	found := false
	next, err := s.Update(taskID, now, func(t core.Task) core.Task {
		for i := range t.Subtasks {
			if t.Subtasks[i].ID == subtaskID {
				t.Subtasks[i].Completed = !t.Subtasks[i].Completed
				found = true
			}
		}
		return t
	})
	if err != nil {
		return s, err
	}
	if !found {
		return s, fmt.Errorf("subtask %s: %w", subtaskID, core.ErrNotFound)
	}
	return next, nil
}

// Delete removes the task and keeps it as the single restorable deletion,
// replacing whatever was there before.
func (s Tasks) Delete(id string) (Tasks, error) {
	i := s.indexOf(id)
	if i < 0 {
		return s, fmt.Errorf("task %s: %w", id, core.ErrNotFound)
	}
	next := Tasks{Items: make([]core.Task, 0, len(s.Items)-1)}
	next.Items = append(next.Items, cloneTasks(s.Items[:i])...)
	next.Items = append(next.Items, cloneTasks(s.Items[i+1:])...)
	next.LastDeleted = &DeletedTask{Task: cloneTask(s.Items[i]), Index: i}
	return next, nil
}

// RestoreLastDeleted puts the last deleted task back at its old position.
// The second return is false when there is nothing to restore.
func (s Tasks) RestoreLastDeleted() (Tasks, bool) {
	if s.LastDeleted == nil {
		return s, false
	}
	idx := s.LastDeleted.Index
	if idx > len(s.Items) {
		idx = len(s.Items)
	}
	next := Tasks{Items: make([]core.Task, 0, len(s.Items)+1)}
	next.Items = append(next.Items, cloneTasks(s.Items[:idx])...)
	next.Items = append(next.Items, cloneTask(s.LastDeleted.Task))
	next.Items = append(next.Items, cloneTasks(s.Items[idx:])...)
	return next, true
}

// DeleteList detaches every task from listID. Tasks are kept (orphaned),
// never deleted along with their list.
func (s Tasks) DeleteList(listID string, now time.Time) Tasks {
	next := s.copy()
	for i := range next.Items {
		if next.Items[i].ListID == listID {
			next.Items[i].ListID = ""
			next.Items[i].UpdatedAt = now
		}
	}
	return next
}

// ApplyStatus sets status on t and stamps or clears CompletedAt.
func ApplyStatus(t core.Task, status core.TaskStatus, now time.Time) core.Task {
	if status == t.Status {
		return t
	}
	t.Status = status
	if status == core.StatusCompleted {
		ts := now
		t.CompletedAt = &ts
	} else {
		t.CompletedAt = nil
	}
	return t
}

func (s Tasks) copy() Tasks {
	next := Tasks{Items: cloneTasks(s.Items)}
	if s.LastDeleted != nil {
		d := *s.LastDeleted
		d.Task = cloneTask(d.Task)
		next.LastDeleted = &d
	}
	return next
}

func cloneTasks(in []core.Task) []core.Task {
	if in == nil {
		return nil
	}
	out := make([]core.Task, len(in))
	for i, t := range in {
		out[i] = cloneTask(t)
	}
	return out
}

func cloneTask(t core.Task) core.Task {
	t.Tags = append([]string(nil), t.Tags...)
	t.PhotoURLs = append([]string(nil), t.PhotoURLs...)
	t.Subtasks = append([]core.Subtask(nil), t.Subtasks...)
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	if t.CompletedAt != nil {
		c := *t.CompletedAt
		t.CompletedAt = &c
	}
	return t
}
