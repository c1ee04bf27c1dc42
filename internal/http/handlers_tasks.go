package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"produtivo/internal/analytics"
	"produtivo/internal/core"
	"produtivo/internal/http/respond"
	"produtivo/internal/services"
)

// parseTaskQuery reads page, limit, q and the structured filters. Status
// and priority accept the same aliases as the smart search.
func parseTaskQuery(r *http.Request) (services.TaskQuery, error) {
	q := r.URL.Query()
	var tq services.TaskQuery
	var err error

	if tq.Page, err = queryInt(q, "page"); err != nil {
		return tq, err
	}
	if tq.Limit, err = queryInt(q, "limit"); err != nil {
		return tq, err
	}
	tq.Query = sanitizeInput(q.Get("q"))

	for _, v := range queryList(q, "status") {
		st, ok := core.ParseStatus(v)
		if !ok {
			return tq, fmt.Errorf("%w: unknown status %q", core.ErrInvalidInput, v)
		}
		tq.Filter.Statuses = append(tq.Filter.Statuses, st)
	}
	for _, v := range queryList(q, "priority") {
		p, ok := core.ParsePriority(v)
		if !ok {
			return tq, fmt.Errorf("%w: unknown priority %q", core.ErrInvalidInput, v)
		}
		tq.Filter.Priorities = append(tq.Filter.Priorities, p)
	}
	tq.Filter.ListIDs = queryList(q, "list")
	for _, tag := range queryList(q, "tag") {
		tq.Filter.Tags = append(tq.Filter.Tags, strings.TrimPrefix(tag, "#"))
	}
	if tq.Filter.DueFrom, err = queryDate(q, "due_from"); err != nil {
		return tq, err
	}
	if tq.Filter.DueTo, err = queryDate(q, "due_to"); err != nil {
		return tq, err
	}
	return tq, nil
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tq, err := parseTaskQuery(r)
	if err != nil {
		s.resp.Err(w, r, err)
		return
	}
	page, err := s.tasks.List(r.Context(), currentUserID(r), tq)
	if err != nil {
		s.resp.Err(w, r, err)
		return
	}
	respond.Page(w, page.Items, respond.Pagination(page.Pagination))
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.tasks.Get(r.Context(), currentUserID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.resp.Err(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, "", t)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in services.TaskInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.resp.Err(w, r, err)
		return
	}
	t, err := s.tasks.Create(r.Context(), currentUserID(r), in)
	if err != nil {
		s.resp.Err(w, r, err)
		return
	}
	respond.Success(w, http.StatusCreated, "Task created", t)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var in services.TaskInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.resp.Err(w, r, err)
		return
	}
	t, err := s.tasks.Update(r.Context(), currentUserID(r), chi.URLParam(r, "id"), in)
	if err != nil {
		s.resp.Err(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, "Task updated", t)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.tasks.Delete(r.Context(), currentUserID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.resp.Err(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, "Task deleted", t)
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.tasks.ToggleStatus(r.Context(), currentUserID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.resp.Err(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, "Task updated", t)
}

func (s *Server) handleToggleSubtask(w http.ResponseWriter, r *http.Request) {
	t, err := s.tasks.ToggleSubtask(r.Context(), currentUserID(r), chi.URLParam(r, "id"), chi.URLParam(r, "subtaskID"))
	if err != nil {
		s.resp.Err(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, "Subtask updated", t)
}

func (s *Server) handleRestoreTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.tasks.RestoreLastDeleted(r.Context(), currentUserID(r))
	if err != nil {
		s.resp.Err(w, r, err)
		return
	}
	respond.Success(w, http.StatusCreated, "Task restored", t)
}

func (s *Server) handleTaskAnalytics(w http.ResponseWriter, r *http.Request) {
	window, err := analytics.ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		s.resp.Err(w, r, err)
		return
	}
	report, err := s.tasks.Analytics(r.Context(), currentUserID(r), window)
	if err != nil {
		s.resp.Err(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, "", report)
}

// Lists

type listInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (s *Server) handleListLists(w http.ResponseWriter, r *http.Request) {
	lists, err := s.tasks.Lists(r.Context(), currentUserID(r))
	if err != nil {
		s.resp.Err(w, r, err)
		return
	}
	if lists == nil {
		lists = []core.TaskList{}
	}
	respond.Success(w, http.StatusOK, "", lists)
}

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var in listInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.resp.Err(w, r, err)
		return
	}
	l, err := s.tasks.CreateList(r.Context(), currentUserID(r), sanitizeInput(in.Name), sanitizeInput(in.Color))
	if err != nil {
		s.resp.Err(w, r, err)
		return
	}
	respond.Success(w, http.StatusCreated, "List created", l)
}

func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	if err := s.tasks.DeleteList(r.Context(), currentUserID(r), chi.URLParam(r, "id")); err != nil {
		s.resp.Err(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, "List deleted", nil)
}
