package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"produtivo/internal/core"
	"produtivo/internal/http/respond"
	"produtivo/internal/services"
)

func (s *Server) financeRoutes(r chi.Router) {
	f := s.finance

	r.Get("/accounts", listHandler(s, f.Accounts))
	r.Post("/accounts", saveHandler(s, f.SaveAccount, "Account created"))
	r.Put("/accounts/{id}", saveHandler(s, f.SaveAccount, "Account updated"))
	r.Delete("/accounts/{id}", deleteHandler(s, f.DeleteAccount, "Account deleted"))
	r.Get("/accounts/{id}/balance", getHandler(s, f.Balance))
	r.Get("/balances", listHandler(s, f.Balances))

	r.Get("/categories", listHandler(s, f.Categories))
	r.Post("/categories", saveHandler(s, f.SaveCategory, "Category created"))
	r.Put("/categories/{id}", saveHandler(s, f.SaveCategory, "Category updated"))
	r.Delete("/categories/{id}", deleteHandler(s, f.DeleteCategory, "Category deleted"))

	r.Get("/transactions", s.handleListTransactions)
	r.Post("/transactions", saveHandler(s, f.SaveTransaction, "Transaction created"))
	r.Get("/transactions/{id}", getHandler(s, f.Transaction))
	r.Put("/transactions/{id}", saveHandler(s, f.SaveTransaction, "Transaction updated"))
	r.Delete("/transactions/{id}", deleteHandler(s, f.DeleteTransaction, "Transaction deleted"))

	r.Get("/recurrences", listHandler(s, f.Recurrences))
	r.Post("/recurrences", saveHandler(s, f.SaveRecurrence, "Recurrence created"))
	r.Post("/recurrences/generate", s.handleGenerateRecurrences)
	r.Put("/recurrences/{id}", saveHandler(s, f.SaveRecurrence, "Recurrence updated"))
	r.Delete("/recurrences/{id}", deleteHandler(s, f.DeleteRecurrence, "Recurrence deleted"))

	r.Get("/budgets", listHandler(s, f.Budgets))
	r.Post("/budgets", saveHandler(s, f.SaveBudget, "Budget created"))
	r.Get("/budgets/alerts", s.handleBudgetAlerts)
	r.Put("/budgets/{id}", saveHandler(s, f.SaveBudget, "Budget updated"))
	r.Delete("/budgets/{id}", deleteHandler(s, f.DeleteBudget, "Budget deleted"))
	r.Get("/budgets/{id}/usage", getHandler(s, f.BudgetUsage))
}

// listHandler serves every owner-scoped collection. Empty results encode
// as [] rather than null.
func listHandler[T any](s *Server, list func(ctx context.Context, ownerID string) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := list(r.Context(), currentUserID(r))
		if err != nil {
			s.resp.Err(w, r, err)
			return
		}
		if items == nil {
			items = []T{}
		}
		respond.Success(w, http.StatusOK, "", items)
	}
}

func getHandler[T any](s *Server, get func(ctx context.Context, ownerID, id string) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := get(r.Context(), currentUserID(r), chi.URLParam(r, "id"))
		if err != nil {
			s.resp.Err(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, "", v)
	}
}

// saveHandler creates when the route has no {id} and updates otherwise.
func saveHandler[T any](s *Server, save func(ctx context.Context, ownerID, id string, v T) (T, error), message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in T
		if err := decodeJSON(w, r, &in); err != nil {
			s.resp.Err(w, r, err)
			return
		}
		id := chi.URLParam(r, "id")
		out, err := save(r.Context(), currentUserID(r), id, in)
		if err != nil {
			s.resp.Err(w, r, err)
			return
		}
		status := http.StatusOK
		if id == "" {
			status = http.StatusCreated
		}
		respond.Success(w, status, message, out)
	}
}

func deleteHandler(s *Server, del func(ctx context.Context, ownerID, id string) error, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := del(r.Context(), currentUserID(r), chi.URLParam(r, "id")); err != nil {
			s.resp.Err(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, message, nil)
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := services.TransactionFilter{
		AccountID:  q.Get("account_id"),
		CategoryID: q.Get("category_id"),
	}
	if v := q.Get("type"); v != "" {
		filter.Type = core.TransactionType(v)
		switch filter.Type {
		case core.TransactionIncome, core.TransactionExpense, core.TransactionTransfer:
		default:
			s.resp.Err(w, r, fmt.Errorf("%w: unknown transaction type %q", core.ErrInvalidInput, v))
			return
		}
	}
	var err error
	if filter.From, err = queryDate(q, "from"); err != nil {
		s.resp.Err(w, r, err)
		return
	}
	if filter.To, err = queryDate(q, "to"); err != nil {
		s.resp.Err(w, r, err)
		return
	}

	items, err := s.finance.Transactions(r.Context(), currentUserID(r), filter)
	if err != nil {
		s.resp.Err(w, r, err)
		return
	}
	if items == nil {
		items = []core.Transaction{}
	}
	respond.Success(w, http.StatusOK, "", items)
}

func (s *Server) handleGenerateRecurrences(w http.ResponseWriter, r *http.Request) {
	report, err := s.finance.GenerateDue(r.Context(), currentUserID(r))
	if err != nil {
		s.resp.Err(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, fmt.Sprintf("%d transactions generated", report.Generated), report)
}

func (s *Server) handleBudgetAlerts(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	alerts, err := s.finance.BudgetAlerts(r.Context(), currentUserID(r), month)
	if err != nil {
		s.resp.Err(w, r, err)
		return
	}
	if alerts == nil {
		alerts = []core.BudgetUsage{}
	}
	respond.Success(w, http.StatusOK, "", alerts)
}
