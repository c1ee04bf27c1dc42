// Package respond writes the JSON envelope every API response uses:
//
//	{"success": true, "message": "...", "data": ..., "pagination": ...}
//	{"success": false, "message": "...", "error": "..."}
package respond

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"produtivo/internal/auth"
	"produtivo/internal/core"
	"produtivo/internal/log"
)

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       any         `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Error      string      `json:"error,omitempty"`
}

func JSON(w http.ResponseWriter, v any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// Success writes a successful envelope around data.
func Success(w http.ResponseWriter, statusCode int, message string, data any) {
	JSON(w, Envelope{Success: true, Message: message, Data: data}, statusCode)
}

// Page writes a successful envelope carrying pagination.
func Page(w http.ResponseWriter, data any, p Pagination) {
	JSON(w, Envelope{Success: true, Data: data, Pagination: &p}, http.StatusOK)
}

// Error writes a failure envelope without detail.
func Error(w http.ResponseWriter, statusCode int, message string) {
	JSON(w, Envelope{Success: false, Message: message}, statusCode)
}

// Writer maps service errors to statuses. With Debug set the error text is
// echoed back in the "error" field.
type Writer struct {
	Debug bool
}

// Fail writes a failure envelope, attaching err when debugging.
func (wr Writer) Fail(w http.ResponseWriter, statusCode int, message string, err error) {
	env := Envelope{Success: false, Message: message}
	if wr.Debug && err != nil {
		env.Error = err.Error()
	}
	JSON(w, env, statusCode)
}

// Err picks the status for err: 400 invalid input, 401 auth, 403, 404,
// 409 conflict, 504 timeout, 500 otherwise. Unexpected errors are logged.
func (wr Writer) Err(w http.ResponseWriter, r *http.Request, err error) {
	status, message := Classify(err)
	if status >= http.StatusInternalServerError {
		log.LogError(r.Context(), "Request failed", err, log.ComponentHTTP, r.Method+" "+r.URL.Path, nil)
	}
	wr.Fail(w, status, message, err)
}

// Classify returns the status code and public message for err.
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest, unwrapMessage(err, "invalid input")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, core.ErrAlreadyExists):
		return http.StatusConflict, "already exists"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// unwrapMessage exposes validation messages, which are safe to show.
func unwrapMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	return err.Error()
}
