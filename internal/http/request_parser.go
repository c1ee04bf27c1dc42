package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"produtivo/internal/auth"
	"produtivo/internal/core"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads one JSON object from the body into v. Every failure
// wraps core.ErrInvalidInput.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: request body is empty", core.ErrInvalidInput)
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: request body too large", core.ErrInvalidInput)
		case errors.Is(err, core.ErrInvalidInput):
			return err
		default:
			return fmt.Errorf("%w: malformed JSON: %v", core.ErrInvalidInput, err)
		}
	}
	if dec.More() {
		return fmt.Errorf("%w: request body must contain a single JSON object", core.ErrInvalidInput)
	}
	return nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// queryInt parses a positive integer parameter; missing means 0.
func queryInt(q url.Values, key string) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", core.ErrInvalidInput, key)
	}
	return n, nil
}

// queryList collects a parameter given repeatedly and/or comma-separated.
func queryList(q url.Values, key string) []string {
	var out []string
	for _, raw := range q[key] {
		for _, part := range strings.Split(raw, ",") {
			if v := sanitizeInput(part); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// queryDate parses an optional YYYY-MM-DD parameter.
func queryDate(q url.Values, key string) (*core.Date, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", core.ErrInvalidInput, key)
	}
	return &d, nil
}

// currentUserID is the authenticated user's id, empty for anonymous requests.
func currentUserID(r *http.Request) string {
	if u, ok := auth.UserFromContext(r.Context()); ok {
		return u.ID
	}
	return ""
}
