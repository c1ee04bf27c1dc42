package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	plog "produtivo/internal/log"
)

func TestMiddleware_AssignsRequestID(t *testing.T) {
	var seen string
	m := NewMiddleware(nil, nil)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Errorf("request id = %q", seen)
	}
	if rr.Header().Get(HeaderRequestID) != seen {
		t.Errorf("response header = %q, want %q", rr.Header().Get(HeaderRequestID), seen)
	}
}

func TestMiddleware_IncomingRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		reuse    bool
	}{
		{"well formed", "abc-123_X", true},
		{"injection attempt", "abc\nforged=1", false},
		{"too long", strings.Repeat("a", 65), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := NewMiddleware(nil, nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = RequestID(r)
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(HeaderRequestID, tt.incoming)
			h.ServeHTTP(httptest.NewRecorder(), req)
			if (seen == tt.incoming) != tt.reuse {
				t.Errorf("request id = %q, reuse = %v", seen, tt.reuse)
			}
		})
	}
}

func TestMiddleware_LogsAndCounts(t *testing.T) {
	var buf bytes.Buffer
	logger := plog.New(plog.Config{Output: &buf, Level: slog.LevelInfo})
	m := NewMiddleware(func(*http.Request) string { return "203.0.113.1" }, logger)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/tasks/x", nil))

	out := buf.String()
	for _, want := range []string{"level=WARN", "status_code=404", "client_ip=203.0.113.1", "component=http", "path=/api/tasks/x"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %q: %s", want, out)
		}
	}
	if got := m.GetMetrics().TotalRequests; got != 1 {
		t.Errorf("TotalRequests = %d", got)
	}
}
