package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogger_AddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Level: slog.LevelDebug, Component: ComponentTasks})

	logger.Info("task created", FieldTaskID, "t1")
	logger.WithComponent(ComponentAuth).Debug("token issued")

	out := buf.String()
	if !strings.Contains(out, "component=tasks") || !strings.Contains(out, "task_id=t1") {
		t.Errorf("missing attributes in %q", out)
	}
	if !strings.Contains(out, "component=auth") {
		t.Errorf("WithComponent not applied: %q", out)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Output: &buf, Level: slog.LevelInfo})

	handler := Middleware(base)(RequestIDMiddleware(func(*http.Request) string { return "req-42" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).InfoContext(r.Context(), "inside")
		}),
	))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), "request_id=req-42") {
		t.Errorf("request id not propagated: %q", buf.String())
	}
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	ctx := NewContext(context.Background(), New(Config{Output: &buf}))

	LogError(ctx, "sync failed", errors.New("boom"), ComponentWorker, OpSync, NewFields().WithUser("u1"))

	out := buf.String()
	for _, want := range []string{"level=ERROR", "component=worker", "operation=sync", "error=boom", "user_id=u1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestFromContext_Default(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext must never return nil")
	}
}
