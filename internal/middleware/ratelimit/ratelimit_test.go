package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *time.Time) {
	t.Helper()
	rl := NewLimiter(Config{RequestsPerMinute: perMinute})
	t.Cleanup(rl.Stop)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestLimiter_Allow(t *testing.T) {
	rl, now := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.1.1.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("1.1.1.1") {
		t.Error("4th request within the window should be rejected")
	}
	if !rl.Allow("2.2.2.2") {
		t.Error("other clients have their own budget")
	}

	*now = now.Add(time.Minute)
	if !rl.Allow("1.1.1.1") {
		t.Error("a new window should reset the budget")
	}

	m := rl.GetMetrics()
	if m.TotalHits != 1 || m.ClientCount != 2 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestLimiter_WindowDoesNotSlide(t *testing.T) {
	rl, now := newTestLimiter(t, 2)

	rl.Allow("ip")
	*now = now.Add(50 * time.Second)
	rl.Allow("ip")
	*now = now.Add(20 * time.Second)
	if !rl.Allow("ip") {
		t.Error("requests spaced inside the window must not extend it")
	}
}

func TestLimiter_CleanupStaleEntries(t *testing.T) {
	rl, now := newTestLimiter(t, 5)
	rl.Allow("old")
	*now = now.Add(11 * time.Minute)
	rl.Allow("fresh")

	rl.cleanupStaleEntries()
	if got := rl.ActiveClients(); got != 1 {
		t.Errorf("ActiveClients() = %d, want 1", got)
	}
}

func TestLimiter_Middleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	handler := rl.Middleware(func(r *http.Request) string { return r.RemoteAddr }, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"success":false}`))
	})(ok)

	codes := []int{http.StatusNoContent, http.StatusTooManyRequests}
	for i, want := range codes {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "9.9.9.9:1234"
		handler.ServeHTTP(rr, req)
		if rr.Code != want {
			t.Errorf("request %d status = %d, want %d", i+1, rr.Code, want)
		}
		if want == http.StatusTooManyRequests && rr.Header().Get("Retry-After") != "60" {
			t.Error("missing Retry-After header")
		}
	}
}

func TestLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewLimiter(Config{})
	rl.Stop()
	rl.Stop()
	if rl.requestsPerMinute != 60 {
		t.Errorf("default requestsPerMinute = %d", rl.requestsPerMinute)
	}
}
