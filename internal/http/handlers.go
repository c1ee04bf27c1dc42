package http

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"produtivo/internal/auth"
	"produtivo/internal/core"
	"produtivo/internal/http/respond"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}, http.StatusOK)
}

// handleReady pings every registered dependency.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string, len(s.checks))

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := s.checks[name].Ping(ctx); err != nil {
			checks[name] = "failed: " + err.Error()
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
			s.log.WarnContext(ctx, "Readiness check failed", "check", name, "error", err)
			continue
		}
		checks[name] = "ok"
	}

	respond.JSON(w, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}, httpStatus)
}

// handleMetrics writes request and protection counters in Prometheus text
// format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.tracer.GetMetrics()
	rateMetrics := s.limiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	metric := func(name, help, kind string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "Total number of HTTP requests", "counter", traceMetrics.TotalRequests)
	metric("http_request_duration_avg_microseconds", "Average request duration", "gauge", traceMetrics.AverageResponseTime)
	metric("rate_limit_hits_total", "Total rate limit hits", "counter", rateMetrics.TotalHits)
	metric("active_rate_limit_clients", "Currently tracked rate limit clients", "gauge", rateMetrics.ClientCount)
	metric("suspicious_requests_total", "Total suspicious requests detected", "counter", securityMetrics.SuspiciousRequests)
	metric("uptime_seconds", "Application uptime in seconds", "gauge", int64(time.Since(s.started).Seconds()))
}

// Auth

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string    `json:"token"`
	User  core.User `json:"user"`
}

type profileResponse struct {
	User core.User `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeJSON(w, r, &in); err != nil {
		s.resp.Err(w, r, err)
		return
	}
	token, u, err := s.auth.Register(r.Context(), in.Name, in.Email, in.Password)
	if err != nil {
		s.resp.Err(w, r, err)
		return
	}
	respond.Success(w, http.StatusCreated, "User registered", authResponse{Token: token, User: u})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeJSON(w, r, &in); err != nil {
		s.resp.Err(w, r, err)
		return
	}
	token, u, err := s.auth.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		s.resp.Err(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, "Login successful", authResponse{Token: token, User: u})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	u, err := s.auth.Profile(r.Context(), currentUserID(r))
	if err != nil {
		s.resp.Err(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, "", profileResponse{User: u})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var upd auth.ProfileUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		s.resp.Err(w, r, err)
		return
	}
	u, err := s.auth.UpdateProfile(r.Context(), currentUserID(r), upd)
	if err != nil {
		s.resp.Err(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, "Profile updated", profileResponse{User: u})
}
