// Package http exposes the task, list, finance and auth services as a JSON
// REST API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"produtivo/internal/auth"
	"produtivo/internal/http/respond"
	plog "produtivo/internal/log"
	"produtivo/internal/middleware/authn"
	"produtivo/internal/middleware/ratelimit"
	"produtivo/internal/middleware/security"
	"produtivo/internal/middleware/trace"
	"produtivo/internal/services"
)

// Pinger is a dependency checked by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the transport settings of the server.
type Config struct {
	Addr           string
	Debug          bool
	RequestTimeout time.Duration
	RateLimit      int
	Logger         *plog.Logger
}

// Deps are the services the handlers delegate to. Checks are pinged by
// /readyz under their map key.
type Deps struct {
	Auth    *auth.Service
	Tasks   *services.TaskService
	Finance *services.FinanceService
	Checks  map[string]Pinger
}

type Server struct {
	http.Server

	auth    *auth.Service
	tasks   *services.TaskService
	finance *services.FinanceService
	checks  map[string]Pinger

	resp     respond.Writer
	log      *plog.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. Call Shutdown to stop it and its background goroutines.
func NewServer(cfg Config, deps Deps) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = plog.Discard()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}

	s := &Server{
		auth:     deps.Auth,
		tasks:    deps.Tasks,
		finance:  deps.Finance,
		checks:   deps.Checks,
		resp:     respond.Writer{Debug: cfg.Debug},
		log:      logger.WithComponent(plog.ComponentHTTP),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimit}),
		detector: security.NewDetector(),
		started:  time.Now(),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, logger)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(logger, cfg.RequestTimeout),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(logger *plog.Logger, timeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(s.tracer.Middleware)
	r.Use(plog.Middleware(logger))
	r.Use(plog.RequestIDMiddleware(trace.RequestID))
	r.Use(middleware.Recoverer)
	r.Use(middleware.CleanPath)
	r.Use(middleware.StripSlashes)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	authMW := authn.NewMiddleware(s.auth)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			respond.Error(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
		}))
		r.Use(middleware.Timeout(timeout))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.With(authMW.RequireAuth).Get("/profile", s.handleGetProfile)
			r.With(authMW.RequireAuth).Put("/profile", s.handleUpdateProfile)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authMW.RequireAuth)
				r.Post("/", s.handleCreateTask)
				r.Get("/analytics", s.handleTaskAnalytics)
				r.Post("/restore", s.handleRestoreTask)
				r.Put("/{id}", s.handleUpdateTask)
				r.Delete("/{id}", s.handleDeleteTask)
				r.Patch("/{id}/toggle", s.handleToggleTask)
				r.Patch("/{id}/subtasks/{subtaskID}/toggle", s.handleToggleSubtask)
			})
			r.Group(func(r chi.Router) {
				r.Use(authMW.OptionalAuth)
				r.Get("/", s.handleListTasks)
				r.Get("/{id}", s.handleGetTask)
			})
		})

		r.Route("/lists", func(r chi.Router) {
			r.Use(authMW.RequireAuth)
			r.Get("/", s.handleListLists)
			r.Post("/", s.handleCreateList)
			r.Delete("/{id}", s.handleDeleteList)
		})

		r.Route("/finance", func(r chi.Router) {
			r.Use(authMW.RequireAuth)
			s.financeRoutes(r)
		})
	})

	return r
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
