// Package authn guards routes with bearer tokens.
package authn

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"produtivo/internal/auth"
	"produtivo/internal/core"
	"produtivo/internal/http/respond"
	"produtivo/internal/log"
)

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (core.User, error)
}

// Middleware provides required and optional authentication.
type Middleware struct {
	auth Authenticator
}

func NewMiddleware(a Authenticator) *Middleware {
	return &Middleware{auth: a}
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// failureMessage is the 401 message for an authentication error.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, auth.ErrUserNotFound):
		return "user not found"
	default:
		return "invalid token"
	}
}

// RequireAuth rejects requests without a valid token with 401.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respond.Error(w, http.StatusUnauthorized, "no token provided")
			return
		}
		u, err := m.auth.Authenticate(r.Context(), token)
		if err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Authentication failed",
				log.FieldPath, r.URL.Path, log.FieldError, err.Error())
			respond.Error(w, http.StatusUnauthorized, failureMessage(err))
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), u)))
	})
}

// OptionalAuth attaches the user when a valid token is present and lets
// the request through either way.
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r); token != "" {
			if u, err := m.auth.Authenticate(r.Context(), token); err == nil {
				r = r.WithContext(auth.WithUser(r.Context(), u))
			}
		}
		next.ServeHTTP(w, r)
	})
}
