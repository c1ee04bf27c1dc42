// Package auth registers and authenticates users: bcrypt password hashes
// and JWT bearer tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"produtivo/internal/core"
	"produtivo/internal/log"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

// UserStore persists users. Lookups return an error wrapping
// core.ErrNotFound for unknown users; CreateUser returns one wrapping
// core.ErrAlreadyExists for a taken email.
type UserStore interface {
	CreateUser(ctx context.Context, u *core.User) error
	GetUserByID(ctx context.Context, id string) (core.User, error)
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
	UpdateUser(ctx context.Context, u *core.User) error
}

// ProfileUpdate holds the optional fields of a profile change.
type ProfileUpdate struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

type Service struct {
	users  UserStore
	tokens *TokenService
	logger *log.Logger
	cost   int
	now    func() time.Time
}

// NewService wires the user store and token service. logger may be nil.
func NewService(users UserStore, tokens *TokenService, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Discard()
	}
	return &Service{
		users:  users,
		tokens: tokens,
		logger: logger.WithComponent(log.ComponentAuth),
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// Register creates a user and returns a token for it.
func (s *Service) Register(ctx context.Context, name, email, password string) (string, core.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if err := core.ValidateRegistration(name, email, password); err != nil {
		return "", core.User{}, fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return "", core.User{}, fmt.Errorf("email %s: %w", email, core.ErrAlreadyExists)
	} else if !errors.Is(err, core.ErrNotFound) {
		return "", core.User{}, fmt.Errorf("find user: %w", err)
	}

	hash, err := s.hash(password)
	if err != nil {
		return "", core.User{}, err
	}
	now := s.now().UTC()
	u := core.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, &u); err != nil {
		return "", core.User{}, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return "", core.User{}, err
	}
	s.logger.InfoContext(ctx, "User registered", log.FieldUserID, u.ID)
	return token, u, nil
}

// Login checks the credentials and returns a fresh token.
func (s *Service) Login(ctx context.Context, email, password string) (string, core.User, error) {
	u, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", core.User{}, ErrInvalidCredentials
		}
		return "", core.User{}, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "Login rejected", log.FieldUserID, u.ID)
		return "", core.User{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return "", core.User{}, err
	}
	return token, u, nil
}

// Profile returns the user with id.
func (s *Service) Profile(ctx context.Context, userID string) (core.User, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return core.User{}, fmt.Errorf("get profile: %w", err)
	}
	return u, nil
}

// UpdateProfile applies the non-nil fields of upd.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (core.User, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return core.User{}, fmt.Errorf("get profile: %w", err)
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return core.User{}, fmt.Errorf("%w: %w", core.ErrInvalidInput, core.ErrEmptyName)
		}
		u.Name = name
	}
	if upd.Email != nil {
		email := normalizeEmail(*upd.Email)
		if err := core.ValidateEmail(email); err != nil {
			return core.User{}, fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
		}
		u.Email = email
	}
	if upd.Password != nil {
		if len(*upd.Password) < 6 {
			return core.User{}, fmt.Errorf("%w: %w", core.ErrInvalidInput, core.ErrPasswordTooShort)
		}
		if u.PasswordHash, err = s.hash(*upd.Password); err != nil {
			return core.User{}, err
		}
	}
	u.UpdatedAt = s.now().UTC()

	if err := s.users.UpdateUser(ctx, &u); err != nil {
		return core.User{}, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

// Authenticate resolves a bearer token to its user. Errors are
// ErrTokenExpired, ErrTokenInvalid or ErrUserNotFound.
func (s *Service) Authenticate(ctx context.Context, token string) (core.User, error) {
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return core.User{}, err
	}
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, ErrUserNotFound
		}
		return core.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

type contextKey struct{}

// WithUser returns ctx carrying the authenticated user.
func WithUser(ctx context.Context, u core.User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (core.User, bool) {
	u, ok := ctx.Value(contextKey{}).(core.User)
	return u, ok
}
