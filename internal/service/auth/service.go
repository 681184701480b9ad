package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/repository"
	"github.com/taskhive/taskhive/pkg/config"
	"github.com/taskhive/taskhive/pkg/crypto"
	jwtpkg "github.com/taskhive/taskhive/pkg/jwt"
)

// ErrEmailTaken reports a registration attempt with an already used email.
var ErrEmailTaken = errors.New("auth: email already registered")

// ErrInvalidCredentials is returned for both an unknown email and a wrong
// password so a caller cannot probe which emails are registered.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// ErrUnauthenticated reports a missing, malformed, expired or forged token.
var ErrUnauthenticated = errors.New("auth: unauthenticated")

// Service handles registration, login and token authorization.
type Service struct {
	users  repository.UserRepository
	logger *slog.Logger
	cfg    config.APIConfig
}

// New constructs a Service.
func New(users repository.UserRepository, logger *slog.Logger, cfg config.APIConfig) Service {
	return Service{users: users, logger: logger, cfg: cfg}
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresIn time.Duration
	User      *domain.User
}

// Register creates a new account with a hashed password and the default
// user role. No token is issued on registration.
func (s Service) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	hash, err := crypto.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// The unique index closes the race between the lookup above and
		// a concurrent registration for the same email.
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and issues a bearer token. Lookup and
// verification failures yield the same ErrInvalidCredentials.
func (s Service) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("login for unknown email")
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if err := crypto.ComparePassword(user.PasswordHash, password); err != nil {
		s.logger.Warn("login password mismatch", "user_id", user.ID)
		return Session{}, ErrInvalidCredentials
	}
	token, err := jwtpkg.GenerateToken(user.ID, user.Email, string(user.Role), s.cfg.JWTSecret, s.cfg.TokenTTL)
	if err != nil {
		return Session{}, err
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return Session{Token: token, ExpiresIn: s.cfg.TokenTTL, User: user}, nil
}

// Authorize validates a bearer token and resolves the caller's identity
// from its claims alone, without a credential-store round trip. Role
// changes and account deletion therefore take effect only once an
// outstanding token expires.
func (s Service) Authorize(token string) (domain.Identity, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return domain.Identity{}, ErrUnauthenticated
	}
	claims, err := jwtpkg.Parse(trimmed, s.cfg.JWTSecret)
	if err != nil {
		// Expired and forged tokens are logged apart but surface the
		// same way to the caller.
		s.logger.Warn("token rejected", "error", err)
		return domain.Identity{}, ErrUnauthenticated
	}
	return domain.Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   domain.NormalizeRole(claims.Role),
	}, nil
}
