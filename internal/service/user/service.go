package user

import (
	"context"

	"log/slog"

	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/repository"
	"github.com/taskhive/taskhive/internal/service/auth"
)

// Service exposes account lookups: the caller's own profile and the
// admin-only user listing.
type Service struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// New constructs a Service.
func New(users repository.UserRepository, logger *slog.Logger) Service {
	return Service{users: users, logger: logger}
}

// Profile returns the caller's account record.
func (s Service) Profile(ctx context.Context, identity domain.Identity) (*domain.User, error) {
	return s.users.GetUserByID(ctx, identity.UserID)
}

// ListUsers returns every account, newest first. Restricted to admins.
func (s Service) ListUsers(ctx context.Context, identity domain.Identity) ([]domain.User, error) {
	if err := auth.RequireRole(identity, domain.RoleAdmin); err != nil {
		return nil, err
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("admin listed users", "admin_id", identity.UserID, "count", len(users))
	return users, nil
}
