package repository

import (
	"context"

	"github.com/taskhive/taskhive/internal/domain"
)

// UserRepository persists user accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// TaskRepository persists tasks. Update and delete take an explicit owner
// filter so a non-owner's request matches no record at the data-access
// boundary, not merely in application logic.
type TaskRepository interface {
	CreateTask(ctx context.Context, task *domain.Task) error
	ListTasksByOwner(ctx context.Context, ownerID string) ([]domain.Task, error)
	UpdateTask(ctx context.Context, id, ownerID, title string) error
	DeleteTask(ctx context.Context, id, ownerID string) error
}
