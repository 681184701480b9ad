package task

import (
	"context"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/repository"
)

// Service manages a user's private task list. Every operation is scoped to
// the caller's identity; an unowned task id behaves exactly like a missing
// one.
type Service struct {
	tasks  repository.TaskRepository
	logger *slog.Logger
}

// New constructs a Service.
func New(tasks repository.TaskRepository, logger *slog.Logger) Service {
	return Service{tasks: tasks, logger: logger}
}

// List returns the caller's tasks, newest first.
func (s Service) List(ctx context.Context, identity domain.Identity) ([]domain.Task, error) {
	return s.tasks.ListTasksByOwner(ctx, identity.UserID)
}

// Create adds a task owned by the caller.
func (s Service) Create(ctx context.Context, identity domain.Identity, title string) (*domain.Task, error) {
	task := &domain.Task{
		ID:        uuid.NewString(),
		Title:     title,
		OwnerID:   identity.UserID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.tasks.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	s.logger.Info("task created", "task_id", task.ID, "user_id", identity.UserID)
	return task, nil
}

// Update retitles one of the caller's tasks.
func (s Service) Update(ctx context.Context, identity domain.Identity, id, title string) error {
	if err := s.tasks.UpdateTask(ctx, id, identity.UserID, title); err != nil {
		return err
	}
	s.logger.Info("task updated", "task_id", id, "user_id", identity.UserID)
	return nil
}

// Delete removes one of the caller's tasks.
func (s Service) Delete(ctx context.Context, identity domain.Identity, id string) error {
	if err := s.tasks.DeleteTask(ctx, id, identity.UserID); err != nil {
		return err
	}
	s.logger.Info("task deleted", "task_id", id, "user_id", identity.UserID)
	return nil
}
