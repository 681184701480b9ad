package user

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/repository"
	"github.com/taskhive/taskhive/internal/service/auth"
)

type userRepoStub struct {
	byID  map[string]domain.User
	users []domain.User
}

func (s userRepoStub) CreateUser(context.Context, *domain.User) error { return nil }

func (s userRepoStub) GetUserByEmail(context.Context, string) (*domain.User, error) {
	return nil, repository.ErrNotFound
}

func (s userRepoStub) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := s.byID[id]; ok {
		return &u, nil
	}
	return nil, repository.ErrNotFound
}

func (s userRepoStub) ListUsers(context.Context) ([]domain.User, error) {
	return append([]domain.User(nil), s.users...), nil
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProfileReturnsCallerRecord(t *testing.T) {
	repo := userRepoStub{byID: map[string]domain.User{
		"u1": {ID: "u1", Name: "A", Email: "a@x.com", Role: domain.RoleUser},
	}}
	svc := New(repo, newLogger())

	profile, err := svc.Profile(context.Background(), domain.Identity{UserID: "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Email != "a@x.com" {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	if _, err := svc.Profile(context.Background(), domain.Identity{UserID: "gone"}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListUsersRequiresAdmin(t *testing.T) {
	repo := userRepoStub{users: []domain.User{{ID: "u1"}, {ID: "u2"}}}
	svc := New(repo, newLogger())

	if _, err := svc.ListUsers(context.Background(), domain.Identity{UserID: "u1", Role: domain.RoleUser}); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-admin, got %v", err)
	}

	users, err := svc.ListUsers(context.Background(), domain.Identity{UserID: "root", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected all users, got %d", len(users))
	}
}
