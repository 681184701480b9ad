package auth

import (
	"errors"
	"testing"

	"github.com/taskhive/taskhive/internal/domain"
)

func TestRequireRole(t *testing.T) {
	admin := domain.Identity{UserID: "u1", Role: domain.RoleAdmin}
	user := domain.Identity{UserID: "u2", Role: domain.RoleUser}

	if err := RequireRole(admin, domain.RoleAdmin); err != nil {
		t.Fatalf("expected admin to pass admin check: %v", err)
	}
	if err := RequireRole(user, domain.RoleAdmin); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := RequireRole(admin, domain.RoleUser); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected exact role match, got %v", err)
	}
}

func TestRequireOwnership(t *testing.T) {
	identity := domain.Identity{UserID: "owner-1", Role: domain.RoleUser}

	if err := RequireOwnership(identity, "owner-1"); err != nil {
		t.Fatalf("expected owner to pass: %v", err)
	}
	if err := RequireOwnership(identity, "owner-2"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign resource, got %v", err)
	}
	if err := RequireOwnership(domain.Identity{}, ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected empty identity to be rejected, got %v", err)
	}
}
