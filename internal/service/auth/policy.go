package auth

import (
	"errors"

	"github.com/taskhive/taskhive/internal/domain"
)

// ErrForbidden reports an authenticated caller lacking the required
// privilege for an operation.
var ErrForbidden = errors.New("auth: forbidden")

// RequireRole passes iff the identity holds exactly the given role.
func RequireRole(identity domain.Identity, role domain.Role) error {
	if identity.Role != role {
		return ErrForbidden
	}
	return nil
}

// RequireOwnership passes iff the identity owns the resource. Task
// endpoints additionally enforce this in SQL via owner-filtered queries,
// where a non-owner's request surfaces as not-found rather than forbidden
// to avoid confirming the resource exists.
func RequireOwnership(identity domain.Identity, ownerID string) error {
	if identity.UserID == "" || identity.UserID != ownerID {
		return ErrForbidden
	}
	return nil
}
