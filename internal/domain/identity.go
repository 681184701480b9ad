package domain

// Identity is the caller resolved from a validated bearer token. It is
// built from token claims alone, so it can lag behind the credential store
// by up to one token lifetime.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}
