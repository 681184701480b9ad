package repository

import "errors"

// ErrNotFound indicates an entity was not located. Owner-filtered task
// lookups also return it for records owned by someone else, so callers
// cannot distinguish missing from not-owned.
var ErrNotFound = errors.New("repository: not found")

// ErrConflict indicates a uniqueness violation, such as a duplicate email.
var ErrConflict = errors.New("repository: conflict")
