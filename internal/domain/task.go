package domain

import "time"

// Task is a private to-do item. OwnerID is set at creation and immutable;
// every query and mutation is scoped to it.
type Task struct {
	ID        string
	Title     string
	OwnerID   string
	CreatedAt time.Time
}
