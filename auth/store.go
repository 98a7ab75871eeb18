package auth

import (
	"context"
	"errors"
)

// Contract errors every UserStore adapter reports. Adapters may wrap them;
// callers match with errors.Is.
var (
	// ErrUserNotFound is returned by UpdateUser when the id does not exist.
	ErrUserNotFound = errors.New("auth: user not found")

	// ErrDuplicateEmail is returned when a create or update would make two
	// users share an email (compared case-insensitively).
	ErrDuplicateEmail = errors.New("auth: email already registered")
)

// UserStore is the persistence contract the Engine depends on.
//
// Implementations must enforce email uniqueness atomically: two concurrent
// CreateUser calls for the same email can never both succeed.
//
// Implementations:
//   - memory.Store: reference in-memory adapter (default)
//   - database.UserStore: GORM (SQLite, PostgreSQL, MySQL)
//   - postgres.UserStore: PostgreSQL via pgx
//   - redis.UserStore: Redis
//   - mongo.UserStore: MongoDB
type UserStore interface {
	// FindUserByEmail looks a user up case-insensitively. Absence is nil, nil.
	FindUserByEmail(ctx context.Context, email string) (*User, error)

	// FindUserByID looks a user up by exact id. Absence is nil, nil.
	FindUserByID(ctx context.Context, id string) (*User, error)

	// CreateUser persists a new user, assigning ID, CreatedAt and UpdatedAt.
	// The argument is not modified; the stored record is returned.
	CreateUser(ctx context.Context, user *User) (*User, error)

	// UpdateUser merges changes into an existing record, refreshes
	// UpdatedAt and re-indexes the email when it changes.
	UpdateUser(ctx context.Context, id string, update UserUpdate) (*User, error)

	// DeleteUser removes the record and its email index entry. Deleting a
	// missing id is a no-op.
	DeleteUser(ctx context.Context, id string) error
}

// Pinger is implemented by stores backed by a remote service. Health
// endpoints use it when available.
type Pinger interface {
	Ping(ctx context.Context) error
}
