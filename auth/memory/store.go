// Package memory provides the reference in-memory auth.UserStore.
//
// It is the default store and the model other adapters are measured
// against: records are kept as private copies, and a mutex-guarded email
// index makes the uniqueness check and the insert one atomic step.
// Data is lost on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/authkit/auth"
)

// Store is an in-memory auth.UserStore. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	users   map[string]*auth.User
	byEmail map[string]string // normalized email -> id

	now   func() time.Time
	newID func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the id source (default: random UUIDs).
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		users:   make(map[string]*auth.User),
		byEmail: make(map[string]string),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ auth.UserStore = (*Store)(nil)

// FindUserByEmail implements auth.UserStore.
func (s *Store) FindUserByEmail(_ context.Context, email string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[auth.NormalizeEmail(email)]
	if !ok {
		return nil, nil
	}
	return s.users[id].Clone(), nil
}

// FindUserByID implements auth.UserStore.
func (s *Store) FindUserByID(_ context.Context, id string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[id].Clone(), nil
}

// CreateUser implements auth.UserStore.
func (s *Store) CreateUser(_ context.Context, user *auth.User) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := auth.NormalizeEmail(user.Email)
	if _, taken := s.byEmail[key]; taken {
		return nil, auth.ErrDuplicateEmail
	}

	rec := user.Clone()
	rec.ID = s.newID()
	rec.CreatedAt = s.now().UTC()
	rec.UpdatedAt = rec.CreatedAt

	s.users[rec.ID] = rec
	s.byEmail[key] = rec.ID
	return rec.Clone(), nil
}

// UpdateUser implements auth.UserStore.
func (s *Store) UpdateUser(_ context.Context, id string, update auth.UserUpdate) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}

	oldKey := auth.NormalizeEmail(current.Email)
	next := current.Clone()
	if update.Apply(next) {
		newKey := auth.NormalizeEmail(next.Email)
		if owner, taken := s.byEmail[newKey]; taken && owner != id {
			return nil, auth.ErrDuplicateEmail
		}
		delete(s.byEmail, oldKey)
		s.byEmail[newKey] = id
	}
	next.UpdatedAt = s.now().UTC()

	s.users[id] = next
	return next.Clone(), nil
}

// DeleteUser implements auth.UserStore.
func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[id]
	if !ok {
		return nil
	}
	delete(s.byEmail, auth.NormalizeEmail(current.Email))
	delete(s.users, id)
	return nil
}

// Len returns the number of stored users.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
