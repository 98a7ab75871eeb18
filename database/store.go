package database

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kbukum/authkit/auth"
	"github.com/kbukum/authkit/database/migration"
	"github.com/kbukum/authkit/logger"
)

// UserStore is an auth.UserStore backed by GORM. Email uniqueness is a unique
// index on the normalized email, so concurrent registrations cannot both
// commit.
type UserStore struct {
	db  *DB
	now func() time.Time
}

// StoreOption configures a UserStore.
type StoreOption func(*UserStore)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) StoreOption {
	return func(s *UserStore) { s.now = now }
}

var (
	_ auth.UserStore = (*UserStore)(nil)
	_ auth.Pinger    = (*UserStore)(nil)
)

// NewUserStore creates a store over an open connection. Call Migrate before
// first use unless the schema is managed elsewhere.
func NewUserStore(db *DB, opts ...StoreOption) *UserStore {
	s := &UserStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenUserStore opens the database named by cfg and migrates the schema when
// cfg.AutoMigrate is set.
func OpenUserStore(ctx context.Context, cfg Config, log *logger.Logger, opts ...StoreOption) (*UserStore, error) {
	db, err := Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	s := NewUserStore(db, opts...)
	if cfg.AutoMigrate {
		if err := s.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// Migrations returns the schema migrations for the users table.
func Migrations() []migration.Migration {
	return []migration.Migration{
		{
			ID:          "0001_create_users",
			Description: "users table with unique normalized email",
			Up: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&userRecord{})
			},
		},
	}
}

// Migrate applies pending schema migrations.
func (s *UserStore) Migrate(ctx context.Context) error {
	return migration.NewRunner(s.db.WithContext(ctx), s.db.log).Add(Migrations()...).Run()
}

// DB returns the underlying connection.
func (s *UserStore) DB() *DB { return s.db }

// Ping implements auth.Pinger.
func (s *UserStore) Ping(ctx context.Context) error { return s.db.Ping(ctx) }

// Close closes the underlying connection.
func (s *UserStore) Close() error { return s.db.Close() }

// FindUserByEmail implements auth.UserStore.
func (s *UserStore) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	return s.findOne(ctx, "email_key = ?", auth.NormalizeEmail(email))
}

// FindUserByID implements auth.UserStore.
func (s *UserStore) FindUserByID(ctx context.Context, id string) (*auth.User, error) {
	return s.findOne(ctx, "id = ?", id)
}

func (s *UserStore) findOne(ctx context.Context, query string, arg string) (*auth.User, error) {
	var rec userRecord
	err := s.db.WithContext(ctx).Where(query, arg).Take(&rec).Error
	if IsNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, FromDatabase(err, "user")
	}
	return rec.toUser(), nil
}

// CreateUser implements auth.UserStore.
func (s *UserStore) CreateUser(ctx context.Context, user *auth.User) (*auth.User, error) {
	rec := newRecord(user.Clone())
	rec.ID = ""
	rec.CreatedAt = s.now().UTC()
	rec.UpdatedAt = rec.CreatedAt

	err := s.db.WithContext(ctx).Create(rec).Error
	if IsDuplicateError(err) {
		return nil, auth.ErrDuplicateEmail
	}
	if err != nil {
		return nil, FromDatabase(err, "user")
	}
	return rec.toUser(), nil
}

// UpdateUser implements auth.UserStore. The read and the write share one
// transaction; the unique index rejects a colliding email.
func (s *UserStore) UpdateUser(ctx context.Context, id string, update auth.UserUpdate) (*auth.User, error) {
	var out *auth.User
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		var rec userRecord
		if err := tx.Where("id = ?", id).Take(&rec).Error; err != nil {
			return err
		}

		user := rec.toUser()
		update.Apply(user)
		user.UpdatedAt = s.now().UTC()

		next := newRecord(user)
		if err := tx.Save(next).Error; err != nil {
			return err
		}
		out = next.toUser()
		return nil
	})
	switch {
	case err == nil:
		return out, nil
	case IsNotFoundError(err):
		return nil, auth.ErrUserNotFound
	case IsDuplicateError(err):
		return nil, auth.ErrDuplicateEmail
	default:
		return nil, FromDatabase(err, "user")
	}
}

// DeleteUser implements auth.UserStore.
func (s *UserStore) DeleteUser(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&userRecord{}).Error; err != nil {
		return FromDatabase(err, "user")
	}
	return nil
}
