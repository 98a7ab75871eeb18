package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kbukum/authkit/auth"
	"github.com/kbukum/authkit/logger"
)

const userColumns = `id, email, password_hash, fields, created_at, updated_at`

// UserStore is an auth.UserStore backed by PostgreSQL through pgx. The
// users_email_key_unique constraint makes concurrent registrations for one
// email fail with auth.ErrDuplicateEmail.
type UserStore struct {
	pool  *pgxpool.Pool
	now   func() time.Time
	newID func() string
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

// NewUserStore creates a store over an open pool. Run Migrate first unless
// the schema is managed elsewhere.
func NewUserStore(pool *pgxpool.Pool, opts ...StoreOption) *UserStore {
	s := &UserStore{pool: pool, now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping implements auth.Pinger.
func (s *UserStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Close closes the pool.
func (s *UserStore) Close() { s.pool.Close() }

// timestamp returns the current time at the column's microsecond precision,
// so returned records compare equal to what a later read yields.
func (s *UserStore) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// FindUserByEmail implements auth.UserStore.
func (s *UserStore) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email_key = $1`, auth.NormalizeEmail(email))
	return s.scanOptional(row)
}

// FindUserByID implements auth.UserStore.
func (s *UserStore) FindUserByID(ctx context.Context, id string) (*auth.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return s.scanOptional(row)
}

func (s *UserStore) scanOptional(row pgx.Row) (*auth.User, error) {
	u, err := scanUser(row)
	if IsNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: find user: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*auth.User, error) {
	var u auth.User
	var fields map[string]any
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &fields, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		u.Fields = fields
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

func fieldsValue(fields map[string]any) map[string]any {
	if fields == nil {
		return map[string]any{}
	}
	return fields
}

// CreateUser implements auth.UserStore.
func (s *UserStore) CreateUser(ctx context.Context, user *auth.User) (*auth.User, error) {
	rec := user.Clone()
	rec.ID = s.newID()
	rec.CreatedAt = s.timestamp()
	rec.UpdatedAt = rec.CreatedAt

	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, email_key, password_hash, fields, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		rec.ID, rec.Email, auth.NormalizeEmail(rec.Email), rec.PasswordHash,
		fieldsValue(rec.Fields), rec.CreatedAt, rec.UpdatedAt,
	)
	if IsDuplicateKeyError(err) {
		return nil, auth.ErrDuplicateEmail
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: insert user: %w", err)
	}
	return rec, nil
}

// UpdateUser implements auth.UserStore. The row is locked for the duration
// of the read-modify-write.
func (s *UserStore) UpdateUser(ctx context.Context, id string, update auth.UserUpdate) (*auth.User, error) {
	var out *auth.User
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
		user, err := scanUser(row)
		if err != nil {
			return err
		}

		update.Apply(user)
		user.UpdatedAt = s.timestamp()

		_, err = tx.Exec(ctx, `
			UPDATE users
			SET email = $2, email_key = $3, password_hash = $4, fields = $5, updated_at = $6
			WHERE id = $1
		`,
			id, user.Email, auth.NormalizeEmail(user.Email), user.PasswordHash,
			fieldsValue(user.Fields), user.UpdatedAt,
		)
		if err != nil {
			return err
		}
		out = user
		return nil
	})
	switch {
	case err == nil:
		return out, nil
	case IsNotFoundError(err):
		return nil, auth.ErrUserNotFound
	case IsDuplicateKeyError(err):
		return nil, auth.ErrDuplicateEmail
	default:
		return nil, fmt.Errorf("postgres: update user: %w", err)
	}
}

// DeleteUser implements auth.UserStore.
func (s *UserStore) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("postgres: delete user: %w", err)
	}
	return nil
}

// OpenUserStore connects, runs Migrate when cfg.AutoMigrate is set and
// returns a store owning the pool.
func OpenUserStore(ctx context.Context, cfg Config, log *logger.Logger, opts ...StoreOption) (*UserStore, error) {
	pool, err := Connect(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return NewUserStore(pool, opts...), nil
}
