package redis

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/authkit/auth"
)

// userDoc is the JSON document stored under <prefix>:user:<id>.
type userDoc struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	PasswordHash string         `json:"passwordHash,omitempty"`
	Fields       map[string]any `json:"fields,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

func newDoc(u *auth.User) *userDoc {
	return &userDoc{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Fields:       maps.Clone(u.Fields),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d *userDoc) toUser() *auth.User {
	return &auth.User{
		ID:           d.ID,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Fields:       d.Fields,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

// UserStore is an auth.UserStore backed by Redis.
//
// Each user is a JSON document; <prefix>:email:<normalized email> maps to
// the owning id. Every write runs as a WATCH/MULTI transaction over the
// document and the email keys involved, so the index and the documents never
// disagree and concurrent registrations for one email cannot both succeed.
type UserStore struct {
	client *Client
	users  *TypedStore[userDoc]
	emails string
	now    func() time.Time
	newID  func() string
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

// NewUserStore creates a store over client using client.Config().KeyPrefix.
func NewUserStore(client *Client, opts ...StoreOption) *UserStore {
	prefix := client.Config().KeyPrefix
	s := &UserStore{
		client: client,
		users:  NewTypedStore[userDoc](client, prefix+":user"),
		emails: prefix + ":email",
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping implements auth.Pinger.
func (s *UserStore) Ping(ctx context.Context) error { return s.client.Ping(ctx) }

// Close closes the underlying client.
func (s *UserStore) Close() error { return s.client.Close() }

func (s *UserStore) emailKey(email string) string {
	return s.emails + ":" + auth.NormalizeEmail(email)
}

// FindUserByEmail implements auth.UserStore. An index entry whose document
// is missing counts as absent.
func (s *UserStore) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	id, err := s.client.Get(ctx, s.emailKey(email))
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis: find user by email: %w", err)
	}
	return s.FindUserByID(ctx, id)
}

// FindUserByID implements auth.UserStore.
func (s *UserStore) FindUserByID(ctx context.Context, id string) (*auth.User, error) {
	doc, err := s.users.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("redis: find user: %w", err)
	}
	if doc == nil {
		return nil, nil
	}
	return doc.toUser(), nil
}

// CreateUser implements auth.UserStore.
func (s *UserStore) CreateUser(ctx context.Context, user *auth.User) (*auth.User, error) {
	rec := user.Clone()
	rec.ID = s.newID()
	rec.CreatedAt = s.now().UTC()
	rec.UpdatedAt = rec.CreatedAt

	emailKey := s.emailKey(rec.Email)
	userKey := s.users.Key(rec.ID)
	data, err := s.users.Encode(newDoc(rec))
	if err != nil {
		return nil, err
	}

	txf := func(tx *goredis.Tx) error {
		if err := s.checkEmailFree(ctx, tx, emailKey, rec.ID); err != nil {
			return err
		}
		_, err := tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, emailKey, rec.ID, 0)
			pipe.Set(ctx, userKey, data, 0)
			return nil
		})
		return err
	}

	if err := s.watch(ctx, txf, emailKey); err != nil {
		if errors.Is(err, auth.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("redis: create user: %w", err)
	}
	return rec, nil
}

// checkEmailFree returns auth.ErrDuplicateEmail when emailKey points at an
// existing document other than self's. An entry whose document is gone is
// stale and counts as free; the caller overwrites it.
func (s *UserStore) checkEmailFree(ctx context.Context, tx *goredis.Tx, emailKey, self string) error {
	owner, err := tx.Get(ctx, emailKey).Result()
	if errors.Is(err, goredis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	if owner == self {
		return nil
	}
	n, err := tx.Exists(ctx, s.users.Key(owner)).Result()
	if err != nil {
		return err
	}
	if n > 0 {
		return auth.ErrDuplicateEmail
	}
	return nil
}

// UpdateUser implements auth.UserStore.
func (s *UserStore) UpdateUser(ctx context.Context, id string, update auth.UserUpdate) (*auth.User, error) {
	userKey := s.users.Key(id)
	var out *auth.User

	txf := func(tx *goredis.Tx) error {
		raw, err := tx.Get(ctx, userKey).Result()
		if errors.Is(err, goredis.Nil) {
			return auth.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		doc, err := s.users.Decode(raw)
		if err != nil {
			return err
		}

		user := doc.toUser()
		oldKey := s.emailKey(user.Email)
		emailChanged := update.Apply(user)
		user.UpdatedAt = s.now().UTC()
		newKey := s.emailKey(user.Email)

		if emailChanged {
			if err := tx.Watch(ctx, newKey).Err(); err != nil {
				return err
			}
			if err := s.checkEmailFree(ctx, tx, newKey, id); err != nil {
				return err
			}
		}

		data, err := s.users.Encode(newDoc(user))
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, userKey, data, 0)
			if emailChanged {
				pipe.Del(ctx, oldKey)
				pipe.Set(ctx, newKey, id, 0)
			}
			return nil
		})
		if err != nil {
			return err
		}
		out = user
		return nil
	}

	if err := s.watch(ctx, txf, userKey); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) || errors.Is(err, auth.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("redis: update user: %w", err)
	}
	return out, nil
}

// DeleteUser implements auth.UserStore.
func (s *UserStore) DeleteUser(ctx context.Context, id string) error {
	userKey := s.users.Key(id)

	txf := func(tx *goredis.Tx) error {
		raw, err := tx.Get(ctx, userKey).Result()
		if errors.Is(err, goredis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		doc, err := s.users.Decode(raw)
		if err != nil {
			return err
		}
		emailKey := s.emailKey(doc.Email)

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Del(ctx, userKey)
			pipe.Del(ctx, emailKey)
			return nil
		})
		return err
	}

	if err := s.watch(ctx, txf, userKey); err != nil {
		return fmt.Errorf("redis: delete user: %w", err)
	}
	return nil
}

// watch runs txf under WATCH, retrying when a watched key changed.
func (s *UserStore) watch(ctx context.Context, txf func(*goredis.Tx) error, keys ...string) error {
	retries := s.client.Config().MaxTxRetries
	for attempt := 0; attempt < retries; attempt++ {
		err := s.client.Unwrap().Watch(ctx, txf, keys...)
		if !errors.Is(err, goredis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("transaction aborted after %d attempts: %w", retries, goredis.TxFailedErr)
}
