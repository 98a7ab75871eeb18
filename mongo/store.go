package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/kbukum/authkit/auth"
)

const emailIndexName = "email_key_unique"

type userDoc struct {
	ID           string         `bson:"_id"`
	Email        string         `bson:"email"`
	EmailKey     string         `bson:"email_key"`
	PasswordHash string         `bson:"password_hash"`
	Fields       map[string]any `bson:"fields"`
	CreatedAt    time.Time      `bson:"created_at"`
	UpdatedAt    time.Time      `bson:"updated_at"`
}

func newDoc(u *auth.User) userDoc {
	fields := u.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	return userDoc{
		ID:           u.ID,
		Email:        u.Email,
		EmailKey:     auth.NormalizeEmail(u.Email),
		PasswordHash: u.PasswordHash,
		Fields:       fields,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d userDoc) toUser() *auth.User {
	u := &auth.User{
		ID:           d.ID,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
	if len(d.Fields) > 0 {
		u.Fields = d.Fields
	}
	return u
}

// UserStore is an auth.UserStore over a MongoDB collection. A unique index
// on email_key makes concurrent registrations for one email fail with
// auth.ErrDuplicateEmail.
type UserStore struct {
	coll  *mongo.Collection
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

// NewUserStore creates a store over coll. Call EnsureIndexes before use
// unless the index is managed elsewhere.
func NewUserStore(coll *mongo.Collection, opts ...StoreOption) *UserStore {
	s := &UserStore{coll: coll, now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureIndexes creates the unique email index. It is idempotent.
func (s *UserStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email_key", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(emailIndexName),
	})
	if err != nil {
		return fmt.Errorf("mongo: create email index: %w", err)
	}
	return nil
}

// Collection returns the underlying collection.
func (s *UserStore) Collection() *mongo.Collection { return s.coll }

// Ping implements auth.Pinger.
func (s *UserStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, nil)
}

// Close disconnects the client owning the collection.
func (s *UserStore) Close(ctx context.Context) error {
	return s.coll.Database().Client().Disconnect(ctx)
}

// timestamp returns the current time at BSON datetime precision.
func (s *UserStore) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// FindUserByEmail implements auth.UserStore.
func (s *UserStore) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	return s.findOne(ctx, bson.D{{Key: "email_key", Value: auth.NormalizeEmail(email)}})
}

// FindUserByID implements auth.UserStore.
func (s *UserStore) FindUserByID(ctx context.Context, id string) (*auth.User, error) {
	return s.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (s *UserStore) findOne(ctx context.Context, filter bson.D) (*auth.User, error) {
	var doc userDoc
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: find user: %w", err)
	}
	return doc.toUser(), nil
}

// CreateUser implements auth.UserStore.
func (s *UserStore) CreateUser(ctx context.Context, user *auth.User) (*auth.User, error) {
	rec := user.Clone()
	rec.ID = s.newID()
	rec.CreatedAt = s.timestamp()
	rec.UpdatedAt = rec.CreatedAt

	_, err := s.coll.InsertOne(ctx, newDoc(rec))
	if mongo.IsDuplicateKeyError(err) {
		return nil, auth.ErrDuplicateEmail
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: insert user: %w", err)
	}
	return rec, nil
}

// UpdateUser implements auth.UserStore as a single atomic document update.
// Field keys are applied as "fields.<key>" paths.
func (s *UserStore) UpdateUser(ctx context.Context, id string, update auth.UserUpdate) (*auth.User, error) {
	set := bson.D{{Key: "updated_at", Value: s.timestamp()}}
	unset := bson.D{}

	if update.Email != nil {
		set = append(set,
			bson.E{Key: "email", Value: *update.Email},
			bson.E{Key: "email_key", Value: auth.NormalizeEmail(*update.Email)},
		)
	}
	if update.PasswordHash != nil {
		set = append(set, bson.E{Key: "password_hash", Value: *update.PasswordHash})
	}
	for k, v := range update.Fields {
		if auth.IsReservedField(k) {
			continue
		}
		if v == nil {
			unset = append(unset, bson.E{Key: "fields." + k, Value: ""})
			continue
		}
		set = append(set, bson.E{Key: "fields." + k, Value: v})
	}

	change := bson.D{{Key: "$set", Value: set}}
	if len(unset) > 0 {
		change = append(change, bson.E{Key: "$unset", Value: unset})
	}

	var doc userDoc
	err := s.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		change,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	switch {
	case err == nil:
		return doc.toUser(), nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, auth.ErrUserNotFound
	case mongo.IsDuplicateKeyError(err):
		return nil, auth.ErrDuplicateEmail
	default:
		return nil, fmt.Errorf("mongo: update user: %w", err)
	}
}

// DeleteUser implements auth.UserStore.
func (s *UserStore) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}}); err != nil {
		return fmt.Errorf("mongo: delete user: %w", err)
	}
	return nil
}
