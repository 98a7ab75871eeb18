// Package storetest is the conformance suite for auth.UserStore adapters.
//
// Every adapter test calls Run with a factory returning an empty store:
//
//	func TestStore(t *testing.T) {
//	    storetest.Run(t, func(t *testing.T) auth.UserStore { return memory.New() })
//	}
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/authkit/auth"
)

// Factory returns a new, empty store for one subtest.
type Factory func(t *testing.T) auth.UserStore

// Run executes the conformance suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s auth.UserStore)
	}{
		{"CreateAssignsIDAndTimestamps", testCreateAssignsIDAndTimestamps},
		{"CreateDoesNotModifyArgument", testCreateDoesNotModifyArgument},
		{"FindByEmailIsCaseInsensitive", testFindByEmailIsCaseInsensitive},
		{"FindMissingReturnsNil", testFindMissingReturnsNil},
		{"CreateRejectsDuplicateEmail", testCreateRejectsDuplicateEmail},
		{"ConcurrentCreateSameEmail", testConcurrentCreateSameEmail},
		{"FieldsRoundTrip", testFieldsRoundTrip},
		{"UpdateMergesFields", testUpdateMergesFields},
		{"UpdateEmailReindexes", testUpdateEmailReindexes},
		{"UpdateEmailConflict", testUpdateEmailConflict},
		{"UpdatePasswordHash", testUpdatePasswordHash},
		{"UpdateMissingUser", testUpdateMissingUser},
		{"DeleteRemovesRecordAndIndex", testDeleteRemovesRecordAndIndex},
		{"DeleteMissingIsNoop", testDeleteMissingIsNoop},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, newStore(t))
		})
	}
}

func newUser(email string) *auth.User {
	return &auth.User{Email: email, PasswordHash: "hash-" + email}
}

func create(t *testing.T, s auth.UserStore, email string) *auth.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), newUser(email))
	require.NoError(t, err)
	require.NotNil(t, u)
	return u
}

func testCreateAssignsIDAndTimestamps(t *testing.T, s auth.UserStore) {
	u := create(t, s, "a@b.com")
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "a@b.com", u.Email)
	assert.Equal(t, "hash-a@b.com", u.PasswordHash)
	assert.False(t, u.CreatedAt.IsZero(), "CreatedAt must be set")
	assert.False(t, u.UpdatedAt.IsZero(), "UpdatedAt must be set")

	other := create(t, s, "c@d.com")
	assert.NotEqual(t, u.ID, other.ID, "ids must be unique")
}

func testCreateDoesNotModifyArgument(t *testing.T, s auth.UserStore) {
	in := newUser("a@b.com")
	_, err := s.CreateUser(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, in.ID)
	assert.True(t, in.CreatedAt.IsZero())
}

func testFindByEmailIsCaseInsensitive(t *testing.T, s auth.UserStore) {
	ctx := context.Background()
	u := create(t, s, "Alice@Example.com")

	for _, email := range []string{"alice@example.com", "ALICE@EXAMPLE.COM", " Alice@Example.com "} {
		got, err := s.FindUserByEmail(ctx, email)
		require.NoError(t, err)
		require.NotNil(t, got, "lookup by %q", email)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, "Alice@Example.com", got.Email, "stored email keeps its casing")
	}

	byID, err := s.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, u.Email, byID.Email)
	assert.Equal(t, u.PasswordHash, byID.PasswordHash)
}

func testFindMissingReturnsNil(t *testing.T, s auth.UserStore) {
	ctx := context.Background()
	u, err := s.FindUserByEmail(ctx, "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, u)

	u, err = s.FindUserByID(ctx, "00000000-0000-4000-8000-000000000000")
	assert.NoError(t, err)
	assert.Nil(t, u)
}

func testCreateRejectsDuplicateEmail(t *testing.T, s auth.UserStore) {
	ctx := context.Background()
	first := create(t, s, "a@b.com")

	_, err := s.CreateUser(ctx, newUser("A@B.COM"))
	assert.ErrorIs(t, err, auth.ErrDuplicateEmail)

	got, err := s.FindUserByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID, "existing record must not be overwritten")
}

func testConcurrentCreateSameEmail(t *testing.T, s auth.UserStore) {
	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		other     []error
	)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateUser(context.Background(), &auth.User{
				Email:        "race@example.com",
				PasswordHash: fmt.Sprintf("hash-%d", i),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case !errors.Is(err, auth.ErrDuplicateEmail):
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, other, "losers must fail with ErrDuplicateEmail")
	assert.Equal(t, 1, succeeded, "exactly one concurrent create may win")
}

func testFieldsRoundTrip(t *testing.T, s auth.UserStore) {
	ctx := context.Background()
	in := newUser("a@b.com")
	in.Fields = map[string]any{"nickname": "neo", "age": 30, "admin": true}

	u, err := s.CreateUser(ctx, in)
	require.NoError(t, err)

	got, err := s.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "neo", got.Fields["nickname"])
	assert.Equal(t, true, got.Fields["admin"])
	assert.InDelta(t, 30, toFloat(t, got.Fields["age"]), 0)
}

func testUpdateMergesFields(t *testing.T, s auth.UserStore) {
	ctx := context.Background()
	in := newUser("a@b.com")
	in.Fields = map[string]any{"nickname": "neo", "city": "Zion"}
	u, err := s.CreateUser(ctx, in)
	require.NoError(t, err)

	updated, err := s.UpdateUser(ctx, u.ID, auth.UserUpdate{
		Fields: map[string]any{"nickname": "the one", "city": nil, "role": "admin"},
	})
	require.NoError(t, err)
	assert.Equal(t, u.ID, updated.ID)
	assert.Equal(t, "the one", updated.Fields["nickname"])
	assert.Equal(t, "admin", updated.Fields["role"])
	assert.NotContains(t, updated.Fields, "city", "nil value removes the attribute")
	assert.Equal(t, u.Email, updated.Email)
	assert.Equal(t, u.PasswordHash, updated.PasswordHash)
	assert.False(t, updated.UpdatedAt.Before(u.UpdatedAt), "UpdatedAt must be refreshed")
	assert.True(t, updated.CreatedAt.Equal(u.CreatedAt), "CreatedAt is immutable")

	stored, err := s.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "the one", stored.Fields["nickname"])
}

func testUpdateEmailReindexes(t *testing.T, s auth.UserStore) {
	ctx := context.Background()
	u := create(t, s, "old@example.com")

	newEmail := "New@Example.com"
	updated, err := s.UpdateUser(ctx, u.ID, auth.UserUpdate{Email: &newEmail})
	require.NoError(t, err)
	assert.Equal(t, newEmail, updated.Email)

	old, err := s.FindUserByEmail(ctx, "old@example.com")
	require.NoError(t, err)
	assert.Nil(t, old, "old email must no longer resolve")

	got, err := s.FindUserByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.CreateUser(ctx, newUser("old@example.com"))
	assert.NoError(t, err, "old email must be free again")
}

func testUpdateEmailConflict(t *testing.T, s auth.UserStore) {
	ctx := context.Background()
	a := create(t, s, "a@example.com")
	create(t, s, "b@example.com")

	taken := "B@example.com"
	_, err := s.UpdateUser(ctx, a.ID, auth.UserUpdate{Email: &taken})
	assert.ErrorIs(t, err, auth.ErrDuplicateEmail)

	got, err := s.FindUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, a.ID, got.ID, "failed update must leave the record untouched")

	same := "A@EXAMPLE.COM"
	updated, err := s.UpdateUser(ctx, a.ID, auth.UserUpdate{Email: &same})
	require.NoError(t, err, "changing only the casing of one's own email is allowed")
	assert.Equal(t, same, updated.Email)
}

func testUpdatePasswordHash(t *testing.T, s auth.UserStore) {
	ctx := context.Background()
	u := create(t, s, "a@b.com")

	hash := "new-hash"
	_, err := s.UpdateUser(ctx, u.ID, auth.UserUpdate{PasswordHash: &hash})
	require.NoError(t, err)

	got, err := s.FindUserByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, hash, got.PasswordHash)
}

func testUpdateMissingUser(t *testing.T, s auth.UserStore) {
	_, err := s.UpdateUser(context.Background(), "00000000-0000-4000-8000-000000000000", auth.UserUpdate{
		Fields: map[string]any{"x": 1},
	})
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func testDeleteRemovesRecordAndIndex(t *testing.T, s auth.UserStore) {
	ctx := context.Background()
	u := create(t, s, "a@b.com")

	require.NoError(t, s.DeleteUser(ctx, u.ID))

	byID, err := s.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, byID)

	byEmail, err := s.FindUserByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Nil(t, byEmail)

	_, err = s.CreateUser(ctx, newUser("a@b.com"))
	assert.NoError(t, err, "email must be reusable after delete")
}

func testDeleteMissingIsNoop(t *testing.T, s auth.UserStore) {
	assert.NoError(t, s.DeleteUser(context.Background(), "00000000-0000-4000-8000-000000000000"))
}

func toFloat(t *testing.T, v any) float64 {
	t.Helper()
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	default:
		t.Fatalf("expected a number, got %T", v)
		return 0
	}
}
