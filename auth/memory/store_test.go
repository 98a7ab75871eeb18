package memory

import (
	"context"
	"testing"
	"time"

	"github.com/kbukum/authkit/auth"
	"github.com/kbukum/authkit/auth/storetest"
)

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) auth.UserStore { return New() })
}

func TestStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()

	u, err := s.CreateUser(ctx, &auth.User{Email: "a@b.com", Fields: map[string]any{"nickname": "neo"}})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	u.Fields["nickname"] = "mutated"
	u.Email = "mutated@b.com"

	got, _ := s.FindUserByID(ctx, u.ID)
	if got.Fields["nickname"] != "neo" || got.Email != "a@b.com" {
		t.Errorf("caller mutation leaked into the store: %+v", got)
	}
}

func TestStoreOptions(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s := New(WithClock(func() time.Time { return fixed }), WithIDGenerator(func() string { return "id-1" }))

	u, err := s.CreateUser(context.Background(), &auth.User{Email: "a@b.com"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID != "id-1" {
		t.Errorf("expected generated id, got %q", u.ID)
	}
	if !u.CreatedAt.Equal(fixed) || !u.UpdatedAt.Equal(fixed) {
		t.Errorf("expected fixed timestamps, got %s / %s", u.CreatedAt, u.UpdatedAt)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 user, got %d", s.Len())
	}
}
