package database

import (
	"context"
	"testing"
	"time"

	"github.com/kbukum/authkit/auth"
	"github.com/kbukum/authkit/auth/storetest"
	"github.com/kbukum/authkit/database/migration"
	"github.com/kbukum/authkit/logger"
)

func newTestStore(t *testing.T, opts ...StoreOption) *UserStore {
	t.Helper()
	cfg := Config{DSN: ":memory:", AutoMigrate: true, LogLevel: "silent", MaxRetries: 1}
	s, err := OpenUserStore(context.Background(), cfg, logger.NewNop(), opts...)
	if err != nil {
		t.Fatalf("OpenUserStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUserStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) auth.UserStore {
		return newTestStore(t)
	})
}

func TestUserStore_Ping(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := s.Ping(context.Background()); err == nil {
		t.Error("expected Ping to fail after Close")
	}
}

func TestUserStore_Clock(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, WithClock(func() time.Time { return fixed }))

	u, err := s.CreateUser(context.Background(), &auth.User{Email: "a@b.com", PasswordHash: "h"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if !u.CreatedAt.Equal(fixed) || !u.UpdatedAt.Equal(fixed) {
		t.Errorf("timestamps = %v/%v, want %v", u.CreatedAt, u.UpdatedAt, fixed)
	}

	got, err := s.FindUserByID(context.Background(), u.ID)
	if err != nil || got == nil {
		t.Fatalf("FindUserByID: %v, %v", got, err)
	}
	if !got.CreatedAt.Equal(fixed) {
		t.Errorf("stored CreatedAt = %v, want %v", got.CreatedAt, fixed)
	}
}

func TestUserStore_MigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	ids, err := migration.NewRunner(s.DB().GormDB, nil).Applied()
	if err != nil {
		t.Fatalf("Applied: %v", err)
	}
	if len(ids) != 1 || ids[0] != "0001_create_users" {
		t.Errorf("applied = %v, want [0001_create_users]", ids)
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle", DSN: "x"}, logger.NewNop())
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestOpen_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Open(ctx, Config{DSN: ":memory:"}, logger.NewNop())
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
}
