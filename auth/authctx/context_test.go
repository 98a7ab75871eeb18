package authctx

import (
	"context"
	"errors"
	"testing"

	"github.com/kbukum/authkit/auth"
)

func TestSetAndGetUser(t *testing.T) {
	u := &auth.User{ID: "u1", Email: "a@b.com"}
	ctx := SetUser(context.Background(), u)

	got, ok := User(ctx)
	if !ok || got != u {
		t.Fatalf("expected stored user, got %v %v", got, ok)
	}
	if MustUser(ctx) != u {
		t.Error("expected MustUser to return stored user")
	}
	if got, err := UserOrError(ctx); err != nil || got != u {
		t.Errorf("expected user, got %v %v", got, err)
	}
}

func TestMissingUser(t *testing.T) {
	ctx := context.Background()
	if _, ok := User(ctx); ok {
		t.Error("expected no user in empty context")
	}
	if _, err := UserOrError(ctx); !errors.Is(err, ErrNoUser) {
		t.Errorf("expected ErrNoUser, got %v", err)
	}
	if SetUser(ctx, nil) != ctx {
		t.Error("expected nil user to leave context unchanged")
	}

	defer func() {
		if recover() == nil {
			t.Error("expected MustUser to panic")
		}
	}()
	MustUser(ctx)
}

func TestToken(t *testing.T) {
	ctx := SetToken(context.Background(), "abc")
	if tok, ok := Token(ctx); !ok || tok != "abc" {
		t.Errorf("expected token, got %q %v", tok, ok)
	}
	if _, ok := Token(context.Background()); ok {
		t.Error("expected no token in empty context")
	}
}
