package auth

import (
	"encoding/json"
	"maps"
	"strings"
	"time"
)

// Reserved attribute names. Extra fields never shadow these.
const (
	FieldID        = "id"
	FieldEmail     = "email"
	FieldPassword  = "password"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// User is a registered identity: a fixed core schema plus an open set of
// caller-declared attributes in Fields.
type User struct {
	ID    string
	Email string

	// PasswordHash is server-side only. It is never encoded to JSON and is
	// cleared by Sanitize before a user leaves the Engine.
	PasswordHash string

	Fields map[string]any

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy of the user record.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Fields != nil {
		c.Fields = maps.Clone(u.Fields)
	}
	return &c
}

// Field returns the named extra attribute.
func (u *User) Field(name string) (any, bool) {
	if u == nil || u.Fields == nil {
		return nil, false
	}
	v, ok := u.Fields[name]
	return v, ok
}

// MarshalJSON flattens Fields next to the core attributes. Core keys win
// over same-named extra fields and the password hash is never written.
func (u User) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(u.Fields)+4)
	for k, v := range u.Fields {
		if IsReservedField(k) {
			continue
		}
		out[k] = v
	}
	out[FieldID] = u.ID
	out[FieldEmail] = u.Email
	if !u.CreatedAt.IsZero() {
		out[FieldCreatedAt] = u.CreatedAt
	}
	if !u.UpdatedAt.IsZero() {
		out[FieldUpdatedAt] = u.UpdatedAt
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON. Unknown keys land in Fields.
// A "password" key is ignored.
func (u *User) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = User{}
	for k, v := range raw {
		switch k {
		case FieldID:
			u.ID, _ = v.(string)
		case FieldEmail:
			u.Email, _ = v.(string)
		case FieldCreatedAt:
			u.CreatedAt = parseTime(v)
		case FieldUpdatedAt:
			u.UpdatedAt = parseTime(v)
		case FieldPassword:
		default:
			if u.Fields == nil {
				u.Fields = make(map[string]any)
			}
			u.Fields[k] = v
		}
	}
	return nil
}

func parseTime(v any) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// IsReservedField reports whether name is a core attribute that extra
// fields may not shadow.
func IsReservedField(name string) bool {
	switch name {
	case FieldID, FieldEmail, FieldPassword, FieldCreatedAt, FieldUpdatedAt:
		return true
	}
	return false
}

// NormalizeEmail returns the canonical key used for case-insensitive email
// lookups. Every UserStore indexes by this value.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserUpdate is a partial change set for UpdateUser. Nil pointers leave the
// attribute untouched; Fields entries are merged into the existing map and a
// nil value removes the key.
type UserUpdate struct {
	Email        *string
	PasswordHash *string
	Fields       map[string]any
}

// Apply merges the update into u in place and reports whether the email key
// changed.
func (up UserUpdate) Apply(u *User) (emailChanged bool) {
	if up.Email != nil {
		emailChanged = NormalizeEmail(*up.Email) != NormalizeEmail(u.Email)
		u.Email = *up.Email
	}
	if up.PasswordHash != nil {
		u.PasswordHash = *up.PasswordHash
	}
	for k, v := range up.Fields {
		if IsReservedField(k) {
			continue
		}
		if v == nil {
			delete(u.Fields, k)
			continue
		}
		if u.Fields == nil {
			u.Fields = make(map[string]any)
		}
		u.Fields[k] = v
	}
	return emailChanged
}

// Credentials is the fixed login input.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
