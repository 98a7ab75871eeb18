package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kbukum/authkit/auth"
)

// userRecord is the users table row. EmailKey holds the normalized email and
// carries the unique index that makes registration atomic.
type userRecord struct {
	ID           string         `gorm:"primaryKey;size:36"`
	Email        string         `gorm:"size:320;not null"`
	EmailKey     string         `gorm:"size:320;not null;uniqueIndex:idx_users_email_key"`
	PasswordHash string         `gorm:"size:255"`
	Fields       map[string]any `gorm:"type:text;serializer:json"`
	CreatedAt    time.Time      `gorm:"autoCreateTime:false"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime:false"`
}

func (userRecord) TableName() string { return "users" }

// BeforeCreate generates a UUID if not already set.
func (r *userRecord) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func newRecord(u *auth.User) *userRecord {
	return &userRecord{
		ID:           u.ID,
		Email:        u.Email,
		EmailKey:     auth.NormalizeEmail(u.Email),
		PasswordHash: u.PasswordHash,
		Fields:       u.Fields,
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	}
}

func (r *userRecord) toUser() *auth.User {
	return &auth.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Fields:       r.Fields,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}
