// Package migration applies ordered, tracked schema migrations through GORM.
//
// Applied ids are recorded in the schema_migrations table, so running the
// same set twice is a no-op. The tracking table is created through GORM and
// works on every dialect GORM supports.
package migration

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/kbukum/authkit/logger"
)

// Migration describes a single schema migration.
type Migration struct {
	ID          string
	Description string
	Up          func(*gorm.DB) error
}

// schemaMigration is a row of the tracking table.
type schemaMigration struct {
	ID        string `gorm:"primaryKey;size:255"`
	AppliedAt time.Time
}

func (schemaMigration) TableName() string { return "schema_migrations" }

// Runner applies migrations tracked in the schema_migrations table.
type Runner struct {
	db         *gorm.DB
	log        *logger.Logger
	migrations []Migration
}

// NewRunner creates a runner bound to the given database and logger.
func NewRunner(db *gorm.DB, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.NewNop()
	}
	return &Runner{db: db, log: log}
}

// Add registers migrations in application order.
func (r *Runner) Add(migrations ...Migration) *Runner {
	r.migrations = append(r.migrations, migrations...)
	return r
}

// Run applies all pending migrations in order. Each migration and its
// tracking row commit together.
func (r *Runner) Run() error {
	if err := r.db.AutoMigrate(&schemaMigration{}); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range r.migrations {
		applied, err := r.isApplied(m.ID)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if applied {
			r.log.Debug("Migration already applied", map[string]interface{}{
				"id": m.ID,
			})
			continue
		}

		r.log.Info("Applying migration", map[string]interface{}{
			"id":          m.ID,
			"description": m.Description,
		})

		if err := r.db.Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&schemaMigration{ID: m.ID, AppliedAt: time.Now().UTC()}).Error
		}); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.ID, err)
		}
	}

	return nil
}

// Applied returns the ids already recorded, in application order.
func (r *Runner) Applied() ([]string, error) {
	var rows []schemaMigration
	if err := r.db.Order("applied_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

func (r *Runner) isApplied(id string) (bool, error) {
	var count int64
	err := r.db.Model(&schemaMigration{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
