package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kbukum/authkit/logger"
)

// DB is a GORM connection with its pool settings and a store logger.
type DB struct {
	GormDB *gorm.DB
	log    *logger.Logger
	cfg    Config

	closeOnce sync.Once
	closeErr  error
}

// Open connects with the dialector named by cfg.Driver.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (*DB, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Driver {
	case DriverSQLite:
		return NewWithContext(ctx, sqlite.Open(cfg.DSN), cfg, log)
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// NewWithContext connects through dialector, retrying with linear backoff
// up to cfg.MaxRetries times. Canceling ctx aborts the retries.
func NewWithContext(ctx context.Context, dialector gorm.Dialector, cfg Config, log *logger.Logger) (*DB, error) {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Get(logger.ComponentStore)
	}
	log = log.WithFields(logger.Fields(logger.FieldDriver, dialector.Name()))

	slow, _ := time.ParseDuration(cfg.SlowQueryThreshold)
	gormCfg := &gorm.Config{
		Logger:         newQueryLogger(log, slow, cfg.LogLevel),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("database connection canceled: %w", err)
		}
		gdb, err := connect(ctx, dialector, gormCfg)
		if err == nil {
			sqlDB, _ := gdb.DB()
			configurePool(sqlDB, cfg)
			log.Info("Database connection established", map[string]interface{}{"attempt": attempt})
			return &DB{GormDB: gdb, log: log, cfg: cfg}, nil
		}
		lastErr = err
		if attempt == cfg.MaxRetries {
			break
		}

		backoff := time.Duration(attempt) * time.Second
		log.Warn("Database connection attempt failed, retrying", map[string]interface{}{
			"attempt": attempt,
			"error":   err.Error(),
			"backoff": backoff.String(),
		})
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("database connection canceled during retry: %w", ctx.Err())
		case <-time.After(backoff):
		}
	}
	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", cfg.MaxRetries, lastErr)
}

func connect(ctx context.Context, dialector gorm.Dialector, gormCfg *gorm.Config) (*gorm.DB, error) {
	gdb, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return gdb, nil
}

// configurePool applies validated pool limits. A zero duration means no
// limit, which keeps in-memory SQLite connections alive.
func configurePool(sqlDB *sql.DB, cfg Config) {
	lifetime, _ := time.ParseDuration(cfg.ConnMaxLifetime)
	idle, _ := time.ParseDuration(cfg.ConnMaxIdleTime)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(lifetime)
	sqlDB.SetConnMaxIdleTime(idle)
}

// Config returns the defaulted configuration.
func (d *DB) Config() Config { return d.cfg }

// Ping checks the connection.
func (d *DB) Ping(ctx context.Context) error {
	sqlDB, err := d.GormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the pool. Later calls return the first result.
func (d *DB) Close() error {
	d.closeOnce.Do(func() {
		sqlDB, err := d.GormDB.DB()
		if err != nil {
			d.closeErr = err
			return
		}
		d.log.Info("Closing database connection")
		d.closeErr = sqlDB.Close()
	})
	return d.closeErr
}

// WithContext returns a session bound to ctx.
func (d *DB) WithContext(ctx context.Context) *gorm.DB {
	return d.GormDB.WithContext(ctx)
}

// TransactionFunc runs inside a transaction.
type TransactionFunc func(tx *gorm.DB) error

// WithTransaction runs fn in a transaction that commits when fn returns nil
// and rolls back on error or panic. Panics are re-raised after the rollback.
func (d *DB) WithTransaction(ctx context.Context, fn TransactionFunc) error {
	defer func() {
		if r := recover(); r != nil {
			d.log.WithContext(ctx).Error("Transaction rolled back due to panic", map[string]interface{}{
				"panic": fmt.Sprintf("%v", r),
			})
			panic(r)
		}
	}()
	return d.GormDB.WithContext(ctx).Transaction(fn)
}
