package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kbukum/authkit/logger"
)

//go:embed schema.sql
var Schema string

// Connect opens a pool and verifies it with a ping, retrying with linear
// backoff until cfg.MaxRetries attempts have failed.
func Connect(ctx context.Context, cfg Config, log *logger.Logger) (*pgxpool.Pool, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Get(logger.ComponentStore)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = mustDuration(cfg.MaxConnLifetime)
	poolCfg.MaxConnIdleTime = mustDuration(cfg.MaxConnIdleTime)
	poolCfg.HealthCheckPeriod = mustDuration(cfg.HealthCheckPeriod)
	interval := mustDuration(cfg.RetryInterval)

	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		pool, connErr := pgxpool.NewWithConfig(ctx, poolCfg)
		if connErr == nil {
			if connErr = pool.Ping(ctx); connErr == nil {
				log.Info("Postgres connection established", map[string]interface{}{
					"attempt": attempt,
				})
				return pool, nil
			}
			pool.Close()
		}
		err = connErr

		if attempt < cfg.MaxRetries {
			backoff := time.Duration(attempt) * interval
			log.Warn("Postgres connection attempt failed, retrying", map[string]interface{}{
				"attempt": attempt,
				"error":   err.Error(),
				"backoff": backoff.String(),
			})
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("postgres connection canceled: %w", ctx.Err())
			case <-time.After(backoff):
			}
		}
	}
	return nil, fmt.Errorf("failed to connect to postgres after %d attempts: %w", cfg.MaxRetries, err)
}

// Migrate creates the users table and its unique email index if missing.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}

// IsNotFoundError reports pgx.ErrNoRows.
func IsNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicateKeyError reports a unique constraint violation (SQLSTATE 23505).
func IsDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
