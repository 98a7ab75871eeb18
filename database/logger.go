package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kbukum/authkit/logger"
)

var gormLevels = map[string]gormlogger.LogLevel{
	"silent": gormlogger.Silent,
	"error":  gormlogger.Error,
	"warn":   gormlogger.Warn,
	"info":   gormlogger.Info,
}

// queryLogger routes GORM output to the store logger. Bound parameters are
// never logged, so password hashes and emails stay out of log lines.
type queryLogger struct {
	log   *logger.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

func newQueryLogger(log *logger.Logger, slow time.Duration, level string) gormlogger.Interface {
	lvl, ok := gormLevels[strings.ToLower(level)]
	if !ok {
		lvl = gormlogger.Warn
	}
	return &queryLogger{log: log.WithComponent("gorm"), level: lvl, slow: slow}
}

func (l *queryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

// ParamsFilter implements gorm's ParamsFilter so statements keep their
// placeholders.
func (l *queryLogger) ParamsFilter(_ context.Context, sql string, _ ...interface{}) (string, []interface{}) {
	return sql, nil
}

func (l *queryLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Info {
		l.log.WithContext(ctx).Info(fmt.Sprintf(msg, data...))
	}
}

func (l *queryLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.log.WithContext(ctx).Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *queryLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Error {
		l.log.WithContext(ctx).Error(fmt.Sprintf(msg, data...))
	}
}

func (l *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := map[string]interface{}{"sql": sql, "rows": rows, logger.FieldDuration: elapsed.Milliseconds()}
	log := l.log.WithContext(ctx)

	// Missing users and lost email races are normal store outcomes.
	expected := errors.Is(err, gorm.ErrRecordNotFound) || IsDuplicateError(err)
	switch {
	case err != nil && !expected:
		fields[logger.FieldError] = err.Error()
		log.Error("Query error", fields)
	case l.slow > 0 && elapsed > l.slow && l.level >= gormlogger.Warn:
		log.Warn("Slow query", fields)
	case l.level >= gormlogger.Info:
		log.Debug("Query", fields)
	}
}
