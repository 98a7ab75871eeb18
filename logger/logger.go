package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
	FormatPretty  = "pretty"
)

// Logger wraps zerolog.Logger with a service name and component tags.
type Logger struct {
	logger  zerolog.Logger
	service string
}

// Init initializes the global logger from config.
func Init(cfg *Config) {
	cfg.ApplyDefaults()
	globalLogger = New(cfg, "default")
}

// New creates a new logger instance with configuration.
func New(cfg *Config, serviceName string) *Logger {
	return NewWithWriter(outputWriter(cfg.Output), cfg, serviceName)
}

// NewWithWriter creates a logger that writes to w instead of the configured
// output. Tests use it to capture log lines.
func NewWithWriter(w io.Writer, cfg *Config, serviceName string) *Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var zl zerolog.Logger
	switch strings.ToLower(cfg.Format) {
	case FormatConsole, FormatPretty:
		zl = newConsoleLogger(w, cfg, serviceName)
	default:
		zl = zerolog.New(w)
		if cfg.Timestamp {
			zl = zl.With().Timestamp().Logger()
		}
	}
	zl = zl.Level(level)

	if serviceName != "" && serviceName != "default" {
		zl = zl.With().Str(FieldService, serviceName).Logger()
	}
	if cfg.Caller {
		zl = zl.With().Caller().Logger()
	}

	return &Logger{
		logger:  zl,
		service: serviceName,
	}
}

// NewDefault creates a logger with default configuration.
func NewDefault(serviceName string) *Logger {
	cfg := &Config{
		Level:     "info",
		Format:    FormatConsole,
		Output:    "stdout",
		NoColor:   false,
		Timestamp: true,
	}
	return New(cfg, serviceName)
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

// contextKey is an unexported type for context keys to avoid collisions.
type contextKey string

const (
	requestIDKey contextKey = "request_id"
	userIDKey    contextKey = "user_id"
)

// ContextWithRequestID stores a request id so WithContext can attach it.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// ContextWithUserID stores the authenticated user id so WithContext can attach it.
func ContextWithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// RequestIDFromContext returns the request id stored by ContextWithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithContext returns a logger enriched with request and user ids from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	zc := l.logger.With()
	if v := ctx.Value(requestIDKey); v != nil {
		zc = zc.Str(FieldRequestID, fmt.Sprintf("%v", v))
	}
	if v := ctx.Value(userIDKey); v != nil {
		zc = zc.Str(FieldUserID, fmt.Sprintf("%v", v))
	}
	return &Logger{logger: zc.Logger(), service: l.service}
}

// WithComponent returns a logger tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{
		logger:  l.logger.With().Str(FieldComponent, name).Logger(),
		service: l.service,
	}
}

// WithFields returns a logger with additional fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	zc := l.logger.With()
	for k, v := range fields {
		zc = zc.Interface(k, v)
	}
	return &Logger{logger: zc.Logger(), service: l.service}
}

// WithError returns a logger with an error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		logger:  l.logger.With().Err(err).Logger(),
		service: l.service,
	}
}

// GetLogger returns the underlying zerolog.Logger.
func (l *Logger) GetLogger() zerolog.Logger {
	return l.logger
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	event := l.logger.Debug()
	addFields(event, fields...)
	event.Msg(msg)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	event := l.logger.Info()
	addFields(event, fields...)
	event.Msg(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	event := l.logger.Warn()
	addFields(event, fields...)
	event.Msg(msg)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	event := l.logger.Error()
	addFields(event, fields...)
	event.Msg(msg)
}

// Fatal logs a fatal message and exits.
func (l *Logger) Fatal(msg string, fields ...map[string]interface{}) {
	event := l.logger.Fatal()
	addFields(event, fields...)
	event.Msg(msg)
}

// --- Global logger ---

var globalLogger *Logger

// SetGlobalLogger sets the global logger instance.
func SetGlobalLogger(l *Logger) { globalLogger = l }

// GetGlobalLogger returns the global logger, creating a default one if needed.
func GetGlobalLogger() *Logger {
	if globalLogger == nil {
		globalLogger = NewDefault("default")
	}
	return globalLogger
}

// Package-level convenience functions delegate to the global logger.

func Debug(msg string, fields ...map[string]interface{}) {
	GetGlobalLogger().Debug(msg, fields...)
}

func Info(msg string, fields ...map[string]interface{}) {
	GetGlobalLogger().Info(msg, fields...)
}

func Warn(msg string, fields ...map[string]interface{}) {
	GetGlobalLogger().Warn(msg, fields...)
}

func Error(msg string, fields ...map[string]interface{}) {
	GetGlobalLogger().Error(msg, fields...)
}

func Fatal(msg string, fields ...map[string]interface{}) {
	GetGlobalLogger().Fatal(msg, fields...)
}

// WithComponent returns a component-tagged logger from the global logger.
func WithComponent(name string) *Logger {
	return GetGlobalLogger().WithComponent(name)
}

// --- internal helpers ---

func addFields(event *zerolog.Event, fields ...map[string]interface{}) {
	for _, fm := range fields {
		for k, v := range fm {
			event.Interface(k, v)
		}
	}
}

func outputWriter(output string) io.Writer {
	switch strings.ToLower(output) {
	case "stderr":
		return os.Stderr
	case "discard", "none":
		return io.Discard
	default:
		return os.Stdout
	}
}

var levelTags = map[string]string{
	"DEBUG": "DBG",
	"INFO":  "INF",
	"WARN":  "WRN",
	"ERROR": "ERR",
	"FATAL": "FTL",
}

var levelColors = map[string]string{
	"DEBUG": "\033[36m",
	"INFO":  "\033[32m",
	"WARN":  "\033[33m",
	"ERROR": "\033[31m",
	"FATAL": "\033[35m",
}

func newConsoleLogger(w io.Writer, cfg *Config, serviceName string) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
		NoColor:    cfg.NoColor,
		FormatLevel: func(i interface{}) string {
			lvl := strings.ToUpper(fmt.Sprintf("%s", i))
			tag, ok := levelTags[lvl]
			if !ok {
				tag = lvl
			}
			out := "[" + tag + "]"
			if color, ok := levelColors[lvl]; ok && !cfg.NoColor {
				out = color + out + "\033[0m"
			}
			if serviceName != "" && serviceName != "default" && len(serviceName) >= 3 {
				svc := "[" + strings.ToUpper(serviceName[:3]) + "]"
				if !cfg.NoColor {
					svc = "\033[34m" + svc + "\033[0m"
				}
				return svc + out
			}
			return out
		},
		FormatFieldName: func(i interface{}) string {
			return fmt.Sprintf("%s:", i)
		},
	}).With().Timestamp().Logger()
}
