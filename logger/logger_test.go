package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"
)

func jsonLogger(buf *bytes.Buffer, level string) *Logger {
	return NewWithWriter(buf, &Config{Level: level, Format: FormatJSON}, "authkit")
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	line := strings.TrimSpace(buf.String())
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("invalid json log line %q: %v", line, err)
	}
	return m
}

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "invalid-level")
	l.Debug("hidden")
	l.Info("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("expected invalid level to fall back to info")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("expected info message to be written")
	}
}

func TestJSONOutputCarriesServiceAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "info").WithComponent(ComponentAuth)
	l.Info("user registered", Fields(FieldUserID, "u1"))

	m := decodeLine(t, &buf)
	if m["message"] != "user registered" {
		t.Errorf("unexpected message %v", m["message"])
	}
	if m[FieldService] != "authkit" {
		t.Errorf("expected service field, got %v", m[FieldService])
	}
	if m[FieldComponent] != ComponentAuth {
		t.Errorf("expected component field, got %v", m[FieldComponent])
	}
	if m[FieldUserID] != "u1" {
		t.Errorf("expected user_id field, got %v", m[FieldUserID])
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithUserID(ctx, "user-9")

	jsonLogger(&buf, "info").WithContext(ctx).Info("hello")

	m := decodeLine(t, &buf)
	if m[FieldRequestID] != "req-1" {
		t.Errorf("expected request id, got %v", m[FieldRequestID])
	}
	if m[FieldUserID] != "user-9" {
		t.Errorf("expected user id, got %v", m[FieldUserID])
	}
	if RequestIDFromContext(ctx) != "req-1" {
		t.Error("expected RequestIDFromContext to return stored id")
	}
}

func TestWithFieldsAndError(t *testing.T) {
	var buf bytes.Buffer
	jsonLogger(&buf, "info").
		WithFields(map[string]interface{}{"key": "value"}).
		WithError(fmt.Errorf("boom")).
		Error("failed")

	m := decodeLine(t, &buf)
	if m["key"] != "value" {
		t.Errorf("expected key field, got %v", m["key"])
	}
	if m["error"] != "boom" {
		t.Errorf("expected error field, got %v", m["error"])
	}
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Info("ignored")
	l.WithComponent("x").Error("ignored")
}

func TestGlobalLogger(t *testing.T) {
	globalLogger = nil
	if GetGlobalLogger() == nil {
		t.Fatal("expected default global logger to be created")
	}

	l := NewNop()
	SetGlobalLogger(l)
	if GetGlobalLogger() != l {
		t.Error("expected SetGlobalLogger to set the global logger")
	}

	Init(&Config{Level: "debug", Format: FormatConsole, Output: "discard"})
	Debug("debug msg")
	Info("info msg")
	Warn("warn msg")
	Error("error msg")
	if WithComponent("x") == nil {
		t.Error("expected component logger")
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Level != "info" {
		t.Errorf("expected level 'info', got %q", cfg.Level)
	}
	if cfg.Format != FormatConsole {
		t.Errorf("expected format 'console', got %q", cfg.Format)
	}
	if cfg.Output != "stdout" {
		t.Errorf("expected output 'stdout', got %q", cfg.Output)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamp enabled")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "info", Format: "json", Output: "stdout"}, false},
		{"bad level", Config{Level: "loud", Format: "json", Output: "stdout"}, true},
		{"bad format", Config{Level: "info", Format: "xml", Output: "stdout"}, true},
		{"bad output", Config{Level: "info", Format: "json", Output: "file"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestRegisterAndGet(t *testing.T) {
	l := NewNop()
	Register("my-component", l)

	if Get("my-component") != l {
		t.Error("expected Get to return the registered logger")
	}
	if Get("unregistered-component") == nil {
		t.Fatal("expected non-nil logger for unregistered component")
	}
}

func TestRegisterDefaults(t *testing.T) {
	SetGlobalLogger(NewNop())
	RegisterDefaults()

	for _, name := range Components {
		if Get(name) == nil {
			t.Errorf("expected non-nil logger for %q", name)
		}
	}
}

func TestFields(t *testing.T) {
	tests := []struct {
		name     string
		input    []interface{}
		expected map[string]interface{}
	}{
		{"key-value pairs", []interface{}{"op", "save", "id", 42}, map[string]interface{}{"op": "save", "id": 42}},
		{"odd number of args", []interface{}{"op", "save", "trailing"}, map[string]interface{}{"op": "save"}},
		{"non-string key skipped", []interface{}{123, "value", "key", "val"}, map[string]interface{}{"key": "val"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := Fields(tc.input...)
			if len(result) != len(tc.expected) {
				t.Errorf("expected %d fields, got %d", len(tc.expected), len(result))
			}
			for k, v := range tc.expected {
				if result[k] != v {
					t.Errorf("Fields[%q] = %v, expected %v", k, result[k], v)
				}
			}
		})
	}
}

func TestErrorAndDurationFields(t *testing.T) {
	fields := ErrorFields("create-user", fmt.Errorf("something broke"))
	if fields[FieldOperation] != "create-user" || fields[FieldError] != "something broke" {
		t.Errorf("unexpected error fields %v", fields)
	}

	fields = DurationFields("query", 150*time.Millisecond)
	if fields[FieldDuration] != int64(150) {
		t.Errorf("expected duration 150, got %v", fields[FieldDuration])
	}
}
