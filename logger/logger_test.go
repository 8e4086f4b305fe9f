package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNew(t *testing.T) {
	cfg := &Config{Level: "debug", Format: "json", Output: "stdout"}
	l := New(cfg, "my-service")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewInvalidLevel(t *testing.T) {
	cfg := &Config{Level: "invalid-level", Format: "json", Output: "stdout"}
	if l := New(cfg, "test"); l == nil {
		t.Fatal("expected logger to be created even with invalid level")
	}
}

func TestNewFromEnv(t *testing.T) {
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("LOG_FORMAT", "json")
	defer os.Unsetenv("LOG_LEVEL")
	defer os.Unsetenv("LOG_FORMAT")

	if l := NewFromEnv("env-svc"); l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestServiceFieldEmitted(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriter(&Config{Level: "info", Format: "json"}, "reskit-test", &buf)
	l.Info("hello")

	if !strings.Contains(buf.String(), `"service":"reskit-test"`) {
		t.Errorf("expected service field in output, got %s", buf.String())
	}
}

func TestServiceFieldSurvivesDerivedLoggers(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriter(&Config{Level: "info", Format: "json"}, "reskit-test", &buf)
	l.WithComponent("database").Info("derived")

	out := buf.String()
	if !strings.Contains(out, `"service":"reskit-test"`) || !strings.Contains(out, `"component":"database"`) {
		t.Errorf("expected service and component fields, got %s", out)
	}
}

func TestWithComponent(t *testing.T) {
	l := NewDefault("test").WithComponent("database")
	if l == nil {
		t.Fatal("expected non-nil component logger")
	}
	// Logging through the derived logger must not panic.
	l.Info("component message")
}

func TestWithFieldsAndError(t *testing.T) {
	l := NewDefault("test")
	l.WithFields(map[string]interface{}{"k": "v"}).Info("fields message")
	l.WithError(os.ErrNotExist).Warn("error message")
}

func TestGlobalLogger(t *testing.T) {
	SetGlobalLogger(nil)
	if GetGlobalLogger() == nil {
		t.Fatal("expected lazily created global logger")
	}

	custom := NewDefault("custom")
	SetGlobalLogger(custom)
	if GetGlobalLogger() != custom {
		t.Error("expected the custom global logger")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate, got %v", err)
	}

	cfg.Level = "loud"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid level")
	}

	cfg.Level = "info"
	cfg.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestFields(t *testing.T) {
	m := Fields("op", "acquire", "partition", 2)
	if m["op"] != "acquire" || m["partition"] != 2 {
		t.Errorf("unexpected fields map: %v", m)
	}

	// Odd trailing value is dropped.
	m = Fields("only-key")
	if len(m) != 0 {
		t.Errorf("expected empty map, got %v", m)
	}
}
