package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_IsNop(t *testing.T) {
	l := New()
	if l.Log == nil {
		t.Fatal("New returned nil zap logger")
	}
	l.Log.Info("dropped")
}

func TestInit_InvalidLevel(t *testing.T) {
	l := New()
	if err := l.Init("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestInit_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")

	l := New()
	if err := l.Init("Info", path); err != nil {
		t.Fatalf("Init: %v", err)
	}
	l.Log.Debug("hidden")
	l.Log.Info("customers loaded")
	_ = l.Log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "customers loaded") {
		t.Errorf("expected info line in log, got %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line should be filtered at info level, got %q", out)
	}
}
