package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithRequestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	h := WithRequestLogging(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/healthz", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/boom", nil))

	entries := logs.AllUntimed()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}

	first := entries[0].ContextMap()
	if entries[0].Level != zapcore.InfoLevel {
		t.Errorf("expected info level, got %v", entries[0].Level)
	}
	if first["path"] != "/healthz" || first["method"] != "GET" {
		t.Errorf("unexpected fields: %v", first)
	}
	if first["status"] != int64(http.StatusOK) {
		t.Errorf("expected status 200, got %v", first["status"])
	}
	if first["bytes"] != int64(2) {
		t.Errorf("expected 2 bytes, got %v", first["bytes"])
	}

	if entries[1].Level != zapcore.ErrorLevel {
		t.Errorf("expected error level for 500, got %v", entries[1].Level)
	}
	if got := entries[1].ContextMap()["status"]; got != int64(http.StatusInternalServerError) {
		t.Errorf("expected status 500, got %v", got)
	}
}
