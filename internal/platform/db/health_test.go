package db

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func serveHealth(t *testing.T, h echo.HandlerFunc) (int, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health/db", nil)
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return rec.Code, body
}

func TestHealthHandler_Healthy(t *testing.T) {
	code, body := serveHealth(t, HealthHandler("sqlite", stubPinger{}, nil))

	if code != http.StatusOK {
		t.Errorf("expected 200, got %d", code)
	}
	if body["status"] != "healthy" || body["backend"] != "sqlite" {
		t.Errorf("unexpected body: %v", body)
	}
	if _, ok := body["pool"]; ok {
		t.Error("expected no pool section without a stats func")
	}
}

func TestHealthHandler_UnhealthyWithPoolStats(t *testing.T) {
	stats := func() *PoolStats {
		return &PoolStats{TotalConns: 2, MaxConns: 10, AcquireDuration: "1ms", Healthy: true}
	}
	code, body := serveHealth(t, HealthHandler("postgres", stubPinger{err: errors.New("connection refused")}, stats))

	if code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", code)
	}
	if body["status"] != "unhealthy" || body["error"] != "connection refused" {
		t.Errorf("unexpected body: %v", body)
	}
	pool, ok := body["pool"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected pool section, got %v", body["pool"])
	}
	if pool["healthy"] != false {
		t.Error("expected pool to be reported unhealthy after a failed ping")
	}
	if pool["max_conns"] != float64(10) {
		t.Errorf("expected max_conns 10, got %v", pool["max_conns"])
	}
}
