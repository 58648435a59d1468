package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg, "sqlite")
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	r.Observe(context.Background(), "SaveOwner", true, 3*time.Millisecond)
	r.Observe(context.Background(), "SaveOwner", true, time.Millisecond)
	r.Observe(context.Background(), "SaveOwner", false, time.Millisecond)

	if got := testutil.ToFloat64(r.operations.WithLabelValues("SaveOwner", "success")); got != 2 {
		t.Errorf("expected 2 successes, got %v", got)
	}
	if got := testutil.ToFloat64(r.operations.WithLabelValues("SaveOwner", "error")); got != 1 {
		t.Errorf("expected 1 error, got %v", got)
	}
	if n := testutil.CollectAndCount(r.operationDuration); n != 1 {
		t.Errorf("expected one duration series, got %d", n)
	}
}

func TestRecorder_ObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg, "postgres")
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	r.ObserveRequest(http.MethodGet, "/health", 200, time.Millisecond)
	r.ObserveRequest(http.MethodGet, "/health/db", 503, time.Millisecond)

	if got := testutil.ToFloat64(r.requests.WithLabelValues(http.MethodGet, "/health/db", "503")); got != 1 {
		t.Errorf("expected one 503, got %v", got)
	}
}

func TestNewRecorder_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewRecorder(reg, "sqlite"); err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	if _, err := NewRecorder(reg, "sqlite"); err == nil {
		t.Error("expected an error registering the same collectors twice")
	}
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg, "gorm")
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	r.Observe(context.Background(), "FindOwnerByID", true, time.Millisecond)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	if err := Handler(reg)(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := rec.Body.String()
	want := `eprescribing_clinic_operations_total{backend="gorm",operation="FindOwnerByID",outcome="success"} 1`
	if !strings.Contains(body, want) {
		t.Errorf("expected %q in exposition:\n%s", want, body)
	}
}
