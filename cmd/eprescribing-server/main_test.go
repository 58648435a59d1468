package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/eprescribing/eprescribing/internal/config"
	"github.com/eprescribing/eprescribing/internal/domain/clinic"
	"github.com/eprescribing/eprescribing/internal/persistence"
	"github.com/eprescribing/eprescribing/internal/platform/telemetry"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	want := map[string]bool{"serve": false, "migrate": false, "seed": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("expected subcommand %q", name)
		}
	}

	migrate, _, err := root.Find([]string{"migrate", "status"})
	if err != nil {
		t.Fatalf("find migrate status: %v", err)
	}
	for _, flag := range []string{"schema", "dir"} {
		if migrate.Flags().Lookup(flag) == nil {
			t.Errorf("expected --%s on migrate status", flag)
		}
	}
}

func sqliteEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clinic.db")
	t.Setenv("STORAGE_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", path)
	t.Setenv("ENV", "test")
	return path
}

func TestSeedCmd_SQLite(t *testing.T) {
	path := sqliteEnv(t)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"seed"})
	if err := root.Execute(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !strings.Contains(out.String(), "loaded into sqlite") {
		t.Errorf("unexpected output %q", out.String())
	}

	ctx := context.Background()
	backend, err := persistence.Open(ctx, persistence.Options{Driver: "sqlite", SQLitePath: path}, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer backend.Close()
	o, err := clinic.NewService(backend).FindOwnerByID(ctx, 1)
	if err != nil || o == nil {
		t.Fatalf("expected seeded owner 1, got %v, %v", o, err)
	}
	if o.LastName != "Franklin" {
		t.Errorf("expected Franklin, got %q", o.LastName)
	}
}

func TestMigrateCmd_SQLite(t *testing.T) {
	sqliteEnv(t)

	for _, args := range [][]string{{"migrate", "up"}, {"migrate", "status"}} {
		root := newRootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetArgs(args)
		if err := root.Execute(); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		if out.Len() == 0 {
			t.Errorf("%v: expected output", args)
		}
	}
}

func TestNewMigrator_Source(t *testing.T) {
	embedded, err := newMigrator(nil, "").LoadMigrations()
	if err != nil {
		t.Fatalf("load embedded: %v", err)
	}
	if len(embedded) == 0 || embedded[0].Version != 1 {
		t.Fatalf("expected embedded migrations starting at version 1, got %+v", embedded)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "007_extra_index.sql"), []byte("SELECT 1;"), 0o644); err != nil {
		t.Fatal(err)
	}
	fromDir, err := newMigrator(nil, dir).LoadMigrations()
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if len(fromDir) != 1 || fromDir[0].Version != 7 {
		t.Errorf("expected only the on-disk migration, got %+v", fromDir)
	}
}

func TestNewServer_Routes(t *testing.T) {
	sqliteEnv(t)
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	backend, err := persistence.Open(context.Background(), storageOptions(cfg), zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer backend.Close()

	reg := prometheus.NewRegistry()
	recorder, err := telemetry.NewRecorder(reg, backend.Name())
	if err != nil {
		t.Fatalf("recorder: %v", err)
	}
	e := newServer(backend, reg, recorder, zerolog.Nop())

	tests := []struct {
		path string
		code int
	}{
		{"/health", http.StatusOK},
		{"/health/db", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/api/v1/owners", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.code {
				t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.code)
			}
		})
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/db", nil))
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["backend"] != "sqlite" {
		t.Errorf("expected sqlite backend, got %v", body["backend"])
	}
	if _, ok := body["pool"]; ok {
		t.Error("expected no pool stats for sqlite")
	}
}

func TestNewLogger_Level(t *testing.T) {
	cfg := &config.Config{Env: "production", LogLevel: "warn"}
	var buf bytes.Buffer
	logger := newLogger(cfg, &buf)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected log output %q", buf.String())
	}
}
