package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/eprescribing/eprescribing/internal/config"
	"github.com/eprescribing/eprescribing/internal/domain/clinic"
	"github.com/eprescribing/eprescribing/internal/persistence"
	"github.com/eprescribing/eprescribing/internal/platform/db"
	"github.com/eprescribing/eprescribing/internal/platform/middleware"
	"github.com/eprescribing/eprescribing/internal/platform/telemetry"
	"github.com/eprescribing/eprescribing/migrations"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "eprescribing-server",
		Short: "E-prescribing clinic persistence server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	return rootCmd
}

func newLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	logger := zerolog.New(out).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
	}
	return logger.Level(cfg.Level())
}

func storageOptions(cfg *config.Config) persistence.Options {
	return persistence.Options{
		Driver:      cfg.StorageBackend,
		DatabaseURL: cfg.DatabaseURL,
		Schema:      cfg.DBSchema,
		MaxConns:    cfg.DBMaxConns,
		MinConns:    cfg.DBMinConns,
		SQLitePath:  cfg.SQLitePath,
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the operational HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runServer(cfg, newLogger(cfg, os.Stdout))
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.UsesPostgres() {
				return openAndClose(cmd.Context(), cfg, cmd.OutOrStdout())
			}

			schema, dir := migrationSource(cmd, cfg)
			pool, err := db.NewPool(cmd.Context(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns, "")
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := db.CreateSchema(cmd.Context(), pool, schema, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Running migrations on schema: %s\n", schema)
			count, err := newMigrator(pool, dir).Up(cmd.Context(), schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("schema", "", "Target schema (defaults to DB_SCHEMA)")
	upCmd.Flags().String("dir", "", "Migrations directory (defaults to MIGRATIONS_DIR, then the embedded set)")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.UsesPostgres() {
				fmt.Fprintf(cmd.OutOrStdout(), "The %s backend applies its schema when opened.\n", cfg.StorageBackend)
				return nil
			}

			schema, dir := migrationSource(cmd, cfg)
			pool, err := db.NewPool(cmd.Context(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns, "")
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := newMigrator(pool, dir).Status(cmd.Context(), schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printStatuses(cmd.OutOrStdout(), schema, statuses)
			return nil
		},
	}
	statusCmd.Flags().String("schema", "", "Target schema (defaults to DB_SCHEMA)")
	statusCmd.Flags().String("dir", "", "Migrations directory (defaults to MIGRATIONS_DIR, then the embedded set)")
	cmd.AddCommand(statusCmd)

	return cmd
}

// migrationSource resolves the target schema and migrations directory from
// flags, then config. An empty directory selects the embedded migrations.
func migrationSource(cmd *cobra.Command, cfg *config.Config) (schema, dir string) {
	schema, _ = cmd.Flags().GetString("schema")
	if schema == "" {
		schema = cfg.DBSchema
	}
	dir, _ = cmd.Flags().GetString("dir")
	if dir == "" {
		dir = cfg.MigrationsDir
	}
	return schema, dir
}

func newMigrator(pool *pgxpool.Pool, dir string) *db.Migrator {
	if dir == "" {
		return db.NewMigratorFS(pool, migrations.FS)
	}
	return db.NewMigrator(pool, dir)
}

func printStatuses(w io.Writer, schema string, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "Migration status for schema: %s\n", schema)
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func openAndClose(ctx context.Context, cfg *config.Config, out io.Writer) error {
	backend, err := persistence.Open(ctx, storageOptions(cfg), zerolog.Nop())
	if err != nil {
		return err
	}
	defer backend.Close()
	fmt.Fprintf(out, "Schema is up to date (%s at %s).\n", cfg.StorageBackend, cfg.SQLitePath)
	return nil
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample clinic data into an empty store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())

			backend, err := persistence.Open(cmd.Context(), storageOptions(cfg), logger)
			if err != nil {
				return err
			}
			defer backend.Close()

			svc := clinic.NewService(backend, clinic.WithLogger(logger))
			if err := clinic.LoadSampleData(cmd.Context(), svc); err != nil {
				return fmt.Errorf("load sample data: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sample clinic data loaded into %s.\n", backend.Name())
			return nil
		},
	}
}

// pooled is implemented by the backends that run on a pgx pool.
type pooled interface {
	Pool() *pgxpool.Pool
}

// newServer builds the echo instance with operational routes only.
func newServer(backend clinic.Backend, reg *prometheus.Registry, recorder *telemetry.Recorder, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger, recorder))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	var stats func() *db.PoolStats
	if p, ok := backend.(pooled); ok {
		stats = func() *db.PoolStats { return db.GetPoolStats(p.Pool()) }
	}
	if pinger, ok := backend.(db.Pinger); ok {
		e.GET("/health/db", db.HealthHandler(backend.Name(), pinger, stats))
	}
	e.GET("/metrics", telemetry.Handler(reg))
	return e
}

func runServer(cfg *config.Config, logger zerolog.Logger) error {
	ctx := context.Background()
	backend, err := persistence.Open(ctx, storageOptions(cfg), logger)
	if err != nil {
		logger.Error().Err(err).Str("backend", cfg.StorageBackend).Msg("failed to open storage backend")
		return err
	}
	defer backend.Close()
	logger.Info().Str("backend", backend.Name()).Msg("storage backend ready")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := telemetry.NewRecorder(reg, backend.Name())
	if err != nil {
		return err
	}

	// Startup read through the facade; it shows up in the operation metrics.
	svc := clinic.NewService(backend, clinic.WithLogger(logger), clinic.WithMetricsRecorder(recorder))
	if _, err := svc.FindMedicationTypes(ctx); err != nil {
		logger.Warn().Err(err).Msg("clinic store is not readable")
	}

	e := newServer(backend, reg, recorder, logger)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
