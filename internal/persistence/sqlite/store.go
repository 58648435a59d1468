// Package sqlite implements the clinic repositories over an embedded SQLite
// database file using database/sql and the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
)

const Name = "sqlite"

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const dateLayout = "2006-01-02"

//go:embed schema.sql
var schema string

type txKey struct{}

// Store is the embedded clinic backend. It holds a single connection, so
// statements and transactions are serialized.
type Store struct {
	db      *sql.DB
	path    string
	logger  zerolog.Logger
	cascade *clinic.Cascade
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string, logger zerolog.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
	}

	sqlDB, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := applySchema(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	s := &Store{db: sqlDB, path: path, logger: logger.With().Str("backend", Name).Logger()}
	s.cascade = clinic.NewCascade(s, cascadeStore{s}, s.logger)
	s.logger.Info().Str("path", path).Msg("sqlite store opened")
	return s, nil
}

// applySchema runs schema.sql one statement at a time.
func applySchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply sqlite schema: %w", err)
		}
	}
	return nil
}

func dsn(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (s *Store) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

// InTx runs fn in a transaction. SQLite has no read-only transaction mode, so
// mode only shows up in logs.
func (s *Store) InTx(ctx context.Context, mode clinic.TxMode, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s transaction: %w", mode, err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.Error().Err(rbErr).Str("mode", mode.String()).Msg("rollback failed")
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("commit %s transaction: %w", mode, cErr)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, tx))
}

func (s *Store) Name() string { return Name }

func (s *Store) Path() string { return s.path }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Owners() clinic.OwnerRepository                   { return ownerRepo{s} }
func (s *Store) Medications() clinic.MedicationRepository         { return medicationRepo{s} }
func (s *Store) MedicationTypes() clinic.MedicationTypeRepository { return typeRepo{s} }
func (s *Store) Prescriptions() clinic.PrescriptionRepository     { return prescriptionRepo{s} }
func (s *Store) Prescribers() clinic.PrescriberRepository         { return prescriberRepo{s} }
func (s *Store) Specialties() clinic.SpecialtyRepository          { return specialtyRepo{s} }
func (s *Store) Users() clinic.UserRepository                     { return userRepo{s} }

// translate maps SQLITE_CONSTRAINT and its extended codes to
// clinic.ConstraintViolationError.
func translate(entity string, err error) error {
	var se *sqlitedrv.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return &clinic.ConstraintViolationError{Entity: entity, Reason: se.Error(), Err: err}
	}
	return err
}

func formatDate(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: clinic.DateOf(t).Format(dateLayout), Valid: true}
}

func parseDate(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s.String, err)
	}
	return t, nil
}
