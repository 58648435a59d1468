// Package postgres implements the clinic repositories with hand-written SQL
// over a pgx connection pool.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
	"github.com/eprescribing/eprescribing/internal/platform/db"
)

const Name = "postgres"

type queryable interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Store is the direct-SQL clinic backend.
type Store struct {
	pool    *pgxpool.Pool
	logger  zerolog.Logger
	cascade *clinic.Cascade
}

func New(pool *pgxpool.Pool, logger zerolog.Logger) *Store {
	s := &Store{pool: pool, logger: logger.With().Str("backend", Name).Logger()}
	s.cascade = clinic.NewCascade(s, cascadeStore{s}, s.logger)
	return s
}

func (s *Store) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return s.pool
}

func (s *Store) InTx(ctx context.Context, mode clinic.TxMode, fn func(ctx context.Context) error) error {
	opts := pgx.TxOptions{AccessMode: pgx.ReadWrite}
	if mode == clinic.TxReadOnly {
		opts.AccessMode = pgx.ReadOnly
	}
	return db.InTx(ctx, s.pool, opts, fn)
}

func (s *Store) Name() string { return Name }

func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Owners() clinic.OwnerRepository                   { return ownerRepo{s} }
func (s *Store) Medications() clinic.MedicationRepository         { return medicationRepo{s} }
func (s *Store) MedicationTypes() clinic.MedicationTypeRepository { return typeRepo{s} }
func (s *Store) Prescriptions() clinic.PrescriptionRepository     { return prescriptionRepo{s} }
func (s *Store) Prescribers() clinic.PrescriberRepository         { return prescriberRepo{s} }
func (s *Store) Specialties() clinic.SpecialtyRepository          { return specialtyRepo{s} }
func (s *Store) Users() clinic.UserRepository                     { return userRepo{s} }

// translate maps rejected writes (SQLSTATE class 22 or 23) to
// clinic.ConstraintViolationError.
func translate(entity string, err error) error {
	if pgErr, ok := db.RejectedData(err); ok {
		return &clinic.ConstraintViolationError{Entity: entity, Reason: pgErr.Message, Err: err}
	}
	return err
}

// insertReturningID runs an INSERT ... RETURNING id.
func (s *Store) insertReturningID(ctx context.Context, entity, sql string, args ...interface{}) (int, error) {
	var id int
	if err := s.conn(ctx).QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert %s: %w", entity, translate(entity, err))
	}
	return id, nil
}

// update runs an UPDATE and reports NotFound when no row matched.
func (s *Store) update(ctx context.Context, entity string, id int, sql string, args ...interface{}) error {
	tag, err := s.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s %d: %w", entity, id, translate(entity, err))
	}
	if tag.RowsAffected() == 0 {
		return clinic.NotFound(entity, id)
	}
	return nil
}

func nullDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	d := clinic.DateOf(t)
	return &d
}

func dateOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return clinic.DateOf(*t)
}
