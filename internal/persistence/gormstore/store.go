// Package gormstore implements the clinic repositories with GORM models on
// PostgreSQL.
package gormstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
	"github.com/eprescribing/eprescribing/internal/platform/db"
)

const Name = "gorm"

type txKey struct{}

// Store is the ORM clinic backend.
type Store struct {
	db      *gorm.DB
	pool    *pgxpool.Pool
	logger  zerolog.Logger
	cascade *clinic.Cascade
}

// Open builds a GORM session on top of pool. Closing the store closes pool.
func Open(pool *pgxpool.Pool, logger zerolog.Logger) (*Store, error) {
	sqlDB := stdlib.OpenDBFromPool(pool)
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		TranslateError:         true,
		SkipDefaultTransaction: true,
		Logger:                 NewLogger(logger),
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}
	s := New(gdb, logger)
	s.pool = pool
	return s, nil
}

func New(gdb *gorm.DB, logger zerolog.Logger) *Store {
	s := &Store{db: gdb, logger: logger.With().Str("backend", Name).Logger()}
	s.cascade = clinic.NewCascade(s, cascadeStore{s}, s.logger)
	return s
}

// conn returns the session bound to the transaction in ctx, if any.
func (s *Store) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return s.db.WithContext(ctx)
}

func (s *Store) InTx(ctx context.Context, mode clinic.TxMode, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	opts := &sql.TxOptions{ReadOnly: mode == clinic.TxReadOnly}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	}, opts)
}

func (s *Store) Name() string { return Name }

// Pool returns the pgx pool underneath the session, or nil when the store
// was built from an existing *gorm.DB.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	err = sqlDB.Close()
	if s.pool != nil {
		s.pool.Close()
	}
	return err
}

func (s *Store) Owners() clinic.OwnerRepository                   { return ownerRepo{s} }
func (s *Store) Medications() clinic.MedicationRepository         { return medicationRepo{s} }
func (s *Store) MedicationTypes() clinic.MedicationTypeRepository { return typeRepo{s} }
func (s *Store) Prescriptions() clinic.PrescriptionRepository     { return prescriptionRepo{s} }
func (s *Store) Prescribers() clinic.PrescriberRepository         { return prescriberRepo{s} }
func (s *Store) Specialties() clinic.SpecialtyRepository          { return specialtyRepo{s} }
func (s *Store) Users() clinic.UserRepository                     { return userRepo{s} }

// translate maps GORM's translated constraint errors, and any integrity
// violation or data exception it leaves untranslated, to clinic.ConstraintViolationError.
func translate(entity string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated) {
		return &clinic.ConstraintViolationError{Entity: entity, Reason: err.Error(), Err: err}
	}
	if pgErr, ok := db.RejectedData(err); ok {
		return &clinic.ConstraintViolationError{Entity: entity, Reason: pgErr.Message, Err: err}
	}
	return err
}

// first loads one record into dst, mapping a miss to clinic.NotFound.
func first(q *gorm.DB, dst interface{}, entity string, key any) error {
	err := q.First(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return clinic.NotFound(entity, key)
	}
	if err != nil {
		return fmt.Errorf("query %s %v: %w", entity, key, err)
	}
	return nil
}

// updates writes cols of model and reports NotFound when no row matched.
func updates(q *gorm.DB, entity string, id any, model interface{}, cols ...string) error {
	res := q.Model(model).Select(cols).Updates(model)
	if res.Error != nil {
		return fmt.Errorf("update %s %v: %w", entity, id, translate(entity, res.Error))
	}
	if res.RowsAffected == 0 {
		return clinic.NotFound(entity, id)
	}
	return nil
}

func create(q *gorm.DB, entity string, model interface{}) error {
	if err := q.Create(model).Error; err != nil {
		return fmt.Errorf("insert %s: %w", entity, translate(entity, err))
	}
	return nil
}

func byID(q *gorm.DB) *gorm.DB { return q.Order("id") }
