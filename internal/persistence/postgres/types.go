package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
)

type typeRepo struct{ s *Store }

func (r typeRepo) FindByID(ctx context.Context, id int) (*clinic.MedicationType, error) {
	return r.findOne(ctx, id, `SELECT id, name FROM types WHERE id = $1`, id)
}

func (r typeRepo) FindAll(ctx context.Context) ([]*clinic.MedicationType, error) {
	return r.s.queryTypes(ctx, `SELECT id, name FROM types ORDER BY id`)
}

func (r typeRepo) FindByName(ctx context.Context, name string) (*clinic.MedicationType, error) {
	return r.findOne(ctx, name, `SELECT id, name FROM types WHERE name = $1 ORDER BY id LIMIT 1`, name)
}

func (r typeRepo) findOne(ctx context.Context, key any, sql string, args ...interface{}) (*clinic.MedicationType, error) {
	var t clinic.MedicationType
	err := r.s.conn(ctx).QueryRow(ctx, sql, args...).Scan(&t.ID, &t.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, clinic.NotFound("medication type", key)
	}
	if err != nil {
		return nil, fmt.Errorf("query medication type %v: %w", key, err)
	}
	return &t, nil
}

func (r typeRepo) Save(ctx context.Context, t *clinic.MedicationType) error {
	return clinic.Upsert(ctx, t.ID,
		func(ctx context.Context) error {
			id, err := r.s.insertReturningID(ctx, "medication type", `INSERT INTO types (name) VALUES ($1) RETURNING id`, t.Name)
			if err != nil {
				return err
			}
			t.ID = id
			return nil
		},
		func(ctx context.Context) error {
			return r.s.update(ctx, "medication type", t.ID, `UPDATE types SET name = $2 WHERE id = $1`, t.ID, t.Name)
		})
}

func (r typeRepo) Delete(ctx context.Context, t *clinic.MedicationType) error {
	if t.IsNew() {
		return nil
	}
	return r.s.cascade.DeleteMedicationType(ctx, t.ID)
}

func (s *Store) queryTypes(ctx context.Context, sql string, args ...interface{}) ([]*clinic.MedicationType, error) {
	rows, err := s.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query medication types: %w", err)
	}
	defer rows.Close()

	types := []*clinic.MedicationType{}
	for rows.Next() {
		var t clinic.MedicationType
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan medication type: %w", err)
		}
		types = append(types, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate medication types: %w", err)
	}
	return types, nil
}

func (s *Store) typeIndex(ctx context.Context) (clinic.Index[*clinic.MedicationType], error) {
	types, err := s.queryTypes(ctx, `SELECT id, name FROM types`)
	if err != nil {
		return clinic.Index[*clinic.MedicationType]{}, err
	}
	return clinic.IndexTypes(types), nil
}
