package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
)

type specialtyRepo struct{ s *Store }

func (r specialtyRepo) FindByID(ctx context.Context, id int) (*clinic.Specialty, error) {
	var sp clinic.Specialty
	err := r.s.conn(ctx).QueryRow(ctx, `SELECT id, name FROM specialties WHERE id = $1`, id).Scan(&sp.ID, &sp.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, clinic.NotFound("specialty", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query specialty %d: %w", id, err)
	}
	return &sp, nil
}

func (r specialtyRepo) FindAll(ctx context.Context) ([]*clinic.Specialty, error) {
	return r.s.querySpecialties(ctx, `SELECT id, name FROM specialties ORDER BY id`)
}

func (r specialtyRepo) FindByNames(ctx context.Context, names []string) ([]*clinic.Specialty, error) {
	if len(names) == 0 {
		return []*clinic.Specialty{}, nil
	}
	return r.s.querySpecialties(ctx, `SELECT id, name FROM specialties WHERE name = ANY($1) ORDER BY name, id`, names)
}

func (r specialtyRepo) Save(ctx context.Context, sp *clinic.Specialty) error {
	return clinic.Upsert(ctx, sp.ID,
		func(ctx context.Context) error {
			id, err := r.s.insertReturningID(ctx, "specialty", `INSERT INTO specialties (name) VALUES ($1) RETURNING id`, sp.Name)
			if err != nil {
				return err
			}
			sp.ID = id
			return nil
		},
		func(ctx context.Context) error {
			return r.s.update(ctx, "specialty", sp.ID, `UPDATE specialties SET name = $2 WHERE id = $1`, sp.ID, sp.Name)
		})
}

func (r specialtyRepo) Delete(ctx context.Context, sp *clinic.Specialty) error {
	if sp.IsNew() {
		return nil
	}
	return r.s.cascade.DeleteSpecialty(ctx, sp.ID)
}

func (s *Store) querySpecialties(ctx context.Context, sql string, args ...interface{}) ([]*clinic.Specialty, error) {
	rows, err := s.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query specialties: %w", err)
	}
	defer rows.Close()

	out := []*clinic.Specialty{}
	for rows.Next() {
		var sp clinic.Specialty
		if err := rows.Scan(&sp.ID, &sp.Name); err != nil {
			return nil, fmt.Errorf("scan specialty: %w", err)
		}
		out = append(out, &sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate specialties: %w", err)
	}
	return out, nil
}
