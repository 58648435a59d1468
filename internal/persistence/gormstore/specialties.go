package gormstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
)

type specialtyRepo struct{ s *Store }

func (r specialtyRepo) FindByID(ctx context.Context, id int) (*clinic.Specialty, error) {
	var m specialtyModel
	if err := first(r.s.conn(ctx).Where("id = ?", id), &m, "specialty", id); err != nil {
		return nil, err
	}
	return &clinic.Specialty{ID: m.ID, Name: m.Name}, nil
}

func (r specialtyRepo) FindAll(ctx context.Context) ([]*clinic.Specialty, error) {
	return r.s.findSpecialties(r.s.conn(ctx).Order("id"))
}

func (r specialtyRepo) FindByNames(ctx context.Context, names []string) ([]*clinic.Specialty, error) {
	if len(names) == 0 {
		return []*clinic.Specialty{}, nil
	}
	return r.s.findSpecialties(r.s.conn(ctx).Where("name IN ?", names).Order("name, id"))
}

func (r specialtyRepo) Save(ctx context.Context, sp *clinic.Specialty) error {
	m := specialtyModel{ID: sp.ID, Name: sp.Name}
	return clinic.Upsert(ctx, sp.ID,
		func(ctx context.Context) error {
			if err := create(r.s.conn(ctx), "specialty", &m); err != nil {
				return err
			}
			sp.ID = m.ID
			return nil
		},
		func(ctx context.Context) error {
			return updates(r.s.conn(ctx), "specialty", sp.ID, &m, "name")
		})
}

func (r specialtyRepo) Delete(ctx context.Context, sp *clinic.Specialty) error {
	if sp.IsNew() {
		return nil
	}
	return r.s.cascade.DeleteSpecialty(ctx, sp.ID)
}

func (s *Store) findSpecialties(q *gorm.DB) ([]*clinic.Specialty, error) {
	var ms []specialtyModel
	if err := q.Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("query specialties: %w", err)
	}
	out := make([]*clinic.Specialty, len(ms))
	for i, m := range ms {
		out[i] = &clinic.Specialty{ID: m.ID, Name: m.Name}
	}
	return out, nil
}
