package gormstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
)

type typeRepo struct{ s *Store }

func (r typeRepo) FindByID(ctx context.Context, id int) (*clinic.MedicationType, error) {
	var m typeModel
	if err := first(r.s.conn(ctx).Where("id = ?", id), &m, "medication type", id); err != nil {
		return nil, err
	}
	return &clinic.MedicationType{ID: m.ID, Name: m.Name}, nil
}

func (r typeRepo) FindAll(ctx context.Context) ([]*clinic.MedicationType, error) {
	return r.s.findTypes(ctx, r.s.conn(ctx).Order("id"))
}

func (r typeRepo) FindByName(ctx context.Context, name string) (*clinic.MedicationType, error) {
	var m typeModel
	if err := first(r.s.conn(ctx).Where("name = ?", name), &m, "medication type", name); err != nil {
		return nil, err
	}
	return &clinic.MedicationType{ID: m.ID, Name: m.Name}, nil
}

func (r typeRepo) Save(ctx context.Context, t *clinic.MedicationType) error {
	m := typeModel{ID: t.ID, Name: t.Name}
	return clinic.Upsert(ctx, t.ID,
		func(ctx context.Context) error {
			if err := create(r.s.conn(ctx), "medication type", &m); err != nil {
				return err
			}
			t.ID = m.ID
			return nil
		},
		func(ctx context.Context) error {
			return updates(r.s.conn(ctx), "medication type", t.ID, &m, "name")
		})
}

func (r typeRepo) Delete(ctx context.Context, t *clinic.MedicationType) error {
	if t.IsNew() {
		return nil
	}
	return r.s.cascade.DeleteMedicationType(ctx, t.ID)
}

func (s *Store) findTypes(_ context.Context, q *gorm.DB) ([]*clinic.MedicationType, error) {
	var ms []typeModel
	if err := q.Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("query medication types: %w", err)
	}
	out := make([]*clinic.MedicationType, len(ms))
	for i, m := range ms {
		out[i] = &clinic.MedicationType{ID: m.ID, Name: m.Name}
	}
	return out, nil
}

func (s *Store) typeIndex(ctx context.Context) (clinic.Index[*clinic.MedicationType], error) {
	types, err := s.findTypes(ctx, s.conn(ctx))
	if err != nil {
		return clinic.Index[*clinic.MedicationType]{}, err
	}
	return clinic.IndexTypes(types), nil
}
