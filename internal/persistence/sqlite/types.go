package sqlite

import (
	"context"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
)

type typeRepo struct{ s *Store }

func (r typeRepo) FindByID(ctx context.Context, id int) (*clinic.MedicationType, error) {
	t, err := medicationTypes.byID(ctx, r.s.conn(ctx), id)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r typeRepo) FindAll(ctx context.Context) ([]*clinic.MedicationType, error) {
	ts, err := medicationTypes.find(ctx, r.s.conn(ctx), "ORDER BY id")
	return ptrs(ts), err
}

func (r typeRepo) FindByName(ctx context.Context, name string) (*clinic.MedicationType, error) {
	t, err := medicationTypes.one(ctx, r.s.conn(ctx), name, "WHERE name = ? ORDER BY id", name)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r typeRepo) Save(ctx context.Context, t *clinic.MedicationType) error {
	return medicationTypes.save(ctx, r.s.conn(ctx), *t, func(id int) { t.ID = id })
}

func (r typeRepo) Delete(ctx context.Context, t *clinic.MedicationType) error {
	if t.IsNew() {
		return nil
	}
	return r.s.cascade.DeleteMedicationType(ctx, t.ID)
}

func (s *Store) typeIndex(ctx context.Context) (clinic.Index[*clinic.MedicationType], error) {
	ts, err := medicationTypes.find(ctx, s.conn(ctx), "")
	if err != nil {
		return clinic.Index[*clinic.MedicationType]{}, err
	}
	return clinic.IndexTypes(ptrs(ts)), nil
}
