package sqlite

import (
	"context"
	"strings"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
)

type specialtyRepo struct{ s *Store }

func (r specialtyRepo) FindByID(ctx context.Context, id int) (*clinic.Specialty, error) {
	sp, err := specialties.byID(ctx, r.s.conn(ctx), id)
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

func (r specialtyRepo) FindAll(ctx context.Context) ([]*clinic.Specialty, error) {
	all, err := specialties.find(ctx, r.s.conn(ctx), "ORDER BY id")
	return ptrs(all), err
}

func (r specialtyRepo) FindByNames(ctx context.Context, names []string) ([]*clinic.Specialty, error) {
	if len(names) == 0 {
		return []*clinic.Specialty{}, nil
	}
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	found, err := specialties.find(ctx, r.s.conn(ctx), "WHERE name IN ("+marks+") ORDER BY name, id", args...)
	return ptrs(found), err
}

func (r specialtyRepo) Save(ctx context.Context, sp *clinic.Specialty) error {
	return specialties.save(ctx, r.s.conn(ctx), *sp, func(id int) { sp.ID = id })
}

func (r specialtyRepo) Delete(ctx context.Context, sp *clinic.Specialty) error {
	if sp.IsNew() {
		return nil
	}
	return r.s.cascade.DeleteSpecialty(ctx, sp.ID)
}
