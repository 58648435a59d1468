package sqlite

import (
	"context"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
)

type ownerRepo struct{ s *Store }

func (r ownerRepo) FindByID(ctx context.Context, id int) (*clinic.Owner, error) {
	row, err := owners.byID(ctx, r.s.conn(ctx), id)
	if err != nil {
		return nil, err
	}
	loaded, err := r.s.loadOwners(ctx, []clinic.OwnerRow{row})
	if err != nil {
		return nil, err
	}
	return loaded[0], nil
}

func (r ownerRepo) FindAll(ctx context.Context) ([]*clinic.Owner, error) {
	return r.find(ctx, "ORDER BY id")
}

// FindByLastName compares the leading characters directly so that LIKE
// wildcards in prefix match literally and case is significant.
func (r ownerRepo) FindByLastName(ctx context.Context, prefix string) ([]*clinic.Owner, error) {
	return r.find(ctx, "WHERE substr(last_name, 1, length(?)) = ? ORDER BY id", prefix, prefix)
}

func (r ownerRepo) find(ctx context.Context, where string, args ...any) ([]*clinic.Owner, error) {
	rows, err := owners.find(ctx, r.s.conn(ctx), where, args...)
	if err != nil {
		return nil, err
	}
	return r.s.loadOwners(ctx, rows)
}

func (r ownerRepo) Save(ctx context.Context, o *clinic.Owner) error {
	return owners.save(ctx, r.s.conn(ctx), clinic.OwnerRowOf(o), func(id int) { o.ID = id })
}

func (r ownerRepo) Delete(ctx context.Context, o *clinic.Owner) error {
	if o.IsNew() {
		return nil
	}
	return r.s.cascade.DeleteOwner(ctx, o.ID)
}

// loadOwners builds owners from rows and attaches their full medication graphs.
func (s *Store) loadOwners(ctx context.Context, rows []clinic.OwnerRow) ([]*clinic.Owner, error) {
	out := make([]*clinic.Owner, len(rows))
	ids := make([]int, len(rows))
	for i, row := range rows {
		out[i] = row.Owner()
		ids[i] = row.ID
	}
	if len(out) == 0 {
		return out, nil
	}

	where, args := in("owner_id", ids)
	mrows, err := medications.find(ctx, s.conn(ctx), "WHERE "+where+" ORDER BY id", args...)
	if err != nil {
		return nil, err
	}
	meds, err := s.assembleMedications(ctx, mrows, clinic.IndexOwners(out))
	if err != nil {
		return nil, err
	}
	clinic.AttachMedications(meds)
	return out, nil
}
