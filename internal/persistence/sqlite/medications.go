package sqlite

import (
	"context"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
)

type medicationRepo struct{ s *Store }

func (r medicationRepo) FindByID(ctx context.Context, id int) (*clinic.Medication, error) {
	row, err := medications.byID(ctx, r.s.conn(ctx), id)
	if err != nil {
		return nil, err
	}
	meds, err := r.s.loadMedications(ctx, []clinic.MedicationRow{row})
	if err != nil {
		return nil, err
	}
	return meds[0], nil
}

func (r medicationRepo) FindAll(ctx context.Context) ([]*clinic.Medication, error) {
	rows, err := medications.find(ctx, r.s.conn(ctx), "ORDER BY id")
	if err != nil {
		return nil, err
	}
	return r.s.loadMedications(ctx, rows)
}

func (r medicationRepo) FindMedicationTypes(ctx context.Context) ([]*clinic.MedicationType, error) {
	ts, err := medicationTypes.find(ctx, r.s.conn(ctx), "ORDER BY name, id")
	return ptrs(ts), err
}

func (r medicationRepo) Save(ctx context.Context, m *clinic.Medication) error {
	if err := clinic.ValidateMedication(m); err != nil {
		return err
	}
	return medications.save(ctx, r.s.conn(ctx), clinic.MedicationRowOf(m), func(id int) { m.ID = id })
}

func (r medicationRepo) Delete(ctx context.Context, m *clinic.Medication) error {
	if m.IsNew() {
		return nil
	}
	return r.s.cascade.DeleteMedication(ctx, m.ID)
}

// loadMedications builds medications with their prescriptions and a shallow
// owner, one query per medication.
func (s *Store) loadMedications(ctx context.Context, rows []clinic.MedicationRow) ([]*clinic.Medication, error) {
	if len(rows) == 0 {
		return []*clinic.Medication{}, nil
	}
	seen := make(map[int]bool)
	var ownerIDs []int
	for _, row := range rows {
		if !seen[row.OwnerID] {
			seen[row.OwnerID] = true
			ownerIDs = append(ownerIDs, row.OwnerID)
		}
	}
	where, args := in("id", ownerIDs)
	orows, err := owners.find(ctx, s.conn(ctx), "WHERE "+where, args...)
	if err != nil {
		return nil, err
	}
	shallow := make([]*clinic.Owner, len(orows))
	for i, row := range orows {
		shallow[i] = row.Owner()
	}
	return s.assembleMedications(ctx, rows, clinic.IndexOwners(shallow))
}

func (s *Store) assembleMedications(ctx context.Context, rows []clinic.MedicationRow, ownerIx clinic.Index[*clinic.Owner]) ([]*clinic.Medication, error) {
	out := make([]*clinic.Medication, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	types, err := s.typeIndex(ctx)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		prows, err := prescriptions.find(ctx, s.conn(ctx), "WHERE medication_id = ? ORDER BY id", row.ID)
		if err != nil {
			return nil, err
		}
		m, err := clinic.AssembleMedication(row, prows, ownerIx, types)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func ptrs[T any](vs []T) []*T {
	out := make([]*T, len(vs))
	for i := range vs {
		out[i] = &vs[i]
	}
	return out
}
