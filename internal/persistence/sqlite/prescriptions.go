package sqlite

import (
	"context"
	"fmt"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
)

type prescriptionRepo struct{ s *Store }

func (r prescriptionRepo) FindByID(ctx context.Context, id int) (*clinic.Prescription, error) {
	row, err := prescriptions.byID(ctx, r.s.conn(ctx), id)
	if err != nil {
		return nil, err
	}
	ps, err := r.resolve(ctx, []clinic.PrescriptionRow{row})
	if err != nil {
		return nil, err
	}
	return ps[0], nil
}

func (r prescriptionRepo) FindAll(ctx context.Context) ([]*clinic.Prescription, error) {
	return r.find(ctx, "ORDER BY id")
}

func (r prescriptionRepo) FindByMedicationID(ctx context.Context, medicationID int) ([]*clinic.Prescription, error) {
	return r.find(ctx, "WHERE medication_id = ? ORDER BY prescription_date DESC, id", medicationID)
}

func (r prescriptionRepo) find(ctx context.Context, where string, args ...any) ([]*clinic.Prescription, error) {
	rows, err := prescriptions.find(ctx, r.s.conn(ctx), where, args...)
	if err != nil {
		return nil, err
	}
	return r.resolve(ctx, rows)
}

// resolve points every prescription at its fully loaded medication.
func (r prescriptionRepo) resolve(ctx context.Context, rows []clinic.PrescriptionRow) ([]*clinic.Prescription, error) {
	if len(rows) == 0 {
		return []*clinic.Prescription{}, nil
	}
	seen := make(map[int]bool)
	var medIDs []int
	for _, row := range rows {
		if !seen[row.MedicationID] {
			seen[row.MedicationID] = true
			medIDs = append(medIDs, row.MedicationID)
		}
	}
	where, args := in("id", medIDs)
	mrows, err := medications.find(ctx, r.s.conn(ctx), "WHERE "+where+" ORDER BY id", args...)
	if err != nil {
		return nil, err
	}
	meds, err := r.s.loadMedications(ctx, mrows)
	if err != nil {
		return nil, err
	}
	return clinic.ResolvePrescriptions(rows, clinic.IndexMedications(meds))
}

func (r prescriptionRepo) Save(ctx context.Context, p *clinic.Prescription) error {
	if err := clinic.ValidatePrescription(p); err != nil {
		return err
	}
	p.EnsureDate()
	return prescriptions.save(ctx, r.s.conn(ctx), clinic.PrescriptionRowOf(p), func(id int) { p.ID = id })
}

func (r prescriptionRepo) Delete(ctx context.Context, p *clinic.Prescription) error {
	if p.IsNew() {
		return nil
	}
	if _, err := prescriptions.deleteWhere(ctx, r.s.conn(ctx), "WHERE id = ?", p.ID); err != nil {
		return fmt.Errorf("delete prescription %d: %w", p.ID, err)
	}
	return nil
}
