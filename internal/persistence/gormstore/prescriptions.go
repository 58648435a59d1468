package gormstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
)

type prescriptionRepo struct{ s *Store }

func (r prescriptionRepo) FindByID(ctx context.Context, id int) (*clinic.Prescription, error) {
	var m prescriptionModel
	if err := first(r.s.conn(ctx).Where("id = ?", id), &m, "prescription", id); err != nil {
		return nil, err
	}
	ps, err := r.resolve(ctx, []prescriptionModel{m})
	if err != nil {
		return nil, err
	}
	return ps[0], nil
}

func (r prescriptionRepo) FindAll(ctx context.Context) ([]*clinic.Prescription, error) {
	return r.find(ctx, r.s.conn(ctx).Order("id"))
}

func (r prescriptionRepo) FindByMedicationID(ctx context.Context, medicationID int) ([]*clinic.Prescription, error) {
	return r.find(ctx, r.s.conn(ctx).Where("medication_id = ?", medicationID).Order("prescription_date DESC, id"))
}

func (r prescriptionRepo) find(ctx context.Context, q *gorm.DB) ([]*clinic.Prescription, error) {
	var ms []prescriptionModel
	if err := q.Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("query prescriptions: %w", err)
	}
	return r.resolve(ctx, ms)
}

// resolve points each prescription at its fully loaded medication.
func (r prescriptionRepo) resolve(ctx context.Context, ms []prescriptionModel) ([]*clinic.Prescription, error) {
	if len(ms) == 0 {
		return []*clinic.Prescription{}, nil
	}
	rows := make([]clinic.PrescriptionRow, len(ms))
	seen := make(map[int]bool)
	var medIDs []int
	for i, m := range ms {
		rows[i] = m.row()
		if !seen[m.MedicationID] {
			seen[m.MedicationID] = true
			medIDs = append(medIDs, m.MedicationID)
		}
	}
	meds, err := r.s.findMedications(ctx, r.s.conn(ctx).Where("id IN ?", medIDs))
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
	m := prescriptionModelOf(clinic.PrescriptionRowOf(p))
	return clinic.Upsert(ctx, p.ID,
		func(ctx context.Context) error {
			if err := create(r.s.conn(ctx), "prescription", &m); err != nil {
				return err
			}
			p.ID = m.ID
			return nil
		},
		func(ctx context.Context) error {
			return updates(r.s.conn(ctx), "prescription", p.ID, &m, "medication_id", "prescription_date", "description")
		})
}

func (r prescriptionRepo) Delete(ctx context.Context, p *clinic.Prescription) error {
	if p.IsNew() {
		return nil
	}
	if err := r.s.conn(ctx).Delete(&prescriptionModel{}, p.ID).Error; err != nil {
		return fmt.Errorf("delete prescription %d: %w", p.ID, translate("prescription", err))
	}
	return nil
}
