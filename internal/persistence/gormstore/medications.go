package gormstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
)

type medicationRepo struct{ s *Store }

func (r medicationRepo) FindByID(ctx context.Context, id int) (*clinic.Medication, error) {
	var m medicationModel
	if err := first(r.s.conn(ctx).Preload("Prescriptions", byID).Where("id = ?", id), &m, "medication", id); err != nil {
		return nil, err
	}
	meds, err := r.s.assembleMedications(ctx, []medicationModel{m})
	if err != nil {
		return nil, err
	}
	return meds[0], nil
}

func (r medicationRepo) FindAll(ctx context.Context) ([]*clinic.Medication, error) {
	return r.s.findMedications(ctx, r.s.conn(ctx))
}

func (r medicationRepo) FindMedicationTypes(ctx context.Context) ([]*clinic.MedicationType, error) {
	return r.s.findTypes(ctx, r.s.conn(ctx).Order("name"))
}

func (r medicationRepo) Save(ctx context.Context, med *clinic.Medication) error {
	if err := clinic.ValidateMedication(med); err != nil {
		return err
	}
	m := medicationModelOf(clinic.MedicationRowOf(med))
	return clinic.Upsert(ctx, med.ID,
		func(ctx context.Context) error {
			if err := create(r.s.conn(ctx), "medication", &m); err != nil {
				return err
			}
			med.ID = m.ID
			return nil
		},
		func(ctx context.Context) error {
			return updates(r.s.conn(ctx), "medication", med.ID, &m, "name", "expiration_date", "type_id", "owner_id")
		})
}

func (r medicationRepo) Delete(ctx context.Context, m *clinic.Medication) error {
	if m.IsNew() {
		return nil
	}
	return r.s.cascade.DeleteMedication(ctx, m.ID)
}

func (s *Store) findMedications(ctx context.Context, q *gorm.DB) ([]*clinic.Medication, error) {
	var ms []medicationModel
	if err := q.Preload("Prescriptions", byID).Order("id").Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("query medications: %w", err)
	}
	return s.assembleMedications(ctx, ms)
}

// assembleMedications rebuilds medications with their type and a shallow owner.
func (s *Store) assembleMedications(ctx context.Context, ms []medicationModel) ([]*clinic.Medication, error) {
	out := make([]*clinic.Medication, 0, len(ms))
	if len(ms) == 0 {
		return out, nil
	}

	seen := make(map[int]bool)
	var ownerIDs []int
	for _, m := range ms {
		if !seen[m.OwnerID] {
			seen[m.OwnerID] = true
			ownerIDs = append(ownerIDs, m.OwnerID)
		}
	}
	var oms []ownerModel
	if err := s.conn(ctx).Where("id IN ?", ownerIDs).Find(&oms).Error; err != nil {
		return nil, fmt.Errorf("query owners of medications: %w", err)
	}
	owners := make([]*clinic.Owner, len(oms))
	for i, om := range oms {
		owners[i] = om.row().Owner()
	}
	types, err := s.typeIndex(ctx)
	if err != nil {
		return nil, err
	}

	ownerIndex := clinic.IndexOwners(owners)
	for _, m := range ms {
		med, err := clinic.AssembleMedication(m.row(), m.prescriptionRows(), ownerIndex, types)
		if err != nil {
			return nil, err
		}
		out = append(out, med)
	}
	return out, nil
}
