package gormstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
	"github.com/eprescribing/eprescribing/internal/platform/db"
)

type ownerRepo struct{ s *Store }

// withMedications preloads owners' medications and their prescriptions.
func withMedications(q *gorm.DB) *gorm.DB {
	return q.Preload("Medications", byID).Preload("Medications.Prescriptions", byID)
}

func (r ownerRepo) FindByID(ctx context.Context, id int) (*clinic.Owner, error) {
	var m ownerModel
	if err := first(withMedications(r.s.conn(ctx)).Where("id = ?", id), &m, "owner", id); err != nil {
		return nil, err
	}
	owners, err := r.s.assembleOwners(ctx, []ownerModel{m})
	if err != nil {
		return nil, err
	}
	return owners[0], nil
}

func (r ownerRepo) FindAll(ctx context.Context) ([]*clinic.Owner, error) {
	return r.find(ctx, r.s.conn(ctx))
}

func (r ownerRepo) FindByLastName(ctx context.Context, prefix string) ([]*clinic.Owner, error) {
	return r.find(ctx, r.s.conn(ctx).Where("last_name LIKE ? ESCAPE '\\'", db.EscapeLike(prefix)+"%"))
}

func (r ownerRepo) find(ctx context.Context, q *gorm.DB) ([]*clinic.Owner, error) {
	var ms []ownerModel
	if err := withMedications(q).Order("id").Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("query owners: %w", err)
	}
	return r.s.assembleOwners(ctx, ms)
}

func (r ownerRepo) Save(ctx context.Context, o *clinic.Owner) error {
	m := ownerModelOf(clinic.OwnerRowOf(o))
	return clinic.Upsert(ctx, o.ID,
		func(ctx context.Context) error {
			if err := create(r.s.conn(ctx), "owner", &m); err != nil {
				return err
			}
			o.ID = m.ID
			return nil
		},
		func(ctx context.Context) error {
			return updates(r.s.conn(ctx), "owner", o.ID, &m, "first_name", "last_name", "address", "city", "telephone")
		})
}

func (r ownerRepo) Delete(ctx context.Context, o *clinic.Owner) error {
	if o.IsNew() {
		return nil
	}
	return r.s.cascade.DeleteOwner(ctx, o.ID)
}

// assembleOwners rebuilds owners and attaches their preloaded medications.
func (s *Store) assembleOwners(ctx context.Context, ms []ownerModel) ([]*clinic.Owner, error) {
	owners := make([]*clinic.Owner, len(ms))
	for i, m := range ms {
		owners[i] = m.row().Owner()
	}
	types, err := s.typeIndex(ctx)
	if err != nil {
		return nil, err
	}
	ownerIndex := clinic.IndexOwners(owners)
	for _, om := range ms {
		for _, mm := range om.Medications {
			med, err := clinic.AssembleMedication(mm.row(), mm.prescriptionRows(), ownerIndex, types)
			if err != nil {
				return nil, err
			}
			clinic.AttachMedications([]*clinic.Medication{med})
		}
	}
	return owners, nil
}
