package gormstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
)

type prescriberRepo struct{ s *Store }

func (r prescriberRepo) FindByID(ctx context.Context, id int) (*clinic.Prescriber, error) {
	var m prescriberModel
	if err := first(r.s.conn(ctx).Preload("Specialties").Where("id = ?", id), &m, "prescriber", id); err != nil {
		return nil, err
	}
	ps, err := r.assemble(ctx, []prescriberModel{m})
	if err != nil {
		return nil, err
	}
	return ps[0], nil
}

func (r prescriberRepo) FindAll(ctx context.Context) ([]*clinic.Prescriber, error) {
	var ms []prescriberModel
	if err := r.s.conn(ctx).Preload("Specialties").Order("last_name, first_name, id").Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("query prescribers: %w", err)
	}
	return r.assemble(ctx, ms)
}

func (r prescriberRepo) assemble(ctx context.Context, ms []prescriberModel) ([]*clinic.Prescriber, error) {
	specialties, err := r.s.findSpecialties(r.s.conn(ctx))
	if err != nil {
		return nil, err
	}
	index := clinic.IndexSpecialties(specialties)
	out := make([]*clinic.Prescriber, 0, len(ms))
	for _, m := range ms {
		p, err := clinic.AssemblePrescriber(m.row(), m.specialtyIDs(), index)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r prescriberRepo) Save(ctx context.Context, p *clinic.Prescriber) error {
	return r.s.InTx(ctx, clinic.TxReadWrite, func(ctx context.Context) error {
		m := prescriberModel{ID: p.ID, FirstName: p.FirstName, LastName: p.LastName}
		err := clinic.Upsert(ctx, p.ID,
			func(ctx context.Context) error {
				if err := create(r.s.conn(ctx), "prescriber", &m); err != nil {
					return err
				}
				p.ID = m.ID
				return nil
			},
			func(ctx context.Context) error {
				return updates(r.s.conn(ctx), "prescriber", p.ID, &m, "first_name", "last_name")
			})
		if err != nil {
			return err
		}
		return r.replaceSpecialties(r.s.conn(ctx), p)
	})
}

// replaceSpecialties deletes every link of p, then inserts one per saved specialty.
func (r prescriberRepo) replaceSpecialties(q *gorm.DB, p *clinic.Prescriber) error {
	if err := q.Where("prescriber_id = ?", p.ID).Delete(&prescriberSpecialtyModel{}).Error; err != nil {
		return fmt.Errorf("clear specialties of prescriber %d: %w", p.ID, err)
	}
	var links []prescriberSpecialtyModel
	for _, sp := range p.Specialties() {
		if sp.IsNew() {
			continue
		}
		links = append(links, prescriberSpecialtyModel{PrescriberID: p.ID, SpecialtyID: sp.ID})
	}
	if len(links) == 0 {
		return nil
	}
	if err := q.Create(&links).Error; err != nil {
		return fmt.Errorf("link specialties of prescriber %d: %w", p.ID, translate("prescriber", err))
	}
	return nil
}

func (r prescriberRepo) Delete(ctx context.Context, p *clinic.Prescriber) error {
	if p.IsNew() {
		return nil
	}
	return r.s.cascade.DeletePrescriber(ctx, p.ID)
}
