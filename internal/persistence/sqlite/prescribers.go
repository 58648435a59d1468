package sqlite

import (
	"context"
	"fmt"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
)

type prescriberRepo struct{ s *Store }

func (r prescriberRepo) FindByID(ctx context.Context, id int) (*clinic.Prescriber, error) {
	row, err := prescribers.byID(ctx, r.s.conn(ctx), id)
	if err != nil {
		return nil, err
	}
	ps, err := r.assemble(ctx, []clinic.PrescriberRow{row})
	if err != nil {
		return nil, err
	}
	return ps[0], nil
}

func (r prescriberRepo) FindAll(ctx context.Context) ([]*clinic.Prescriber, error) {
	rows, err := prescribers.find(ctx, r.s.conn(ctx), "ORDER BY last_name, first_name, id")
	if err != nil {
		return nil, err
	}
	return r.assemble(ctx, rows)
}

func (r prescriberRepo) assemble(ctx context.Context, rows []clinic.PrescriberRow) ([]*clinic.Prescriber, error) {
	out := make([]*clinic.Prescriber, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	all, err := specialties.find(ctx, r.s.conn(ctx), "")
	if err != nil {
		return nil, err
	}
	index := clinic.IndexSpecialties(ptrs(all))
	for _, row := range rows {
		ids, err := r.specialtyIDs(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		p, err := clinic.AssemblePrescriber(row, ids, index)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r prescriberRepo) specialtyIDs(ctx context.Context, prescriberID int) ([]int, error) {
	rows, err := r.s.conn(ctx).QueryContext(ctx,
		`SELECT specialty_id FROM prescriber_specialties WHERE prescriber_id = ? ORDER BY specialty_id`, prescriberID)
	if err != nil {
		return nil, fmt.Errorf("query specialties of prescriber %d: %w", prescriberID, err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan specialty id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r prescriberRepo) Save(ctx context.Context, p *clinic.Prescriber) error {
	return r.s.InTx(ctx, clinic.TxReadWrite, func(ctx context.Context) error {
		row := clinic.PrescriberRow{ID: p.ID, FirstName: p.FirstName, LastName: p.LastName}
		if err := prescribers.save(ctx, r.s.conn(ctx), row, func(id int) { p.ID = id }); err != nil {
			return err
		}
		return r.replaceSpecialties(ctx, p)
	})
}

// replaceSpecialties deletes every link of p, then inserts one per saved specialty.
func (r prescriberRepo) replaceSpecialties(ctx context.Context, p *clinic.Prescriber) error {
	if _, err := (cascadeStore{r.s}).DeletePrescriberLinks(ctx, p.ID); err != nil {
		return fmt.Errorf("clear specialties of prescriber %d: %w", p.ID, err)
	}
	for _, sp := range p.Specialties() {
		if sp.IsNew() {
			continue
		}
		if _, err := r.s.conn(ctx).ExecContext(ctx,
			`INSERT INTO prescriber_specialties (prescriber_id, specialty_id) VALUES (?, ?)`,
			p.ID, sp.ID); err != nil {
			return fmt.Errorf("link prescriber %d to specialty %d: %w", p.ID, sp.ID, translate("prescriber", err))
		}
	}
	return nil
}

func (r prescriberRepo) Delete(ctx context.Context, p *clinic.Prescriber) error {
	if p.IsNew() {
		return nil
	}
	return r.s.cascade.DeletePrescriber(ctx, p.ID)
}
