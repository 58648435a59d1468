package postgres

import (
	"context"
	"fmt"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
)

const prescriberJoin = `
	SELECT p.id, p.first_name, p.last_name, ps.specialty_id
	FROM prescribers p
	LEFT JOIN prescriber_specialties ps ON ps.prescriber_id = p.id
	`

type prescriberRepo struct{ s *Store }

func (r prescriberRepo) FindByID(ctx context.Context, id int) (*clinic.Prescriber, error) {
	ps, err := r.find(ctx, `WHERE p.id = $1 ORDER BY ps.specialty_id`, id)
	if err != nil {
		return nil, err
	}
	if len(ps) == 0 {
		return nil, clinic.NotFound("prescriber", id)
	}
	return ps[0], nil
}

func (r prescriberRepo) FindAll(ctx context.Context) ([]*clinic.Prescriber, error) {
	return r.find(ctx, `ORDER BY p.last_name, p.first_name, p.id, ps.specialty_id`)
}

func (r prescriberRepo) find(ctx context.Context, tail string, args ...interface{}) ([]*clinic.Prescriber, error) {
	rows, err := r.s.conn(ctx).Query(ctx, prescriberJoin+tail, args...)
	if err != nil {
		return nil, fmt.Errorf("query prescribers: %w", err)
	}
	defer rows.Close()

	var prows []clinic.PrescriberSpecialtyRow
	for rows.Next() {
		var row clinic.PrescriberSpecialtyRow
		if err := rows.Scan(&row.Prescriber.ID, &row.Prescriber.FirstName, &row.Prescriber.LastName, &row.SpecialtyID); err != nil {
			return nil, fmt.Errorf("scan prescriber: %w", err)
		}
		prows = append(prows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prescribers: %w", err)
	}
	rows.Close()
	if len(prows) == 0 {
		return []*clinic.Prescriber{}, nil
	}

	specialties, err := r.s.querySpecialties(ctx, `SELECT id, name FROM specialties`)
	if err != nil {
		return nil, err
	}
	return clinic.ExtractPrescribers(prows, clinic.IndexSpecialties(specialties))
}

func (r prescriberRepo) Save(ctx context.Context, p *clinic.Prescriber) error {
	return r.s.InTx(ctx, clinic.TxReadWrite, func(ctx context.Context) error {
		err := clinic.Upsert(ctx, p.ID,
			func(ctx context.Context) error {
				id, err := r.s.insertReturningID(ctx, "prescriber",
					`INSERT INTO prescribers (first_name, last_name) VALUES ($1, $2) RETURNING id`,
					p.FirstName, p.LastName)
				if err != nil {
					return err
				}
				p.ID = id
				return nil
			},
			func(ctx context.Context) error {
				return r.s.update(ctx, "prescriber", p.ID,
					`UPDATE prescribers SET first_name = $2, last_name = $3 WHERE id = $1`,
					p.ID, p.FirstName, p.LastName)
			})
		if err != nil {
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
		if _, err := r.s.conn(ctx).Exec(ctx,
			`INSERT INTO prescriber_specialties (prescriber_id, specialty_id) VALUES ($1, $2)`,
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
