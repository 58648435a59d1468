package postgres

import (
	"context"
	"fmt"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
)

const prescriptionColumns = `id, medication_id, prescription_date, description`

type prescriptionRepo struct{ s *Store }

func (r prescriptionRepo) FindByID(ctx context.Context, id int) (*clinic.Prescription, error) {
	ps, err := r.find(ctx, `SELECT `+prescriptionColumns+` FROM prescriptions WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(ps) == 0 {
		return nil, clinic.NotFound("prescription", id)
	}
	return ps[0], nil
}

func (r prescriptionRepo) FindAll(ctx context.Context) ([]*clinic.Prescription, error) {
	return r.find(ctx, `SELECT `+prescriptionColumns+` FROM prescriptions ORDER BY id`)
}

func (r prescriptionRepo) FindByMedicationID(ctx context.Context, medicationID int) ([]*clinic.Prescription, error) {
	return r.find(ctx, `SELECT `+prescriptionColumns+` FROM prescriptions
		WHERE medication_id = $1 ORDER BY prescription_date DESC, id`, medicationID)
}

// find scans prescription rows and points each at its fully loaded medication.
func (r prescriptionRepo) find(ctx context.Context, sql string, args ...interface{}) ([]*clinic.Prescription, error) {
	rows, err := r.s.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query prescriptions: %w", err)
	}
	defer rows.Close()

	var prows []clinic.PrescriptionRow
	seen := make(map[int]bool)
	var medIDs []int
	for rows.Next() {
		var p clinic.PrescriptionRow
		if err := rows.Scan(&p.ID, &p.MedicationID, &p.Date, &p.Description); err != nil {
			return nil, fmt.Errorf("scan prescription: %w", err)
		}
		prows = append(prows, p)
		if !seen[p.MedicationID] {
			seen[p.MedicationID] = true
			medIDs = append(medIDs, p.MedicationID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prescriptions: %w", err)
	}
	rows.Close()
	if len(prows) == 0 {
		return []*clinic.Prescription{}, nil
	}

	meds, err := r.s.queryMedications(ctx, `WHERE m.id = ANY($1)`, medIDs)
	if err != nil {
		return nil, err
	}
	return clinic.ResolvePrescriptions(prows, clinic.IndexMedications(meds))
}

func (r prescriptionRepo) Save(ctx context.Context, p *clinic.Prescription) error {
	if err := clinic.ValidatePrescription(p); err != nil {
		return err
	}
	p.EnsureDate()
	row := clinic.PrescriptionRowOf(p)
	return clinic.Upsert(ctx, p.ID,
		func(ctx context.Context) error {
			id, err := r.s.insertReturningID(ctx, "prescription", `
				INSERT INTO prescriptions (medication_id, prescription_date, description)
				VALUES ($1, $2, $3) RETURNING id`,
				row.MedicationID, row.Date, row.Description)
			if err != nil {
				return err
			}
			p.ID = id
			return nil
		},
		func(ctx context.Context) error {
			return r.s.update(ctx, "prescription", p.ID, `
				UPDATE prescriptions SET medication_id = $2, prescription_date = $3, description = $4
				WHERE id = $1`,
				row.ID, row.MedicationID, row.Date, row.Description)
		})
}

func (r prescriptionRepo) Delete(ctx context.Context, p *clinic.Prescription) error {
	if p.IsNew() {
		return nil
	}
	if _, err := r.s.conn(ctx).Exec(ctx, `DELETE FROM prescriptions WHERE id = $1`, p.ID); err != nil {
		return fmt.Errorf("delete prescription %d: %w", p.ID, translate("prescription", err))
	}
	return nil
}
