package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
)

// medicationJoin selects medications LEFT JOIN prescriptions; callers append
// a WHERE clause. Rows come back grouped by medication.
const medicationJoin = `
	SELECT m.id, m.name, m.expiration_date, m.type_id, m.owner_id,
	       p.id, p.prescription_date, p.description
	FROM medications m
	LEFT JOIN prescriptions p ON p.medication_id = m.id
	`

type medicationRepo struct{ s *Store }

func (r medicationRepo) FindByID(ctx context.Context, id int) (*clinic.Medication, error) {
	meds, err := r.s.queryMedications(ctx, `WHERE m.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(meds) == 0 {
		return nil, clinic.NotFound("medication", id)
	}
	return meds[0], nil
}

func (r medicationRepo) FindAll(ctx context.Context) ([]*clinic.Medication, error) {
	return r.s.queryMedications(ctx, ``)
}

func (r medicationRepo) FindMedicationTypes(ctx context.Context) ([]*clinic.MedicationType, error) {
	return r.s.queryTypes(ctx, `SELECT id, name FROM types ORDER BY name`)
}

func (r medicationRepo) Save(ctx context.Context, m *clinic.Medication) error {
	if err := clinic.ValidateMedication(m); err != nil {
		return err
	}
	row := clinic.MedicationRowOf(m)
	return clinic.Upsert(ctx, m.ID,
		func(ctx context.Context) error {
			id, err := r.s.insertReturningID(ctx, "medication", `
				INSERT INTO medications (name, expiration_date, type_id, owner_id)
				VALUES ($1, $2, $3, $4) RETURNING id`,
				row.Name, nullDate(row.ExpirationDate), row.TypeID, row.OwnerID)
			if err != nil {
				return err
			}
			m.ID = id
			return nil
		},
		func(ctx context.Context) error {
			return r.s.update(ctx, "medication", m.ID, `
				UPDATE medications SET name = $2, expiration_date = $3, type_id = $4, owner_id = $5
				WHERE id = $1`,
				row.ID, row.Name, nullDate(row.ExpirationDate), row.TypeID, row.OwnerID)
		})
}

func (r medicationRepo) Delete(ctx context.Context, m *clinic.Medication) error {
	if m.IsNew() {
		return nil
	}
	return r.s.cascade.DeleteMedication(ctx, m.ID)
}

// medicationRows runs the joined medication query with the given filter.
func (s *Store) medicationRows(ctx context.Context, where string, args ...interface{}) ([]clinic.MedicationPrescriptionRow, error) {
	rows, err := s.conn(ctx).Query(ctx, medicationJoin+where+` ORDER BY m.id, p.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query medications: %w", err)
	}
	defer rows.Close()

	var out []clinic.MedicationPrescriptionRow
	for rows.Next() {
		var (
			r       clinic.MedicationPrescriptionRow
			expires *time.Time
			pID     *int
			pDate   *time.Time
			pDesc   *string
		)
		if err := rows.Scan(&r.Medication.ID, &r.Medication.Name, &expires, &r.Medication.TypeID, &r.Medication.OwnerID,
			&pID, &pDate, &pDesc); err != nil {
			return nil, fmt.Errorf("scan medication: %w", err)
		}
		r.Medication.ExpirationDate = dateOrZero(expires)
		if pID != nil {
			r.Prescription = &clinic.PrescriptionRow{ID: *pID, MedicationID: r.Medication.ID, Date: dateOrZero(pDate)}
			if pDesc != nil {
				r.Prescription.Description = *pDesc
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate medications: %w", err)
	}
	return out, nil
}

// queryMedications loads medications with their prescriptions, type and a
// shallow owner (the owner's own medication list is left empty).
func (s *Store) queryMedications(ctx context.Context, where string, args ...interface{}) ([]*clinic.Medication, error) {
	rows, err := s.medicationRows(ctx, where, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []*clinic.Medication{}, nil
	}

	seen := make(map[int]bool)
	var ownerIDs []int
	for _, r := range rows {
		if !seen[r.Medication.OwnerID] {
			seen[r.Medication.OwnerID] = true
			ownerIDs = append(ownerIDs, r.Medication.OwnerID)
		}
	}
	owners, err := s.queryOwners(ctx, `SELECT `+ownerColumns+` FROM owners WHERE id = ANY($1)`, ownerIDs)
	if err != nil {
		return nil, err
	}
	types, err := s.typeIndex(ctx)
	if err != nil {
		return nil, err
	}
	return clinic.ExtractMedications(rows, clinic.IndexOwners(owners), types)
}
