package sqlite

import (
	"context"
	"fmt"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
)

// cascadeStore runs the row-level steps of clinic.Cascade.
type cascadeStore struct{ s *Store }

func (c cascadeStore) MedicationIDsByOwner(ctx context.Context, ownerID int) ([]int, error) {
	return medications.ids(ctx, c.s.conn(ctx), "WHERE owner_id = ? ORDER BY id", ownerID)
}

func (c cascadeStore) MedicationIDsByType(ctx context.Context, typeID int) ([]int, error) {
	return medications.ids(ctx, c.s.conn(ctx), "WHERE type_id = ? ORDER BY id", typeID)
}

func (c cascadeStore) DeletePrescriptionsOf(ctx context.Context, medicationIDs []int) (int64, error) {
	if len(medicationIDs) == 0 {
		return 0, nil
	}
	where, args := in("medication_id", medicationIDs)
	return prescriptions.deleteWhere(ctx, c.s.conn(ctx), "WHERE "+where, args...)
}

func (c cascadeStore) DeleteMedications(ctx context.Context, ids []int) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	where, args := in("id", ids)
	return medications.deleteWhere(ctx, c.s.conn(ctx), "WHERE "+where, args...)
}

func (c cascadeStore) DeletePrescriberLinks(ctx context.Context, prescriberID int) (int64, error) {
	return c.exec(ctx, "prescriber", `DELETE FROM prescriber_specialties WHERE prescriber_id = ?`, prescriberID)
}

func (c cascadeStore) DeleteSpecialtyLinks(ctx context.Context, specialtyID int) (int64, error) {
	return c.exec(ctx, "specialty", `DELETE FROM prescriber_specialties WHERE specialty_id = ?`, specialtyID)
}

func (c cascadeStore) DeleteRow(ctx context.Context, table clinic.Table, id int) (int64, error) {
	return c.exec(ctx, string(table), fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table), id)
}

func (c cascadeStore) exec(ctx context.Context, entity, stmt string, args ...any) (int64, error) {
	res, err := c.s.conn(ctx).ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, translate(entity, err)
	}
	return res.RowsAffected()
}
