package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
)

// cascadeStore runs the row-level steps of clinic.Cascade.
type cascadeStore struct{ s *Store }

func (c cascadeStore) ids(ctx context.Context, sql string, arg int) ([]int, error) {
	rows, err := c.s.conn(ctx).Query(ctx, sql, arg)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int])
}

func (c cascadeStore) exec(ctx context.Context, entity, sql string, args ...interface{}) (int64, error) {
	tag, err := c.s.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, translate(entity, err)
	}
	return tag.RowsAffected(), nil
}

func (c cascadeStore) MedicationIDsByOwner(ctx context.Context, ownerID int) ([]int, error) {
	return c.ids(ctx, `SELECT id FROM medications WHERE owner_id = $1 ORDER BY id`, ownerID)
}

func (c cascadeStore) MedicationIDsByType(ctx context.Context, typeID int) ([]int, error) {
	return c.ids(ctx, `SELECT id FROM medications WHERE type_id = $1 ORDER BY id`, typeID)
}

func (c cascadeStore) DeletePrescriptionsOf(ctx context.Context, medicationIDs []int) (int64, error) {
	return c.exec(ctx, "prescription", `DELETE FROM prescriptions WHERE medication_id = ANY($1)`, medicationIDs)
}

func (c cascadeStore) DeleteMedications(ctx context.Context, ids []int) (int64, error) {
	return c.exec(ctx, "medication", `DELETE FROM medications WHERE id = ANY($1)`, ids)
}

func (c cascadeStore) DeletePrescriberLinks(ctx context.Context, prescriberID int) (int64, error) {
	return c.exec(ctx, "prescriber", `DELETE FROM prescriber_specialties WHERE prescriber_id = $1`, prescriberID)
}

func (c cascadeStore) DeleteSpecialtyLinks(ctx context.Context, specialtyID int) (int64, error) {
	return c.exec(ctx, "specialty", `DELETE FROM prescriber_specialties WHERE specialty_id = $1`, specialtyID)
}

func (c cascadeStore) DeleteRow(ctx context.Context, table clinic.Table, id int) (int64, error) {
	return c.exec(ctx, string(table), fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), id)
}
