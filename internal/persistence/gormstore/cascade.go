package gormstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
)

// cascadeStore runs the row-level steps of clinic.Cascade.
type cascadeStore struct{ s *Store }

var tableModels = map[clinic.Table]func() interface{}{
	clinic.TableOwners:        func() interface{} { return &ownerModel{} },
	clinic.TableTypes:         func() interface{} { return &typeModel{} },
	clinic.TableMedications:   func() interface{} { return &medicationModel{} },
	clinic.TablePrescriptions: func() interface{} { return &prescriptionModel{} },
	clinic.TablePrescribers:   func() interface{} { return &prescriberModel{} },
	clinic.TableSpecialties:   func() interface{} { return &specialtyModel{} },
}

func result(entity string, res *gorm.DB) (int64, error) {
	if res.Error != nil {
		return 0, translate(entity, res.Error)
	}
	return res.RowsAffected, nil
}

func (c cascadeStore) medicationIDs(ctx context.Context, column string, id int) ([]int, error) {
	var ids []int
	err := c.s.conn(ctx).Model(&medicationModel{}).Where(column+" = ?", id).Order("id").Pluck("id", &ids).Error
	return ids, err
}

func (c cascadeStore) MedicationIDsByOwner(ctx context.Context, ownerID int) ([]int, error) {
	return c.medicationIDs(ctx, "owner_id", ownerID)
}

func (c cascadeStore) MedicationIDsByType(ctx context.Context, typeID int) ([]int, error) {
	return c.medicationIDs(ctx, "type_id", typeID)
}

func (c cascadeStore) DeletePrescriptionsOf(ctx context.Context, medicationIDs []int) (int64, error) {
	return result("prescription", c.s.conn(ctx).Where("medication_id IN ?", medicationIDs).Delete(&prescriptionModel{}))
}

func (c cascadeStore) DeleteMedications(ctx context.Context, ids []int) (int64, error) {
	return result("medication", c.s.conn(ctx).Where("id IN ?", ids).Delete(&medicationModel{}))
}

func (c cascadeStore) DeletePrescriberLinks(ctx context.Context, prescriberID int) (int64, error) {
	return result("prescriber", c.s.conn(ctx).Where("prescriber_id = ?", prescriberID).Delete(&prescriberSpecialtyModel{}))
}

func (c cascadeStore) DeleteSpecialtyLinks(ctx context.Context, specialtyID int) (int64, error) {
	return result("specialty", c.s.conn(ctx).Where("specialty_id = ?", specialtyID).Delete(&prescriberSpecialtyModel{}))
}

func (c cascadeStore) DeleteRow(ctx context.Context, table clinic.Table, id int) (int64, error) {
	model, ok := tableModels[table]
	if !ok {
		return 0, fmt.Errorf("no model for table %s", table)
	}
	return result(string(table), c.s.conn(ctx).Delete(model(), id))
}
