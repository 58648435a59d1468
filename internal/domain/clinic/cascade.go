package clinic

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Table names shared by every backend's schema.
type Table string

const (
	TableOwners        Table = "owners"
	TableTypes         Table = "types"
	TableMedications   Table = "medications"
	TablePrescriptions Table = "prescriptions"
	TablePrescribers   Table = "prescribers"
	TableSpecialties   Table = "specialties"
)

// CascadeStore is the set of row-level statements a cascade is composed of.
// Each backend implements it against the transaction found in ctx.
type CascadeStore interface {
	MedicationIDsByOwner(ctx context.Context, ownerID int) ([]int, error)
	MedicationIDsByType(ctx context.Context, typeID int) ([]int, error)
	DeletePrescriptionsOf(ctx context.Context, medicationIDs []int) (int64, error)
	DeleteMedications(ctx context.Context, ids []int) (int64, error)
	DeletePrescriberLinks(ctx context.Context, prescriberID int) (int64, error)
	DeleteSpecialtyLinks(ctx context.Context, specialtyID int) (int64, error)
	DeleteRow(ctx context.Context, table Table, id int) (int64, error)
}

// Cascade deletes aggregate roots child-before-parent inside one transaction.
// Dependent ids are always read from the store, never from a loaded graph.
type Cascade struct {
	tx     Transactor
	store  CascadeStore
	logger zerolog.Logger
}

func NewCascade(tx Transactor, store CascadeStore, logger zerolog.Logger) *Cascade {
	return &Cascade{tx: tx, store: store, logger: logger}
}

// DeleteOwner removes prescriptions, then medications, then the owner.
func (c *Cascade) DeleteOwner(ctx context.Context, ownerID int) error {
	return c.tx.InTx(ctx, TxReadWrite, func(ctx context.Context) error {
		ids, err := c.store.MedicationIDsByOwner(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("list medications of owner %d: %w", ownerID, err)
		}
		if err := c.deleteMedications(ctx, ids); err != nil {
			return err
		}
		return c.deleteRow(ctx, TableOwners, ownerID)
	})
}

// DeleteMedicationType removes every medication of the type, then the type.
func (c *Cascade) DeleteMedicationType(ctx context.Context, typeID int) error {
	return c.tx.InTx(ctx, TxReadWrite, func(ctx context.Context) error {
		ids, err := c.store.MedicationIDsByType(ctx, typeID)
		if err != nil {
			return fmt.Errorf("list medications of type %d: %w", typeID, err)
		}
		if err := c.deleteMedications(ctx, ids); err != nil {
			return err
		}
		return c.deleteRow(ctx, TableTypes, typeID)
	})
}

// DeleteMedication removes the medication's prescriptions, then the medication.
func (c *Cascade) DeleteMedication(ctx context.Context, medicationID int) error {
	return c.tx.InTx(ctx, TxReadWrite, func(ctx context.Context) error {
		return c.deleteMedications(ctx, []int{medicationID})
	})
}

// DeletePrescriber removes the prescriber's specialty links, then the prescriber.
func (c *Cascade) DeletePrescriber(ctx context.Context, prescriberID int) error {
	return c.tx.InTx(ctx, TxReadWrite, func(ctx context.Context) error {
		n, err := c.store.DeletePrescriberLinks(ctx, prescriberID)
		if err != nil {
			return fmt.Errorf("delete specialty links of prescriber %d: %w", prescriberID, err)
		}
		c.logger.Debug().Int("prescriber_id", prescriberID).Int64("rows", n).Msg("deleted prescriber specialty links")
		return c.deleteRow(ctx, TablePrescribers, prescriberID)
	})
}

// DeleteSpecialty removes the specialty's prescriber links, then the specialty.
func (c *Cascade) DeleteSpecialty(ctx context.Context, specialtyID int) error {
	return c.tx.InTx(ctx, TxReadWrite, func(ctx context.Context) error {
		n, err := c.store.DeleteSpecialtyLinks(ctx, specialtyID)
		if err != nil {
			return fmt.Errorf("delete prescriber links of specialty %d: %w", specialtyID, err)
		}
		c.logger.Debug().Int("specialty_id", specialtyID).Int64("rows", n).Msg("deleted specialty prescriber links")
		return c.deleteRow(ctx, TableSpecialties, specialtyID)
	})
}

func (c *Cascade) deleteMedications(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	n, err := c.store.DeletePrescriptionsOf(ctx, ids)
	if err != nil {
		return fmt.Errorf("delete prescriptions of medications %v: %w", ids, err)
	}
	c.logger.Debug().Ints("medication_ids", ids).Int64("rows", n).Msg("deleted prescriptions")

	n, err = c.store.DeleteMedications(ctx, ids)
	if err != nil {
		return fmt.Errorf("delete medications %v: %w", ids, err)
	}
	c.logger.Debug().Ints("medication_ids", ids).Int64("rows", n).Msg("deleted medications")
	return nil
}

func (c *Cascade) deleteRow(ctx context.Context, table Table, id int) error {
	n, err := c.store.DeleteRow(ctx, table, id)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", table, id, err)
	}
	c.logger.Debug().Str("table", string(table)).Int("id", id).Int64("rows", n).Msg("deleted row")
	return nil
}
