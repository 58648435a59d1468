package clinic

import "context"

type OwnerRepository interface {
	FindByID(ctx context.Context, id int) (*Owner, error)
	FindAll(ctx context.Context) ([]*Owner, error)
	// FindByLastName returns owners whose last name starts with prefix, case-sensitively.
	FindByLastName(ctx context.Context, prefix string) ([]*Owner, error)
	Save(ctx context.Context, o *Owner) error
	// Delete removes the owner together with its medications and their prescriptions.
	Delete(ctx context.Context, o *Owner) error
}

type MedicationRepository interface {
	FindByID(ctx context.Context, id int) (*Medication, error)
	FindAll(ctx context.Context) ([]*Medication, error)
	// FindMedicationTypes returns every medication type ordered by name.
	FindMedicationTypes(ctx context.Context) ([]*MedicationType, error)
	Save(ctx context.Context, m *Medication) error
	Delete(ctx context.Context, m *Medication) error
}

type MedicationTypeRepository interface {
	FindByID(ctx context.Context, id int) (*MedicationType, error)
	FindAll(ctx context.Context) ([]*MedicationType, error)
	FindByName(ctx context.Context, name string) (*MedicationType, error)
	Save(ctx context.Context, t *MedicationType) error
	// Delete removes the type and every medication of that type, prescriptions first.
	Delete(ctx context.Context, t *MedicationType) error
}

type PrescriptionRepository interface {
	FindByID(ctx context.Context, id int) (*Prescription, error)
	FindAll(ctx context.Context) ([]*Prescription, error)
	FindByMedicationID(ctx context.Context, medicationID int) ([]*Prescription, error)
	Save(ctx context.Context, p *Prescription) error
	Delete(ctx context.Context, p *Prescription) error
}

type PrescriberRepository interface {
	FindByID(ctx context.Context, id int) (*Prescriber, error)
	// FindAll returns prescribers ordered by last name, then first name.
	FindAll(ctx context.Context) ([]*Prescriber, error)
	// Save persists the prescriber row and replaces its whole specialty set.
	Save(ctx context.Context, p *Prescriber) error
	Delete(ctx context.Context, p *Prescriber) error
}

type SpecialtyRepository interface {
	FindByID(ctx context.Context, id int) (*Specialty, error)
	FindAll(ctx context.Context) ([]*Specialty, error)
	// FindByNames returns the specialties whose name exactly matches one of names.
	FindByNames(ctx context.Context, names []string) ([]*Specialty, error)
	Save(ctx context.Context, s *Specialty) error
	Delete(ctx context.Context, s *Specialty) error
}

type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	// Save upserts the user row by username and replaces its role set.
	Save(ctx context.Context, u *User) error
}

// TxMode selects the access mode of a transaction.
type TxMode int

const (
	TxReadWrite TxMode = iota
	TxReadOnly
)

func (m TxMode) String() string {
	if m == TxReadOnly {
		return "read-only"
	}
	return "read-write"
}

// Transactor runs fn inside one store transaction carried by the context
// passed to fn. The transaction commits when fn returns nil and rolls back on
// any error or panic. A call made while a transaction is already active in
// ctx joins it instead of opening a new one.
type Transactor interface {
	InTx(ctx context.Context, mode TxMode, fn func(ctx context.Context) error) error
}

// Backend is one persistence variant: a full set of repositories sharing a
// transaction scope.
type Backend interface {
	Transactor
	Name() string
	Owners() OwnerRepository
	Medications() MedicationRepository
	MedicationTypes() MedicationTypeRepository
	Prescriptions() PrescriptionRepository
	Prescribers() PrescriberRepository
	Specialties() SpecialtyRepository
	Users() UserRepository
	Close() error
}

// Upsert is the single insert-or-update decision shared by every backend.
// insert must write the generated identity back onto the entity.
func Upsert(ctx context.Context, id int, insert, update func(ctx context.Context) error) error {
	if IsNew(id) {
		return insert(ctx)
	}
	return update(ctx)
}

// ValidateMedication rejects medications that cannot be persisted.
func ValidateMedication(m *Medication) error {
	if m.Owner == nil || m.Owner.IsNew() {
		return &ConstraintViolationError{Entity: "medication", Reason: "owner is required"}
	}
	if m.Type == nil || m.Type.IsNew() {
		return &ConstraintViolationError{Entity: "medication", Reason: "medication type is required"}
	}
	return nil
}

// ValidatePrescription rejects prescriptions that are not attached to a saved medication.
func ValidatePrescription(p *Prescription) error {
	if p.Medication == nil || p.Medication.IsNew() {
		return &ConstraintViolationError{Entity: "prescription", Reason: "medication is required"}
	}
	return nil
}
