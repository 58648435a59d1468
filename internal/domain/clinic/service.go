package clinic

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Service is the single entry point to clinic data. Every write runs in its
// own read-write transaction and every read in a read-only one, so reads that
// take several round trips still see one consistent snapshot. Point lookups
// that match nothing return a nil entity and a nil error.
type Service struct {
	backend      Backend
	logger       zerolog.Logger
	metrics      MetricsRecorder
	passwordCost int
}

type Option func(*Service)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithPasswordCost sets the bcrypt cost used by SaveUser.
func WithPasswordCost(cost int) Option {
	return func(s *Service) { s.passwordCost = cost }
}

func NewService(backend Backend, opts ...Option) *Service {
	s := &Service{
		backend:      backend,
		logger:       zerolog.Nop(),
		metrics:      noopMetricsRecorder{},
		passwordCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the persistence variant the service delegates to.
func (s *Service) Backend() Backend { return s.backend }

func (s *Service) run(ctx context.Context, op string, mode TxMode, fn func(ctx context.Context) error) error {
	start := time.Now()
	err := s.backend.InTx(ctx, mode, fn)
	elapsed := time.Since(start)
	s.metrics.Observe(ctx, op, err == nil, elapsed)
	if err != nil {
		s.logger.Error().Err(err).Str("op", op).Str("backend", s.backend.Name()).Dur("duration", elapsed).Msg("clinic operation failed")
		return err
	}
	s.logger.Debug().Str("op", op).Str("tx", mode.String()).Dur("duration", elapsed).Msg("clinic operation")
	return nil
}

func (s *Service) write(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return s.run(ctx, op, TxReadWrite, fn)
}

func findOne[T any](ctx context.Context, s *Service, op string, find func(ctx context.Context) (*T, error)) (*T, error) {
	var out *T
	err := s.run(ctx, op, TxReadOnly, func(ctx context.Context) error {
		v, err := find(ctx)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func findMany[T any](ctx context.Context, s *Service, op string, find func(ctx context.Context) ([]T, error)) ([]T, error) {
	var out []T
	err := s.run(ctx, op, TxReadOnly, func(ctx context.Context) error {
		v, err := find(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// =========== Medications ===========

func (s *Service) FindMedicationByID(ctx context.Context, id int) (*Medication, error) {
	return findOne(ctx, s, "FindMedicationByID", func(ctx context.Context) (*Medication, error) {
		return s.backend.Medications().FindByID(ctx, id)
	})
}

func (s *Service) FindAllMedications(ctx context.Context) ([]*Medication, error) {
	return findMany(ctx, s, "FindAllMedications", s.backend.Medications().FindAll)
}

func (s *Service) SaveMedication(ctx context.Context, m *Medication) error {
	return s.write(ctx, "SaveMedication", func(ctx context.Context) error {
		return s.backend.Medications().Save(ctx, m)
	})
}

func (s *Service) DeleteMedication(ctx context.Context, m *Medication) error {
	return s.write(ctx, "DeleteMedication", func(ctx context.Context) error {
		return s.backend.Medications().Delete(ctx, m)
	})
}

// =========== Prescriptions ===========

func (s *Service) FindPrescriptionsByMedicationID(ctx context.Context, medicationID int) ([]*Prescription, error) {
	return findMany(ctx, s, "FindPrescriptionsByMedicationID", func(ctx context.Context) ([]*Prescription, error) {
		return s.backend.Prescriptions().FindByMedicationID(ctx, medicationID)
	})
}

func (s *Service) FindPrescriptionByID(ctx context.Context, id int) (*Prescription, error) {
	return findOne(ctx, s, "FindPrescriptionByID", func(ctx context.Context) (*Prescription, error) {
		return s.backend.Prescriptions().FindByID(ctx, id)
	})
}

func (s *Service) FindAllPrescriptions(ctx context.Context) ([]*Prescription, error) {
	return findMany(ctx, s, "FindAllPrescriptions", s.backend.Prescriptions().FindAll)
}

func (s *Service) SavePrescription(ctx context.Context, p *Prescription) error {
	return s.write(ctx, "SavePrescription", func(ctx context.Context) error {
		return s.backend.Prescriptions().Save(ctx, p)
	})
}

func (s *Service) DeletePrescription(ctx context.Context, p *Prescription) error {
	return s.write(ctx, "DeletePrescription", func(ctx context.Context) error {
		return s.backend.Prescriptions().Delete(ctx, p)
	})
}

// =========== Prescribers ===========

func (s *Service) FindPrescriberByID(ctx context.Context, id int) (*Prescriber, error) {
	return findOne(ctx, s, "FindPrescriberByID", func(ctx context.Context) (*Prescriber, error) {
		return s.backend.Prescribers().FindByID(ctx, id)
	})
}

// FindPrescribers is kept alongside FindAllPrescribers for callers that list
// prescribers for display; both return the same ordering.
func (s *Service) FindPrescribers(ctx context.Context) ([]*Prescriber, error) {
	return findMany(ctx, s, "FindPrescribers", s.backend.Prescribers().FindAll)
}

func (s *Service) FindAllPrescribers(ctx context.Context) ([]*Prescriber, error) {
	return findMany(ctx, s, "FindAllPrescribers", s.backend.Prescribers().FindAll)
}

func (s *Service) SavePrescriber(ctx context.Context, p *Prescriber) error {
	return s.write(ctx, "SavePrescriber", func(ctx context.Context) error {
		return s.backend.Prescribers().Save(ctx, p)
	})
}

func (s *Service) DeletePrescriber(ctx context.Context, p *Prescriber) error {
	return s.write(ctx, "DeletePrescriber", func(ctx context.Context) error {
		return s.backend.Prescribers().Delete(ctx, p)
	})
}

// =========== Owners ===========

func (s *Service) FindOwnerByID(ctx context.Context, id int) (*Owner, error) {
	return findOne(ctx, s, "FindOwnerByID", func(ctx context.Context) (*Owner, error) {
		return s.backend.Owners().FindByID(ctx, id)
	})
}

func (s *Service) FindAllOwners(ctx context.Context) ([]*Owner, error) {
	return findMany(ctx, s, "FindAllOwners", s.backend.Owners().FindAll)
}

func (s *Service) FindOwnersByLastName(ctx context.Context, lastName string) ([]*Owner, error) {
	return findMany(ctx, s, "FindOwnersByLastName", func(ctx context.Context) ([]*Owner, error) {
		return s.backend.Owners().FindByLastName(ctx, lastName)
	})
}

func (s *Service) SaveOwner(ctx context.Context, o *Owner) error {
	return s.write(ctx, "SaveOwner", func(ctx context.Context) error {
		return s.backend.Owners().Save(ctx, o)
	})
}

func (s *Service) DeleteOwner(ctx context.Context, o *Owner) error {
	return s.write(ctx, "DeleteOwner", func(ctx context.Context) error {
		return s.backend.Owners().Delete(ctx, o)
	})
}

// =========== Medication types ===========

func (s *Service) FindMedicationTypeByID(ctx context.Context, id int) (*MedicationType, error) {
	return findOne(ctx, s, "FindMedicationTypeByID", func(ctx context.Context) (*MedicationType, error) {
		return s.backend.MedicationTypes().FindByID(ctx, id)
	})
}

func (s *Service) FindAllMedicationTypes(ctx context.Context) ([]*MedicationType, error) {
	return findMany(ctx, s, "FindAllMedicationTypes", s.backend.MedicationTypes().FindAll)
}

// FindMedicationTypes returns all types ordered by name.
func (s *Service) FindMedicationTypes(ctx context.Context) ([]*MedicationType, error) {
	return findMany(ctx, s, "FindMedicationTypes", s.backend.Medications().FindMedicationTypes)
}

func (s *Service) FindMedicationTypeByName(ctx context.Context, name string) (*MedicationType, error) {
	return findOne(ctx, s, "FindMedicationTypeByName", func(ctx context.Context) (*MedicationType, error) {
		return s.backend.MedicationTypes().FindByName(ctx, name)
	})
}

func (s *Service) SaveMedicationType(ctx context.Context, t *MedicationType) error {
	return s.write(ctx, "SaveMedicationType", func(ctx context.Context) error {
		return s.backend.MedicationTypes().Save(ctx, t)
	})
}

func (s *Service) DeleteMedicationType(ctx context.Context, t *MedicationType) error {
	return s.write(ctx, "DeleteMedicationType", func(ctx context.Context) error {
		return s.backend.MedicationTypes().Delete(ctx, t)
	})
}

// =========== Specialties ===========

func (s *Service) FindSpecialtyByID(ctx context.Context, id int) (*Specialty, error) {
	return findOne(ctx, s, "FindSpecialtyByID", func(ctx context.Context) (*Specialty, error) {
		return s.backend.Specialties().FindByID(ctx, id)
	})
}

func (s *Service) FindAllSpecialties(ctx context.Context) ([]*Specialty, error) {
	return findMany(ctx, s, "FindAllSpecialties", s.backend.Specialties().FindAll)
}

func (s *Service) FindSpecialtiesByNameIn(ctx context.Context, names []string) ([]*Specialty, error) {
	return findMany(ctx, s, "FindSpecialtiesByNameIn", func(ctx context.Context) ([]*Specialty, error) {
		return s.backend.Specialties().FindByNames(ctx, names)
	})
}

func (s *Service) SaveSpecialty(ctx context.Context, sp *Specialty) error {
	return s.write(ctx, "SaveSpecialty", func(ctx context.Context) error {
		return s.backend.Specialties().Save(ctx, sp)
	})
}

func (s *Service) DeleteSpecialty(ctx context.Context, sp *Specialty) error {
	return s.write(ctx, "DeleteSpecialty", func(ctx context.Context) error {
		return s.backend.Specialties().Delete(ctx, sp)
	})
}
