package clinic

import "time"

// Flat rows as they come back from the store. Backends scan into these and
// hand them to the assemblers below, which own aggregate construction.

type OwnerRow struct {
	ID        int
	FirstName string
	LastName  string
	Address   string
	City      string
	Telephone string
}

func (r OwnerRow) Owner() *Owner {
	return &Owner{
		ID:        r.ID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Address:   r.Address,
		City:      r.City,
		Telephone: r.Telephone,
	}
}

// OwnerRowOf flattens o for writing.
func OwnerRowOf(o *Owner) OwnerRow {
	return OwnerRow{ID: o.ID, FirstName: o.FirstName, LastName: o.LastName, Address: o.Address, City: o.City, Telephone: o.Telephone}
}

type MedicationRow struct {
	ID             int
	Name           string
	ExpirationDate time.Time
	TypeID         int
	OwnerID        int
}

// MedicationRowOf flattens m for writing. m must have passed ValidateMedication.
func MedicationRowOf(m *Medication) MedicationRow {
	return MedicationRow{
		ID:             m.ID,
		Name:           m.Name,
		ExpirationDate: DateOf(m.ExpirationDate),
		TypeID:         m.Type.ID,
		OwnerID:        m.Owner.ID,
	}
}

type PrescriptionRow struct {
	ID           int
	MedicationID int
	Date         time.Time
	Description  string
}

func (r PrescriptionRow) Prescription() *Prescription {
	return &Prescription{ID: r.ID, Date: DateOf(r.Date), Description: r.Description}
}

// PrescriptionRowOf flattens p for writing. p must have passed ValidatePrescription.
func PrescriptionRowOf(p *Prescription) PrescriptionRow {
	return PrescriptionRow{ID: p.ID, MedicationID: p.Medication.ID, Date: DateOf(p.Date), Description: p.Description}
}

// MedicationPrescriptionRow is one row of medications LEFT JOIN prescriptions.
// Prescription is nil for a medication without prescriptions.
type MedicationPrescriptionRow struct {
	Medication   MedicationRow
	Prescription *PrescriptionRow
}

type PrescriberRow struct {
	ID        int
	FirstName string
	LastName  string
}

func (r PrescriberRow) Prescriber() *Prescriber {
	return &Prescriber{ID: r.ID, FirstName: r.FirstName, LastName: r.LastName}
}

// PrescriberSpecialtyRow is one row of prescribers LEFT JOIN prescriber_specialties.
// SpecialtyID is nil for a prescriber without specialties.
type PrescriberSpecialtyRow struct {
	Prescriber  PrescriberRow
	SpecialtyID *int
}

type rowGroup[K comparable, R any] struct {
	key  K
	rows []R
}

// groupRows groups rows by key, keeping distinct keys in first-seen order.
func groupRows[K comparable, R any](rows []R, key func(R) K) []rowGroup[K, R] {
	pos := make(map[K]int)
	var groups []rowGroup[K, R]
	for _, r := range rows {
		k := key(r)
		i, ok := pos[k]
		if !ok {
			i = len(groups)
			pos[k] = i
			groups = append(groups, rowGroup[K, R]{key: k})
		}
		groups[i].rows = append(groups[i].rows, r)
	}
	return groups
}

// Index is a pre-fetched reference collection keyed by identity.
type Index[T any] struct {
	ref  string
	byID map[int]T
}

func NewIndex[T any](ref string, items []T, id func(T) int) Index[T] {
	ix := Index[T]{ref: ref, byID: make(map[int]T, len(items))}
	for _, it := range items {
		ix.byID[id(it)] = it
	}
	return ix
}

// Resolve returns the referenced item, or a ReferentialIntegrityError naming
// the referencing entity when refID is not in the index.
func (ix Index[T]) Resolve(entity string, entityID, refID int) (T, error) {
	it, ok := ix.byID[refID]
	if !ok {
		var zero T
		return zero, &ReferentialIntegrityError{Entity: entity, ID: entityID, Ref: ix.ref, RefID: refID}
	}
	return it, nil
}

func IndexOwners(owners []*Owner) Index[*Owner] {
	return NewIndex("owner", owners, func(o *Owner) int { return o.ID })
}

func IndexTypes(types []*MedicationType) Index[*MedicationType] {
	return NewIndex("medication type", types, func(t *MedicationType) int { return t.ID })
}

func IndexSpecialties(specialties []*Specialty) Index[*Specialty] {
	return NewIndex("specialty", specialties, func(s *Specialty) int { return s.ID })
}

func IndexMedications(meds []*Medication) Index[*Medication] {
	return NewIndex("medication", meds, func(m *Medication) int { return m.ID })
}

// newMedication builds a medication from its row and resolves type and owner.
// The owner is referenced, not mutated: callers that load owners attach the
// medication explicitly.
func newMedication(r MedicationRow, owners Index[*Owner], types Index[*MedicationType]) (*Medication, error) {
	t, err := types.Resolve("medication", r.ID, r.TypeID)
	if err != nil {
		return nil, err
	}
	o, err := owners.Resolve("medication", r.ID, r.OwnerID)
	if err != nil {
		return nil, err
	}
	return &Medication{
		ID:             r.ID,
		Name:           r.Name,
		ExpirationDate: DateOf(r.ExpirationDate),
		Type:           t,
		Owner:          o,
	}, nil
}

// ExtractMedications rebuilds medications from a single joined result set.
// Medications keep the order in which they first appear in rows.
func ExtractMedications(rows []MedicationPrescriptionRow, owners Index[*Owner], types Index[*MedicationType]) ([]*Medication, error) {
	groups := groupRows(rows, func(r MedicationPrescriptionRow) int { return r.Medication.ID })
	out := make([]*Medication, 0, len(groups))
	for _, g := range groups {
		m, err := newMedication(g.rows[0].Medication, owners, types)
		if err != nil {
			return nil, err
		}
		for _, r := range g.rows {
			if r.Prescription == nil {
				continue
			}
			m.AddPrescription(r.Prescription.Prescription())
		}
		out = append(out, m)
	}
	return out, nil
}

// AssembleMedication rebuilds one medication from its own row and the rows of
// a secondary prescriptions query. Given the same data it yields the same
// graph as ExtractMedications.
func AssembleMedication(row MedicationRow, prescriptions []PrescriptionRow, owners Index[*Owner], types Index[*MedicationType]) (*Medication, error) {
	m, err := newMedication(row, owners, types)
	if err != nil {
		return nil, err
	}
	for _, p := range prescriptions {
		m.AddPrescription(p.Prescription())
	}
	return m, nil
}

// AttachMedications adds every medication to the owner it references.
func AttachMedications(meds []*Medication) {
	for _, m := range meds {
		if m.Owner != nil {
			m.Owner.AddMedication(m)
		}
	}
}

// ResolvePrescriptions builds prescriptions from rows, pointing each at its
// medication from meds.
func ResolvePrescriptions(rows []PrescriptionRow, meds Index[*Medication]) ([]*Prescription, error) {
	out := make([]*Prescription, 0, len(rows))
	for _, r := range rows {
		m, err := meds.Resolve("prescription", r.ID, r.MedicationID)
		if err != nil {
			return nil, err
		}
		p := r.Prescription()
		p.Medication = m
		out = append(out, p)
	}
	return out, nil
}

// ExtractPrescribers rebuilds prescribers from a joined result set.
func ExtractPrescribers(rows []PrescriberSpecialtyRow, specialties Index[*Specialty]) ([]*Prescriber, error) {
	groups := groupRows(rows, func(r PrescriberSpecialtyRow) int { return r.Prescriber.ID })
	out := make([]*Prescriber, 0, len(groups))
	for _, g := range groups {
		var ids []int
		for _, r := range g.rows {
			if r.SpecialtyID != nil {
				ids = append(ids, *r.SpecialtyID)
			}
		}
		p, err := AssemblePrescriber(g.rows[0].Prescriber, ids, specialties)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// AssemblePrescriber rebuilds one prescriber from its row and its specialty ids.
func AssemblePrescriber(row PrescriberRow, specialtyIDs []int, specialties Index[*Specialty]) (*Prescriber, error) {
	p := row.Prescriber()
	for _, id := range specialtyIDs {
		s, err := specialties.Resolve("prescriber", row.ID, id)
		if err != nil {
			return nil, err
		}
		p.AddSpecialty(s)
	}
	return p, nil
}
