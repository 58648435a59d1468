package clinic

import (
	"sort"
	"strings"
	"time"
)

// IsNew reports whether an identity has not been assigned by the store yet.
func IsNew(id int) bool {
	return id == 0
}

// DateOf returns the calendar day of t as midnight UTC.
func DateOf(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar day.
func Today() time.Time {
	return DateOf(time.Now())
}

// Owner is the aggregate root for medications and, transitively, prescriptions.
type Owner struct {
	ID        int
	FirstName string
	LastName  string
	Address   string
	City      string
	Telephone string

	medications []*Medication
}

func (o *Owner) IsNew() bool { return IsNew(o.ID) }

// Medications returns the owner's medications sorted by name, ignoring case.
// The returned slice is a snapshot; use AddMedication or SetMedications to change it.
func (o *Owner) Medications() []*Medication {
	out := make([]*Medication, len(o.medications))
	copy(out, o.medications)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// AddMedication attaches m to the owner and points m back at it.
func (o *Owner) AddMedication(m *Medication) {
	m.Owner = o
	o.medications = append(o.medications, m)
}

// SetMedications replaces the owner's medication set.
func (o *Owner) SetMedications(ms []*Medication) {
	o.medications = nil
	for _, m := range ms {
		o.AddMedication(m)
	}
}

// Medication returns the owned medication with the given name, or nil.
func (o *Owner) Medication(name string) *Medication {
	return o.MedicationByName(name, false)
}

// MedicationByName looks a medication up case-insensitively. When ignoreNew is
// set, medications that have not been saved yet are skipped.
func (o *Owner) MedicationByName(name string, ignoreNew bool) *Medication {
	for _, m := range o.medications {
		if ignoreNew && m.IsNew() {
			continue
		}
		if strings.EqualFold(m.Name, name) {
			return m
		}
	}
	return nil
}

type Medication struct {
	ID             int
	Name           string
	ExpirationDate time.Time
	Type           *MedicationType
	Owner          *Owner

	prescriptions []*Prescription
}

func (m *Medication) IsNew() bool { return IsNew(m.ID) }

// Prescriptions returns the medication's prescriptions, newest first.
func (m *Medication) Prescriptions() []*Prescription {
	out := make([]*Prescription, len(m.prescriptions))
	copy(out, m.prescriptions)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// AddPrescription attaches p to the medication and points p back at it.
func (m *Medication) AddPrescription(p *Prescription) {
	p.Medication = m
	m.prescriptions = append(m.prescriptions, p)
}

func (m *Medication) SetPrescriptions(ps []*Prescription) {
	m.prescriptions = nil
	for _, p := range ps {
		m.AddPrescription(p)
	}
}

type MedicationType struct {
	ID   int
	Name string
}

func (t *MedicationType) IsNew() bool { return IsNew(t.ID) }

type Prescription struct {
	ID          int
	Date        time.Time
	Description string
	Medication  *Medication
}

// NewPrescription returns a transient prescription dated today.
func NewPrescription() *Prescription {
	return &Prescription{Date: Today()}
}

func (p *Prescription) IsNew() bool { return IsNew(p.ID) }

// EnsureDate fills a missing date with today and normalises it to a calendar day.
func (p *Prescription) EnsureDate() {
	if p.Date.IsZero() {
		p.Date = Today()
		return
	}
	p.Date = DateOf(p.Date)
}

type Prescriber struct {
	ID        int
	FirstName string
	LastName  string

	specialties []*Specialty
}

func (p *Prescriber) IsNew() bool { return IsNew(p.ID) }

// Specialties returns the prescriber's specialties sorted by name.
func (p *Prescriber) Specialties() []*Specialty {
	out := make([]*Specialty, len(p.specialties))
	copy(out, p.specialties)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// AddSpecialty adds s unless a specialty with the same identity is already present.
func (p *Prescriber) AddSpecialty(s *Specialty) {
	for _, existing := range p.specialties {
		if existing == s || (!s.IsNew() && existing.ID == s.ID) {
			return
		}
	}
	p.specialties = append(p.specialties, s)
}

// SetSpecialties replaces the whole specialty set.
func (p *Prescriber) SetSpecialties(ss []*Specialty) {
	p.specialties = nil
	for _, s := range ss {
		p.AddSpecialty(s)
	}
}

func (p *Prescriber) NrOfSpecialties() int { return len(p.specialties) }

type Specialty struct {
	ID   int
	Name string
}

func (s *Specialty) IsNew() bool { return IsNew(s.ID) }

// User is a login profile. Username is its identity.
type User struct {
	Username string
	Password string
	Enabled  bool
	Roles    []string
}
