// Package persistencetest holds the behavioural suite every clinic backend
// must pass. Each backend test calls Run with a factory that yields an empty,
// migrated store.
package persistencetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
)

// Factory returns a fresh backend with an empty schema. It should register
// its own cleanup with t.
type Factory func(t *testing.T) clinic.Backend

type fixture struct {
	ctx     context.Context
	backend clinic.Backend
	svc     *clinic.Service
}

func setup(t *testing.T, open Factory) fixture {
	t.Helper()
	ctx := context.Background()
	b := open(t)
	svc := clinic.NewService(b, clinic.WithPasswordCost(bcrypt.MinCost))
	require.NoError(t, clinic.LoadSampleData(ctx, svc))
	return fixture{ctx: ctx, backend: b, svc: svc}
}

func (f fixture) owner(t *testing.T, id int) *clinic.Owner {
	t.Helper()
	o, err := f.svc.FindOwnerByID(f.ctx, id)
	require.NoError(t, err)
	require.NotNil(t, o, "owner %d", id)
	return o
}

func (f fixture) medication(t *testing.T, id int) *clinic.Medication {
	t.Helper()
	m, err := f.svc.FindMedicationByID(f.ctx, id)
	require.NoError(t, err)
	require.NotNil(t, m, "medication %d", id)
	return m
}

func (f fixture) prescriber(t *testing.T, id int) *clinic.Prescriber {
	t.Helper()
	p, err := f.svc.FindPrescriberByID(f.ctx, id)
	require.NoError(t, err)
	require.NotNil(t, p, "prescriber %d", id)
	return p
}

func (f fixture) countOwners(t *testing.T) int {
	t.Helper()
	owners, err := f.svc.FindAllOwners(f.ctx)
	require.NoError(t, err)
	return len(owners)
}

func (f fixture) countMedications(t *testing.T) int {
	t.Helper()
	meds, err := f.svc.FindAllMedications(f.ctx)
	require.NoError(t, err)
	return len(meds)
}

func (f fixture) prescription(t *testing.T, id int) *clinic.Prescription {
	t.Helper()
	p, err := f.svc.FindPrescriptionByID(f.ctx, id)
	require.NoError(t, err)
	require.NotNil(t, p, "prescription %d", id)
	return p
}

func (f fixture) countPrescriptions(t *testing.T) int {
	t.Helper()
	ps, err := f.svc.FindAllPrescriptions(f.ctx)
	require.NoError(t, err)
	return len(ps)
}

func (f fixture) medicationType(t *testing.T, name string) *clinic.MedicationType {
	t.Helper()
	ty, err := f.svc.FindMedicationTypeByName(f.ctx, name)
	require.NoError(t, err)
	require.NotNil(t, ty, "type %q", name)
	return ty
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func medicationNames(ms []*clinic.Medication) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Name
	}
	return out
}

func specialtyNames(ss []*clinic.Specialty) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.Name
	}
	return out
}

// Run executes the whole suite against the backend produced by open.
func Run(t *testing.T, open Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, f fixture)
	}{
		{"InsertOwnerAssignsID", testInsertOwnerAssignsID},
		{"UpdateOwnerKeepsCount", testUpdateOwnerKeepsCount},
		{"UpdateMissingOwnerIsNotFound", testUpdateMissingOwnerIsNotFound},
		{"FindOwnerWithMedication", testFindOwnerWithMedication},
		{"OwnerMedicationsSorted", testOwnerMedicationsSorted},
		{"FindOwnersByLastNamePrefix", testFindOwnersByLastNamePrefix},
		{"MissingOwnerIsNil", testMissingOwnerIsNil},
		{"DeleteOwnerCascades", testDeleteOwnerCascades},
		{"FindMedicationGraph", testFindMedicationGraph},
		{"InsertMedicationRoundTrip", testInsertMedicationRoundTrip},
		{"UpdateMedicationKeepsCount", testUpdateMedicationKeepsCount},
		{"MedicationWithoutOwnerRejected", testMedicationWithoutOwnerRejected},
		{"DeleteMedicationRemovesPrescriptions", testDeleteMedicationRemovesPrescriptions},
		{"FindMedicationTypesSorted", testFindMedicationTypesSorted},
		{"FindMedicationTypeByName", testFindMedicationTypeByName},
		{"SaveMedicationTypeRoundTrip", testSaveMedicationTypeRoundTrip},
		{"DeleteMedicationTypeCascades", testDeleteMedicationTypeCascades},
		{"PrescriptionsByMedicationNewestFirst", testPrescriptionsByMedicationNewestFirst},
		{"FindPrescriptionResolvesMedication", testFindPrescriptionResolvesMedication},
		{"InsertPrescriptionRoundTrip", testInsertPrescriptionRoundTrip},
		{"UpdatePrescriptionKeepsCount", testUpdatePrescriptionKeepsCount},
		{"PrescriptionDefaultsToToday", testPrescriptionDefaultsToToday},
		{"PrescriptionWithMissingMedicationRejected", testPrescriptionWithMissingMedicationRejected},
		{"PrescribersOrderedByName", testPrescribersOrderedByName},
		{"UpdatePrescriberKeepsCount", testUpdatePrescriberKeepsCount},
		{"PrescriberSpecialtySetReplaced", testPrescriberSpecialtySetReplaced},
		{"DeletePrescriber", testDeletePrescriber},
		{"FindSpecialtiesByNames", testFindSpecialtiesByNames},
		{"SaveSpecialtyRoundTrip", testSaveSpecialtyRoundTrip},
		{"DeleteSpecialtyRemovesLinks", testDeleteSpecialtyRemovesLinks},
		{"Users", testUsers},
		{"TransactionRollback", testTransactionRollback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, setup(t, open))
		})
	}
}

func testInsertOwnerAssignsID(t *testing.T, f fixture) {
	before := f.countOwners(t)
	o := &clinic.Owner{FirstName: "Sam", LastName: "Schultz", Address: "4, Evans Street", City: "Wollongong", Telephone: "4444444444"}
	require.NoError(t, f.svc.SaveOwner(f.ctx, o))
	require.False(t, o.IsNew())
	require.Equal(t, before+1, f.countOwners(t))

	got := f.owner(t, o.ID)
	require.Equal(t, clinic.OwnerRowOf(o), clinic.OwnerRowOf(got))
	require.Empty(t, got.Medications())
}

func testUpdateOwnerKeepsCount(t *testing.T, f fixture) {
	before := f.countOwners(t)
	o := f.owner(t, 1)
	o.LastName = "Franklin-Smith"
	require.NoError(t, f.svc.SaveOwner(f.ctx, o))
	require.Equal(t, before, f.countOwners(t))
	require.Equal(t, "Franklin-Smith", f.owner(t, 1).LastName)
}

func testUpdateMissingOwnerIsNotFound(t *testing.T, f fixture) {
	err := f.svc.SaveOwner(f.ctx, &clinic.Owner{ID: 999, FirstName: "No", LastName: "Body"})
	require.ErrorIs(t, err, clinic.ErrNotFound)
}

func testFindOwnerWithMedication(t *testing.T, f fixture) {
	o := f.owner(t, 1)
	require.Equal(t, "Franklin", o.LastName)
	require.Equal(t, "110 W. Liberty St.", o.Address)

	meds := o.Medications()
	require.Len(t, meds, 1)
	leo := meds[0]
	require.Equal(t, "Leo", leo.Name)
	require.NotNil(t, leo.Type)
	require.Equal(t, "cat", leo.Type.Name)
	require.Same(t, o, leo.Owner)
	require.True(t, leo.ExpirationDate.Equal(time.Date(2010, time.September, 7, 0, 0, 0, 0, time.UTC)))
	require.Same(t, leo, o.Medication("leo"))
}

func testOwnerMedicationsSorted(t *testing.T, f fixture) {
	require.Equal(t, []string{"Max", "Samantha"}, medicationNames(f.owner(t, 6).Medications()))

	estaban := f.owner(t, 10)
	dog, err := f.svc.FindMedicationTypeByName(f.ctx, "dog")
	require.NoError(t, err)
	m := &clinic.Medication{Name: "aspirin", Type: dog}
	estaban.AddMedication(m)
	require.NoError(t, f.svc.SaveMedication(f.ctx, m))

	require.Equal(t, []string{"aspirin", "Lucky", "Sly"}, medicationNames(f.owner(t, 10).Medications()))
}

func testFindOwnersByLastNamePrefix(t *testing.T, f fixture) {
	require.NoError(t, f.svc.SaveOwner(f.ctx, &clinic.Owner{FirstName: "Ann", LastName: "Davison"}))

	owners, err := f.svc.FindOwnersByLastName(f.ctx, "Davis")
	require.NoError(t, err)
	require.Len(t, owners, 3)
	for _, o := range owners {
		if o.LastName == "Davis" {
			require.NotEmpty(t, o.Medications(), "owner %d", o.ID)
		}
	}

	for _, prefix := range []string{"D_vis", "Dav%", "davis", "Zzz"} {
		owners, err = f.svc.FindOwnersByLastName(f.ctx, prefix)
		require.NoError(t, err)
		require.Empty(t, owners, "prefix %q", prefix)
	}

	owners, err = f.svc.FindOwnersByLastName(f.ctx, "")
	require.NoError(t, err)
	require.Len(t, owners, 11)
}

func testMissingOwnerIsNil(t *testing.T, f fixture) {
	o, err := f.svc.FindOwnerByID(f.ctx, 999)
	require.NoError(t, err)
	require.Nil(t, o)

	_, err = f.backend.Owners().FindByID(f.ctx, 999)
	require.ErrorIs(t, err, clinic.ErrNotFound)
}

func testDeleteOwnerCascades(t *testing.T, f fixture) {
	coleman := f.owner(t, 6)
	require.NoError(t, f.svc.DeleteOwner(f.ctx, coleman))

	o, err := f.svc.FindOwnerByID(f.ctx, 6)
	require.NoError(t, err)
	require.Nil(t, o)
	for _, id := range []int{7, 8} {
		m, err := f.svc.FindMedicationByID(f.ctx, id)
		require.NoError(t, err)
		require.Nil(t, m, "medication %d", id)
	}
	for id := 1; id <= 4; id++ {
		p, err := f.svc.FindPrescriptionByID(f.ctx, id)
		require.NoError(t, err)
		require.Nil(t, p, "prescription %d", id)
	}
	require.Equal(t, 11, f.countMedications(t))
	require.Equal(t, 9, f.countOwners(t))
}

func testFindMedicationGraph(t *testing.T, f fixture) {
	maxMed := f.medication(t, 8)
	require.Equal(t, "Max", maxMed.Name)
	require.Equal(t, "cat", maxMed.Type.Name)
	require.Equal(t, 6, maxMed.Owner.ID)
	require.Equal(t, "Coleman", maxMed.Owner.LastName)

	ps := maxMed.Prescriptions()
	require.Len(t, ps, 2)
	require.Equal(t, "neutered", ps[0].Description)
	require.Equal(t, "rabies shot", ps[1].Description)
	require.Same(t, maxMed, ps[0].Medication)

	all, err := f.svc.FindAllMedications(f.ctx)
	require.NoError(t, err)
	require.Len(t, all, 13)

	m, err := f.svc.FindMedicationByID(f.ctx, 999)
	require.NoError(t, err)
	require.Nil(t, m)
}

func testInsertMedicationRoundTrip(t *testing.T, f fixture) {
	before := f.countMedications(t)
	m := &clinic.Medication{Name: "Rex", ExpirationDate: date(2021, time.March, 4), Type: f.medicationType(t, "dog")}
	f.owner(t, 3).AddMedication(m)
	require.NoError(t, f.svc.SaveMedication(f.ctx, m))
	require.False(t, m.IsNew())
	require.Equal(t, before+1, f.countMedications(t))

	got := f.medication(t, m.ID)
	require.Equal(t, clinic.MedicationRowOf(m), clinic.MedicationRowOf(got))
	require.Equal(t, "dog", got.Type.Name)
	require.Empty(t, got.Prescriptions())
	require.NotNil(t, f.owner(t, 3).Medication("rex"))
}

func testUpdateMedicationKeepsCount(t *testing.T, f fixture) {
	before := f.countMedications(t)
	m := f.medication(t, 8)
	m.Name = "Maxwell"
	m.ExpirationDate = date(2014, time.May, 6)
	m.Type = f.medicationType(t, "dog")
	require.NoError(t, f.svc.SaveMedication(f.ctx, m))
	require.Equal(t, before, f.countMedications(t))

	got := f.medication(t, 8)
	require.Equal(t, clinic.MedicationRowOf(m), clinic.MedicationRowOf(got))
	require.Equal(t, "dog", got.Type.Name)
	require.Equal(t, "Coleman", got.Owner.LastName)
	require.Len(t, got.Prescriptions(), 2)
}

func testMedicationWithoutOwnerRejected(t *testing.T, f fixture) {
	before := f.countMedications(t)
	cat, err := f.svc.FindMedicationTypeByID(f.ctx, 1)
	require.NoError(t, err)

	err = f.svc.SaveMedication(f.ctx, &clinic.Medication{Name: "Orphan", Type: cat})
	require.ErrorIs(t, err, clinic.ErrConstraintViolation)

	err = f.svc.SaveMedication(f.ctx, &clinic.Medication{Name: "Typeless", Owner: f.owner(t, 1)})
	require.ErrorIs(t, err, clinic.ErrConstraintViolation)
	require.Equal(t, before, f.countMedications(t))
}

func testDeleteMedicationRemovesPrescriptions(t *testing.T, f fixture) {
	require.NoError(t, f.svc.DeleteMedication(f.ctx, f.medication(t, 7)))

	all, err := f.svc.FindAllPrescriptions(f.ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, p := range all {
		require.Equal(t, 8, p.Medication.ID)
	}
	require.Equal(t, []string{"Max"}, medicationNames(f.owner(t, 6).Medications()))
}

func testFindMedicationTypesSorted(t *testing.T, f fixture) {
	types, err := f.svc.FindMedicationTypes(f.ctx)
	require.NoError(t, err)
	names := make([]string, len(types))
	for i, ty := range types {
		names[i] = ty.Name
	}
	require.Equal(t, []string{"bird", "cat", "dog", "hamster", "lizard", "snake"}, names)

	all, err := f.svc.FindAllMedicationTypes(f.ctx)
	require.NoError(t, err)
	require.Len(t, all, 6)
}

func testFindMedicationTypeByName(t *testing.T, f fixture) {
	cat, err := f.svc.FindMedicationTypeByName(f.ctx, "cat")
	require.NoError(t, err)
	require.NotNil(t, cat)
	require.Equal(t, 1, cat.ID)

	for _, name := range []string{"Cat", "unknown", ""} {
		ty, err := f.svc.FindMedicationTypeByName(f.ctx, name)
		require.NoError(t, err)
		require.Nil(t, ty, "name %q", name)
	}
}

func testSaveMedicationTypeRoundTrip(t *testing.T, f fixture) {
	ferret := &clinic.MedicationType{Name: "ferret"}
	require.NoError(t, f.svc.SaveMedicationType(f.ctx, ferret))
	require.False(t, ferret.IsNew())
	got, err := f.svc.FindMedicationTypeByID(f.ctx, ferret.ID)
	require.NoError(t, err)
	require.Equal(t, ferret, got)

	lizard := f.medicationType(t, "lizard")
	lizard.Name = "iguana"
	require.NoError(t, f.svc.SaveMedicationType(f.ctx, lizard))
	got, err = f.svc.FindMedicationTypeByID(f.ctx, lizard.ID)
	require.NoError(t, err)
	require.Equal(t, lizard, got)

	all, err := f.svc.FindAllMedicationTypes(f.ctx)
	require.NoError(t, err)
	require.Len(t, all, 7)
}

func testDeleteMedicationTypeCascades(t *testing.T, f fixture) {
	cat, err := f.svc.FindMedicationTypeByID(f.ctx, 1)
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteMedicationType(f.ctx, cat))

	for _, id := range []int{1, 7, 8, 13} {
		m, err := f.svc.FindMedicationByID(f.ctx, id)
		require.NoError(t, err)
		require.Nil(t, m, "medication %d", id)
	}
	require.Equal(t, 9, f.countMedications(t))
	require.Empty(t, f.owner(t, 1).Medications())

	ps, err := f.svc.FindAllPrescriptions(f.ctx)
	require.NoError(t, err)
	require.Empty(t, ps)

	ty, err := f.svc.FindMedicationTypeByName(f.ctx, "cat")
	require.NoError(t, err)
	require.Nil(t, ty)
}

func testPrescriptionsByMedicationNewestFirst(t *testing.T, f fixture) {
	ps, err := f.svc.FindPrescriptionsByMedicationID(f.ctx, 8)
	require.NoError(t, err)
	require.Len(t, ps, 2)
	require.Equal(t, "neutered", ps[0].Description)
	require.True(t, ps[0].Date.Equal(time.Date(2013, time.January, 3, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, "rabies shot", ps[1].Description)
	require.True(t, ps[1].Date.Equal(time.Date(2013, time.January, 2, 0, 0, 0, 0, time.UTC)))

	ps, err = f.svc.FindPrescriptionsByMedicationID(f.ctx, 1)
	require.NoError(t, err)
	require.Empty(t, ps)
}

func testFindPrescriptionResolvesMedication(t *testing.T, f fixture) {
	p, err := f.svc.FindPrescriptionByID(f.ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, "rabies shot", p.Description)
	require.NotNil(t, p.Medication)
	require.Equal(t, 8, p.Medication.ID)
	require.Equal(t, 6, p.Medication.Owner.ID)

	missing, err := f.svc.FindPrescriptionByID(f.ctx, 999)
	require.NoError(t, err)
	require.Nil(t, missing)
}

func testInsertPrescriptionRoundTrip(t *testing.T, f fixture) {
	before := f.countPrescriptions(t)
	p := &clinic.Prescription{Date: date(2013, time.February, 10), Description: "dental cleaning"}
	f.medication(t, 3).AddPrescription(p)
	require.NoError(t, f.svc.SavePrescription(f.ctx, p))
	require.False(t, p.IsNew())
	require.Equal(t, before+1, f.countPrescriptions(t))

	got := f.prescription(t, p.ID)
	require.Equal(t, clinic.PrescriptionRowOf(p), clinic.PrescriptionRowOf(got))
}

func testUpdatePrescriptionKeepsCount(t *testing.T, f fixture) {
	before := f.countPrescriptions(t)
	p := f.prescription(t, 2)
	p.Description = "rabies booster"
	p.Date = date(2013, time.January, 5)
	require.NoError(t, f.svc.SavePrescription(f.ctx, p))
	require.Equal(t, before, f.countPrescriptions(t))

	got := f.prescription(t, 2)
	require.Equal(t, clinic.PrescriptionRowOf(p), clinic.PrescriptionRowOf(got))
	require.Equal(t, "rabies booster", f.medication(t, 8).Prescriptions()[0].Description)
}

func testPrescriptionDefaultsToToday(t *testing.T, f fixture) {
	p := &clinic.Prescription{Description: "checkup"}
	f.medication(t, 1).AddPrescription(p)
	require.NoError(t, f.svc.SavePrescription(f.ctx, p))
	require.False(t, p.IsNew())

	got, err := f.svc.FindPrescriptionByID(f.ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, got.Date.Equal(clinic.Today()), "got %v", got.Date)
	require.Equal(t, 1, got.Medication.ID)
}

func testPrescriptionWithMissingMedicationRejected(t *testing.T, f fixture) {
	p := &clinic.Prescription{Date: clinic.Today(), Description: "ghost", Medication: &clinic.Medication{ID: 999}}
	err := f.svc.SavePrescription(f.ctx, p)
	require.ErrorIs(t, err, clinic.ErrConstraintViolation)

	ps, err := f.svc.FindAllPrescriptions(f.ctx)
	require.NoError(t, err)
	require.Len(t, ps, 4)
}

func testPrescribersOrderedByName(t *testing.T, f fixture) {
	ps, err := f.svc.FindAllPrescribers(f.ctx)
	require.NoError(t, err)
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.LastName
	}
	require.Equal(t, []string{"Carter", "Douglas", "Jenkins", "Leary", "Ortega", "Stevens"}, names)

	require.Equal(t, 0, ps[0].NrOfSpecialties())
	require.Equal(t, []string{"dentistry", "surgery"}, specialtyNames(ps[1].Specialties()))

	again, err := f.svc.FindPrescribers(f.ctx)
	require.NoError(t, err)
	require.Len(t, again, 6)
}

func testUpdatePrescriberKeepsCount(t *testing.T, f fixture) {
	all, err := f.svc.FindAllPrescribers(f.ctx)
	require.NoError(t, err)

	douglas := f.prescriber(t, 3)
	douglas.FirstName = "Lindsay"
	douglas.LastName = "Douglas-Webb"
	require.NoError(t, f.svc.SavePrescriber(f.ctx, douglas))

	again, err := f.svc.FindAllPrescribers(f.ctx)
	require.NoError(t, err)
	require.Len(t, again, len(all))

	got := f.prescriber(t, 3)
	require.Equal(t, douglas.ID, got.ID)
	require.Equal(t, douglas.FirstName, got.FirstName)
	require.Equal(t, douglas.LastName, got.LastName)
	require.Equal(t, specialtyNames(douglas.Specialties()), specialtyNames(got.Specialties()))
	require.Equal(t, []string{"dentistry", "surgery"}, specialtyNames(got.Specialties()))
}

func testPrescriberSpecialtySetReplaced(t *testing.T, f fixture) {
	byName := func(names ...string) []*clinic.Specialty {
		ss, err := f.svc.FindSpecialtiesByNameIn(f.ctx, names)
		require.NoError(t, err)
		require.Len(t, ss, len(names))
		return ss
	}

	carter := f.prescriber(t, 1)
	carter.SetSpecialties(byName("radiology", "surgery"))
	require.NoError(t, f.svc.SavePrescriber(f.ctx, carter))
	require.Equal(t, []string{"radiology", "surgery"}, specialtyNames(f.prescriber(t, 1).Specialties()))

	carter = f.prescriber(t, 1)
	carter.SetSpecialties(byName("surgery", "dentistry"))
	carter.AddSpecialty(&clinic.Specialty{Name: "unsaved"})
	require.NoError(t, f.svc.SavePrescriber(f.ctx, carter))
	require.Equal(t, []string{"dentistry", "surgery"}, specialtyNames(f.prescriber(t, 1).Specialties()))

	p := &clinic.Prescriber{FirstName: "New", LastName: "Comer"}
	p.SetSpecialties(byName("radiology"))
	require.NoError(t, f.svc.SavePrescriber(f.ctx, p))
	require.False(t, p.IsNew())
	require.Equal(t, []string{"radiology"}, specialtyNames(f.prescriber(t, p.ID).Specialties()))
}

func testDeletePrescriber(t *testing.T, f fixture) {
	require.NoError(t, f.svc.DeletePrescriber(f.ctx, f.prescriber(t, 3)))

	p, err := f.svc.FindPrescriberByID(f.ctx, 3)
	require.NoError(t, err)
	require.Nil(t, p)

	ps, err := f.svc.FindAllPrescribers(f.ctx)
	require.NoError(t, err)
	require.Len(t, ps, 5)
}

func testFindSpecialtiesByNames(t *testing.T, f fixture) {
	ss, err := f.svc.FindSpecialtiesByNameIn(f.ctx, []string{"radiology", "Surgery"})
	require.NoError(t, err)
	require.Equal(t, []string{"radiology"}, specialtyNames(ss))

	ss, err = f.svc.FindSpecialtiesByNameIn(f.ctx, nil)
	require.NoError(t, err)
	require.Empty(t, ss)

	all, err := f.svc.FindAllSpecialties(f.ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func testSaveSpecialtyRoundTrip(t *testing.T, f fixture) {
	oncology := &clinic.Specialty{Name: "oncology"}
	require.NoError(t, f.svc.SaveSpecialty(f.ctx, oncology))
	require.False(t, oncology.IsNew())
	got, err := f.svc.FindSpecialtyByID(f.ctx, oncology.ID)
	require.NoError(t, err)
	require.Equal(t, oncology, got)

	radiology, err := f.svc.FindSpecialtyByID(f.ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, radiology)
	radiology.Name = "imaging"
	require.NoError(t, f.svc.SaveSpecialty(f.ctx, radiology))
	got, err = f.svc.FindSpecialtyByID(f.ctx, 1)
	require.NoError(t, err)
	require.Equal(t, radiology, got)

	all, err := f.svc.FindAllSpecialties(f.ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	require.Equal(t, []string{"imaging"}, specialtyNames(f.prescriber(t, 2).Specialties()))
}

func testDeleteSpecialtyRemovesLinks(t *testing.T, f fixture) {
	surgery, err := f.svc.FindSpecialtyByID(f.ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, surgery)
	require.NoError(t, f.svc.DeleteSpecialty(f.ctx, surgery))

	gone, err := f.svc.FindSpecialtyByID(f.ctx, 2)
	require.NoError(t, err)
	require.Nil(t, gone)
	require.Equal(t, []string{"dentistry"}, specialtyNames(f.prescriber(t, 3).Specialties()))
	require.Equal(t, 0, f.prescriber(t, 4).NrOfSpecialties())
}

func testUsers(t *testing.T, f fixture) {
	admin, err := f.svc.FindUserByUsername(f.ctx, "admin")
	require.NoError(t, err)
	require.NotNil(t, admin)
	require.True(t, admin.Enabled)
	require.Equal(t, []string{"ROLE_ADMIN", "ROLE_OWNER_ADMIN", "ROLE_PRESCRIBER_ADMIN"}, admin.Roles)
	require.True(t, admin.CheckPassword("admin"))

	admin.Roles = []string{"ADMIN"}
	admin.Enabled = false
	require.NoError(t, f.svc.SaveUser(f.ctx, admin))

	admin, err = f.svc.FindUserByUsername(f.ctx, "admin")
	require.NoError(t, err)
	require.False(t, admin.Enabled)
	require.Equal(t, []string{"ROLE_ADMIN"}, admin.Roles)
	require.True(t, admin.CheckPassword("admin"))

	nobody, err := f.svc.FindUserByUsername(f.ctx, "nobody")
	require.NoError(t, err)
	require.Nil(t, nobody)
}

func testTransactionRollback(t *testing.T, f fixture) {
	before := f.countOwners(t)
	abort := errors.New("abort")

	err := f.backend.InTx(f.ctx, clinic.TxReadWrite, func(ctx context.Context) error {
		if err := f.backend.Owners().Save(ctx, &clinic.Owner{FirstName: "Temp", LastName: "Owner"}); err != nil {
			return err
		}
		if err := f.backend.Owners().Delete(ctx, &clinic.Owner{ID: 6}); err != nil {
			return err
		}
		return abort
	})
	require.ErrorIs(t, err, abort)
	require.Equal(t, before, f.countOwners(t))
	require.Len(t, f.owner(t, 6).Medications(), 2)
}
