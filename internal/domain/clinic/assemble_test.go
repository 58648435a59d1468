package clinic

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

type medicationFixture struct {
	owners        []*Owner
	types         []*MedicationType
	medications   []MedicationRow
	prescriptions []PrescriptionRow
}

func newMedicationFixture() medicationFixture {
	return medicationFixture{
		owners: []*Owner{
			{ID: 6, FirstName: "Jean", LastName: "Coleman"},
			{ID: 10, FirstName: "Carlos", LastName: "Estaban"},
		},
		types: []*MedicationType{{ID: 1, Name: "cat"}, {ID: 2, Name: "dog"}},
		medications: []MedicationRow{
			{ID: 7, Name: "Samantha", ExpirationDate: day(2012, time.September, 4), TypeID: 1, OwnerID: 6},
			{ID: 8, Name: "Max", ExpirationDate: day(2012, time.September, 4), TypeID: 1, OwnerID: 6},
			{ID: 12, Name: "Lucky", ExpirationDate: day(2010, time.June, 24), TypeID: 2, OwnerID: 10},
		},
		prescriptions: []PrescriptionRow{
			{ID: 1, MedicationID: 7, Date: day(2013, time.January, 1), Description: "rabies shot"},
			{ID: 4, MedicationID: 7, Date: day(2013, time.January, 4), Description: "spayed"},
			{ID: 2, MedicationID: 8, Date: day(2013, time.January, 2), Description: "rabies shot"},
			{ID: 3, MedicationID: 8, Date: day(2013, time.January, 3), Description: "neutered"},
		},
	}
}

// joined mimics medications LEFT JOIN prescriptions ordered by medication id.
func (f medicationFixture) joined() []MedicationPrescriptionRow {
	var rows []MedicationPrescriptionRow
	for _, m := range f.medications {
		matched := false
		for _, p := range f.prescriptions {
			if p.MedicationID != m.ID {
				continue
			}
			p := p
			rows = append(rows, MedicationPrescriptionRow{Medication: m, Prescription: &p})
			matched = true
		}
		if !matched {
			rows = append(rows, MedicationPrescriptionRow{Medication: m})
		}
	}
	return rows
}

func (f medicationFixture) prescriptionsOf(id int) []PrescriptionRow {
	var out []PrescriptionRow
	for _, p := range f.prescriptions {
		if p.MedicationID == id {
			out = append(out, p)
		}
	}
	return out
}

func TestExtractMedications_GroupsJoinedRows(t *testing.T) {
	f := newMedicationFixture()
	meds, err := ExtractMedications(f.joined(), IndexOwners(f.owners), IndexTypes(f.types))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(meds) != 3 {
		t.Fatalf("expected 3 medications, got %d", len(meds))
	}
	wantOrder := []string{"Samantha", "Max", "Lucky"}
	for i, m := range meds {
		if m.Name != wantOrder[i] {
			t.Errorf("position %d: expected %s, got %s", i, wantOrder[i], m.Name)
		}
	}
	if n := len(meds[0].Prescriptions()); n != 2 {
		t.Errorf("expected Samantha to have 2 prescriptions, got %d", n)
	}
	if n := len(meds[2].Prescriptions()); n != 0 {
		t.Errorf("expected LEFT JOIN null row to add no prescription, got %d", n)
	}
	if meds[1].Type.Name != "cat" || meds[2].Type.Name != "dog" {
		t.Errorf("types not resolved: %s, %s", meds[1].Type.Name, meds[2].Type.Name)
	}
	if meds[0].Owner.LastName != "Coleman" {
		t.Errorf("expected owner Coleman, got %s", meds[0].Owner.LastName)
	}
	if got := meds[1].Prescriptions()[0].Description; got != "neutered" {
		t.Errorf("expected newest prescription first, got %s", got)
	}
}

func TestExtractAndAssemble_ProduceSameGraph(t *testing.T) {
	f := newMedicationFixture()
	extracted, err := ExtractMedications(f.joined(), IndexOwners(f.owners), IndexTypes(f.types))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	// Fresh reference objects so both graphs are built independently.
	g := newMedicationFixture()
	owners, types := IndexOwners(g.owners), IndexTypes(g.types)
	var assembled []*Medication
	for _, row := range g.medications {
		m, err := AssembleMedication(row, g.prescriptionsOf(row.ID), owners, types)
		if err != nil {
			t.Fatalf("assemble: %v", err)
		}
		assembled = append(assembled, m)
	}

	if !reflect.DeepEqual(extracted, assembled) {
		t.Errorf("join extraction and per-parent assembly differ:\n%+v\n%+v", extracted, assembled)
	}
}

func TestExtractMedications_MissingTypeIsReferentialIntegrityError(t *testing.T) {
	f := newMedicationFixture()
	_, err := ExtractMedications(f.joined(), IndexOwners(f.owners), IndexTypes(f.types[:1]))
	if !errors.Is(err, ErrReferentialIntegrity) {
		t.Fatalf("expected referential integrity error, got %v", err)
	}
	var rie *ReferentialIntegrityError
	if !errors.As(err, &rie) {
		t.Fatalf("expected *ReferentialIntegrityError, got %T", err)
	}
	if rie.Entity != "medication" || rie.ID != 12 || rie.Ref != "medication type" || rie.RefID != 2 {
		t.Errorf("unexpected error detail: %+v", rie)
	}
}

func TestAssembleMedication_MissingOwner(t *testing.T) {
	f := newMedicationFixture()
	_, err := AssembleMedication(f.medications[0], nil, IndexOwners(nil), IndexTypes(f.types))
	if !errors.Is(err, ErrReferentialIntegrity) {
		t.Fatalf("expected referential integrity error, got %v", err)
	}
}

func TestAttachMedications(t *testing.T) {
	f := newMedicationFixture()
	meds, err := ExtractMedications(f.joined(), IndexOwners(f.owners), IndexTypes(f.types))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	AttachMedications(meds)

	coleman := f.owners[0]
	got := coleman.Medications()
	if len(got) != 2 || got[0].Name != "Max" || got[1].Name != "Samantha" {
		t.Errorf("unexpected medications for Coleman: %v", names(got))
	}
	if len(f.owners[1].Medications()) != 1 {
		t.Errorf("expected Estaban to have 1 medication")
	}
}

func TestResolvePrescriptions(t *testing.T) {
	f := newMedicationFixture()
	meds, err := ExtractMedications(f.joined(), IndexOwners(f.owners), IndexTypes(f.types))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ps, err := ResolvePrescriptions(f.prescriptions, IndexMedications(meds))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ps) != 4 {
		t.Fatalf("expected 4 prescriptions, got %d", len(ps))
	}
	if ps[2].Medication.Name != "Max" {
		t.Errorf("expected prescription 2 to belong to Max, got %s", ps[2].Medication.Name)
	}

	orphan := []PrescriptionRow{{ID: 9, MedicationID: 99}}
	if _, err := ResolvePrescriptions(orphan, IndexMedications(meds)); !errors.Is(err, ErrReferentialIntegrity) {
		t.Errorf("expected referential integrity error, got %v", err)
	}
}

func TestExtractPrescribers(t *testing.T) {
	specialties := []*Specialty{{ID: 1, Name: "radiology"}, {ID: 2, Name: "surgery"}, {ID: 3, Name: "dentistry"}}
	two, three := 2, 3
	rows := []PrescriberSpecialtyRow{
		{Prescriber: PrescriberRow{ID: 1, FirstName: "James", LastName: "Carter"}},
		{Prescriber: PrescriberRow{ID: 3, FirstName: "Linda", LastName: "Douglas"}, SpecialtyID: &two},
		{Prescriber: PrescriberRow{ID: 3, FirstName: "Linda", LastName: "Douglas"}, SpecialtyID: &three},
	}

	got, err := ExtractPrescribers(rows, IndexSpecialties(specialties))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 prescribers, got %d", len(got))
	}
	if got[0].NrOfSpecialties() != 0 {
		t.Errorf("expected Carter without specialties")
	}
	specs := got[1].Specialties()
	if len(specs) != 2 || specs[0].Name != "dentistry" || specs[1].Name != "surgery" {
		t.Errorf("unexpected specialties for Douglas: %+v", specs)
	}

	assembled, err := AssemblePrescriber(rows[1].Prescriber, []int{2, 3}, IndexSpecialties(specialties))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(assembled, got[1]) {
		t.Errorf("assembled prescriber differs from extracted one")
	}

	missing := 7
	bad := []PrescriberSpecialtyRow{{Prescriber: PrescriberRow{ID: 4}, SpecialtyID: &missing}}
	if _, err := ExtractPrescribers(bad, IndexSpecialties(specialties)); !errors.Is(err, ErrReferentialIntegrity) {
		t.Errorf("expected referential integrity error, got %v", err)
	}
}

func TestGroupRows_PreservesFirstSeenOrder(t *testing.T) {
	rows := []int{30, 10, 30, 20, 10}
	groups := groupRows(rows, func(r int) int { return r })
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	want := []struct{ key, n int }{{30, 2}, {10, 2}, {20, 1}}
	for i, g := range groups {
		if g.key != want[i].key || len(g.rows) != want[i].n {
			t.Errorf("group %d: expected key %d with %d rows, got key %d with %d rows", i, want[i].key, want[i].n, g.key, len(g.rows))
		}
	}
}
