package clinic

import (
	"testing"
	"time"
)

func TestOwner_MedicationsSortedByNameIgnoringCase(t *testing.T) {
	o := &Owner{ID: 1}
	for _, name := range []string{"max", "Basil", "leo", "Iggy"} {
		o.AddMedication(&Medication{Name: name})
	}

	got := o.Medications()
	want := []string{"Basil", "Iggy", "leo", "max"}
	if len(got) != len(want) {
		t.Fatalf("expected %d medications, got %d", len(want), len(got))
	}
	for i, m := range got {
		if m.Name != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], m.Name)
		}
		if m.Owner != o {
			t.Errorf("expected %s to point back at its owner", m.Name)
		}
	}
}

func TestOwner_MedicationsIsSnapshot(t *testing.T) {
	o := &Owner{}
	o.AddMedication(&Medication{Name: "Leo"})

	snap := o.Medications()
	snap[0] = &Medication{Name: "Intruder"}
	_ = append(snap, &Medication{Name: "Extra"})

	if got := o.Medications(); len(got) != 1 || got[0].Name != "Leo" {
		t.Errorf("mutating the snapshot changed the owner: %+v", got)
	}
}

func TestOwner_SetMedicationsReplaces(t *testing.T) {
	o := &Owner{}
	o.AddMedication(&Medication{Name: "Leo"})
	o.SetMedications([]*Medication{{Name: "Rosy"}, {Name: "Jewel"}})

	got := o.Medications()
	if len(got) != 2 || got[0].Name != "Jewel" || got[1].Name != "Rosy" {
		t.Errorf("unexpected medications after SetMedications: %v", names(got))
	}
}

func TestOwner_MedicationByName(t *testing.T) {
	o := &Owner{ID: 1}
	saved := &Medication{ID: 3, Name: "Rosy"}
	transient := &Medication{Name: "Jewel"}
	o.AddMedication(saved)
	o.AddMedication(transient)

	if m := o.Medication("rOSY"); m != saved {
		t.Errorf("expected case-insensitive match for Rosy, got %v", m)
	}
	if m := o.MedicationByName("jewel", false); m != transient {
		t.Errorf("expected transient Jewel when not ignoring new, got %v", m)
	}
	if m := o.MedicationByName("jewel", true); m != nil {
		t.Errorf("expected nil when ignoring new, got %v", m)
	}
	if m := o.Medication("Unknown"); m != nil {
		t.Errorf("expected nil for unknown name, got %v", m)
	}
}

func TestMedication_PrescriptionsNewestFirst(t *testing.T) {
	m := &Medication{ID: 8}
	m.AddPrescription(&Prescription{ID: 1, Date: day(2013, time.January, 2)})
	m.AddPrescription(&Prescription{ID: 2, Date: day(2013, time.January, 3)})
	m.AddPrescription(&Prescription{ID: 3, Date: day(2012, time.December, 30)})

	got := m.Prescriptions()
	want := []int{2, 1, 3}
	for i, p := range got {
		if p.ID != want[i] {
			t.Errorf("position %d: expected prescription %d, got %d", i, want[i], p.ID)
		}
		if p.Medication != m {
			t.Errorf("expected prescription %d to point back at its medication", p.ID)
		}
	}
}

func TestPrescription_Dates(t *testing.T) {
	p := NewPrescription()
	if !p.Date.Equal(Today()) {
		t.Errorf("expected new prescription dated today, got %v", p.Date)
	}

	zero := &Prescription{}
	zero.EnsureDate()
	if !zero.Date.Equal(Today()) {
		t.Errorf("expected zero date to default to today, got %v", zero.Date)
	}

	withClock := &Prescription{Date: time.Date(2013, time.January, 4, 17, 30, 0, 0, time.UTC)}
	withClock.EnsureDate()
	if !withClock.Date.Equal(day(2013, time.January, 4)) {
		t.Errorf("expected clock to be stripped, got %v", withClock.Date)
	}
}

func TestPrescriber_Specialties(t *testing.T) {
	surgery := &Specialty{ID: 2, Name: "surgery"}
	dentistry := &Specialty{ID: 3, Name: "dentistry"}

	p := &Prescriber{}
	p.AddSpecialty(surgery)
	p.AddSpecialty(dentistry)
	p.AddSpecialty(&Specialty{ID: 2, Name: "surgery"})

	if p.NrOfSpecialties() != 2 {
		t.Fatalf("expected duplicate identity to be ignored, got %d specialties", p.NrOfSpecialties())
	}
	got := p.Specialties()
	if got[0].Name != "dentistry" || got[1].Name != "surgery" {
		t.Errorf("expected specialties sorted by name, got %s, %s", got[0].Name, got[1].Name)
	}

	p.SetSpecialties([]*Specialty{{ID: 1, Name: "radiology"}})
	if p.NrOfSpecialties() != 1 || p.Specialties()[0].Name != "radiology" {
		t.Errorf("expected SetSpecialties to replace the set")
	}
}

func TestDateOf(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	got := DateOf(time.Date(2013, time.January, 4, 1, 0, 0, 0, loc))
	if !got.Equal(day(2013, time.January, 4)) {
		t.Errorf("expected the calendar day in the source location, got %v", got)
	}
	if !DateOf(time.Time{}).IsZero() {
		t.Error("expected zero time to stay zero")
	}
}

func names(ms []*Medication) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Name
	}
	return out
}
