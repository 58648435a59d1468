package clinic

import (
	"context"
	"fmt"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// LoadSampleData stores the demo clinic through svc. On an empty store the
// generated identities are stable: types, owners, medications, prescriptions,
// specialties and prescribers are numbered from 1 in the order listed here.
func LoadSampleData(ctx context.Context, svc *Service) error {
	types := map[string]*MedicationType{}
	for _, name := range []string{"cat", "dog", "lizard", "snake", "bird", "hamster"} {
		t := &MedicationType{Name: name}
		if err := svc.SaveMedicationType(ctx, t); err != nil {
			return fmt.Errorf("save medication type %s: %w", name, err)
		}
		types[name] = t
	}

	owners := []*Owner{
		{FirstName: "George", LastName: "Franklin", Address: "110 W. Liberty St.", City: "Madison", Telephone: "6085551023"},
		{FirstName: "Betty", LastName: "Davis", Address: "638 Cardinal Ave.", City: "Sun Prairie", Telephone: "6085551749"},
		{FirstName: "Eduardo", LastName: "Rodriquez", Address: "2693 Commerce St.", City: "McFarland", Telephone: "6085558763"},
		{FirstName: "Harold", LastName: "Davis", Address: "563 Friendly St.", City: "Windsor", Telephone: "6085553198"},
		{FirstName: "Peter", LastName: "McTavish", Address: "2387 S. Fair Way", City: "Madison", Telephone: "6085552765"},
		{FirstName: "Jean", LastName: "Coleman", Address: "105 N. Lake St.", City: "Monona", Telephone: "6085552654"},
		{FirstName: "Jeff", LastName: "Black", Address: "1450 Oak Blvd.", City: "Monona", Telephone: "6085555387"},
		{FirstName: "Maria", LastName: "Escobito", Address: "345 Maple St.", City: "Madison", Telephone: "6085557683"},
		{FirstName: "David", LastName: "Schroeder", Address: "2749 Blackhawk Trail", City: "Madison", Telephone: "6085559435"},
		{FirstName: "Carlos", LastName: "Estaban", Address: "2335 Independence La.", City: "Waunakee", Telephone: "6085555487"},
	}
	for _, o := range owners {
		if err := svc.SaveOwner(ctx, o); err != nil {
			return fmt.Errorf("save owner %s: %w", o.LastName, err)
		}
	}

	meds := []struct {
		name    string
		expires time.Time
		typ     string
		owner   int
	}{
		{"Leo", day(2010, time.September, 7), "cat", 0},
		{"Basil", day(2012, time.August, 6), "hamster", 1},
		{"Rosy", day(2011, time.April, 17), "dog", 2},
		{"Jewel", day(2010, time.March, 7), "dog", 2},
		{"Iggy", day(2010, time.November, 30), "lizard", 3},
		{"George", day(2010, time.January, 20), "snake", 4},
		{"Samantha", day(2012, time.September, 4), "cat", 5},
		{"Max", day(2012, time.September, 4), "cat", 5},
		{"Lucky", day(2011, time.August, 6), "bird", 6},
		{"Mulligan", day(2007, time.February, 24), "dog", 7},
		{"Freddy", day(2010, time.March, 9), "bird", 8},
		{"Lucky", day(2010, time.June, 24), "dog", 9},
		{"Sly", day(2012, time.June, 8), "cat", 9},
	}
	saved := make([]*Medication, 0, len(meds))
	for _, md := range meds {
		m := &Medication{Name: md.name, ExpirationDate: md.expires, Type: types[md.typ]}
		owners[md.owner].AddMedication(m)
		if err := svc.SaveMedication(ctx, m); err != nil {
			return fmt.Errorf("save medication %s: %w", md.name, err)
		}
		saved = append(saved, m)
	}

	prescriptions := []struct {
		med  int
		date time.Time
		desc string
	}{
		{6, day(2013, time.January, 1), "rabies shot"},
		{7, day(2013, time.January, 2), "rabies shot"},
		{7, day(2013, time.January, 3), "neutered"},
		{6, day(2013, time.January, 4), "spayed"},
	}
	for _, pd := range prescriptions {
		p := &Prescription{Date: pd.date, Description: pd.desc}
		saved[pd.med].AddPrescription(p)
		if err := svc.SavePrescription(ctx, p); err != nil {
			return fmt.Errorf("save prescription %q: %w", pd.desc, err)
		}
	}

	specialties := map[string]*Specialty{}
	for _, name := range []string{"radiology", "surgery", "dentistry"} {
		sp := &Specialty{Name: name}
		if err := svc.SaveSpecialty(ctx, sp); err != nil {
			return fmt.Errorf("save specialty %s: %w", name, err)
		}
		specialties[name] = sp
	}

	prescribers := []struct {
		first, last string
		specs       []string
	}{
		{"James", "Carter", nil},
		{"Helen", "Leary", []string{"radiology"}},
		{"Linda", "Douglas", []string{"surgery", "dentistry"}},
		{"Rafael", "Ortega", []string{"surgery"}},
		{"Henry", "Stevens", []string{"radiology"}},
		{"Sharon", "Jenkins", nil},
	}
	for _, pd := range prescribers {
		p := &Prescriber{FirstName: pd.first, LastName: pd.last}
		for _, name := range pd.specs {
			p.AddSpecialty(specialties[name])
		}
		if err := svc.SavePrescriber(ctx, p); err != nil {
			return fmt.Errorf("save prescriber %s: %w", pd.last, err)
		}
	}

	admin := &User{Username: "admin", Password: "admin", Enabled: true, Roles: []string{"OWNER_ADMIN", "PRESCRIBER_ADMIN", "ADMIN"}}
	if err := svc.SaveUser(ctx, admin); err != nil {
		return fmt.Errorf("save user admin: %w", err)
	}
	return nil
}
