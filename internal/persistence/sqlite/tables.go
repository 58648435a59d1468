package sqlite

import (
	"database/sql"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
)

var owners = table[clinic.OwnerRow]{
	name:    "owners",
	entity:  "owner",
	columns: []string{"first_name", "last_name", "address", "city", "telephone"},
	id:      func(r clinic.OwnerRow) int { return r.ID },
	scan: func(sc scanner) (clinic.OwnerRow, error) {
		var r clinic.OwnerRow
		err := sc.Scan(&r.ID, &r.FirstName, &r.LastName, &r.Address, &r.City, &r.Telephone)
		return r, err
	},
	values: func(r clinic.OwnerRow) []any {
		return []any{r.FirstName, r.LastName, r.Address, r.City, r.Telephone}
	},
}

var medicationTypes = table[clinic.MedicationType]{
	name:    "types",
	entity:  "medication type",
	columns: []string{"name"},
	id:      func(t clinic.MedicationType) int { return t.ID },
	scan: func(sc scanner) (clinic.MedicationType, error) {
		var t clinic.MedicationType
		err := sc.Scan(&t.ID, &t.Name)
		return t, err
	},
	values: func(t clinic.MedicationType) []any { return []any{t.Name} },
}

var medications = table[clinic.MedicationRow]{
	name:    "medications",
	entity:  "medication",
	columns: []string{"name", "expiration_date", "type_id", "owner_id"},
	id:      func(r clinic.MedicationRow) int { return r.ID },
	scan: func(sc scanner) (clinic.MedicationRow, error) {
		var (
			r   clinic.MedicationRow
			exp sql.NullString
		)
		if err := sc.Scan(&r.ID, &r.Name, &exp, &r.TypeID, &r.OwnerID); err != nil {
			return r, err
		}
		var err error
		r.ExpirationDate, err = parseDate(exp)
		return r, err
	},
	values: func(r clinic.MedicationRow) []any {
		return []any{r.Name, formatDate(r.ExpirationDate), r.TypeID, r.OwnerID}
	},
}

var prescriptions = table[clinic.PrescriptionRow]{
	name:    "prescriptions",
	entity:  "prescription",
	columns: []string{"medication_id", "prescription_date", "description"},
	id:      func(r clinic.PrescriptionRow) int { return r.ID },
	scan: func(sc scanner) (clinic.PrescriptionRow, error) {
		var (
			r    clinic.PrescriptionRow
			date sql.NullString
		)
		if err := sc.Scan(&r.ID, &r.MedicationID, &date, &r.Description); err != nil {
			return r, err
		}
		var err error
		r.Date, err = parseDate(date)
		return r, err
	},
	values: func(r clinic.PrescriptionRow) []any {
		return []any{r.MedicationID, formatDate(r.Date), r.Description}
	},
}

var specialties = table[clinic.Specialty]{
	name:    "specialties",
	entity:  "specialty",
	columns: []string{"name"},
	id:      func(s clinic.Specialty) int { return s.ID },
	scan: func(sc scanner) (clinic.Specialty, error) {
		var s clinic.Specialty
		err := sc.Scan(&s.ID, &s.Name)
		return s, err
	},
	values: func(s clinic.Specialty) []any { return []any{s.Name} },
}

var prescribers = table[clinic.PrescriberRow]{
	name:    "prescribers",
	entity:  "prescriber",
	columns: []string{"first_name", "last_name"},
	id:      func(r clinic.PrescriberRow) int { return r.ID },
	scan: func(sc scanner) (clinic.PrescriberRow, error) {
		var r clinic.PrescriberRow
		err := sc.Scan(&r.ID, &r.FirstName, &r.LastName)
		return r, err
	},
	values: func(r clinic.PrescriberRow) []any { return []any{r.FirstName, r.LastName} },
}
