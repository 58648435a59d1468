package gormstore

import (
	"time"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
)

type ownerModel struct {
	ID          int `gorm:"primaryKey"`
	FirstName   string
	LastName    string
	Address     string
	City        string
	Telephone   string
	Medications []medicationModel `gorm:"foreignKey:OwnerID"`
}

func (ownerModel) TableName() string { return "owners" }

type typeModel struct {
	ID   int `gorm:"primaryKey"`
	Name string
}

func (typeModel) TableName() string { return "types" }

type medicationModel struct {
	ID             int `gorm:"primaryKey"`
	Name           string
	ExpirationDate *time.Time `gorm:"type:date"`
	TypeID         int
	OwnerID        int
	Prescriptions  []prescriptionModel `gorm:"foreignKey:MedicationID"`
}

func (medicationModel) TableName() string { return "medications" }

type prescriptionModel struct {
	ID           int `gorm:"primaryKey"`
	MedicationID int
	Date         time.Time `gorm:"column:prescription_date;type:date"`
	Description  string
}

func (prescriptionModel) TableName() string { return "prescriptions" }

type specialtyModel struct {
	ID   int `gorm:"primaryKey"`
	Name string
}

func (specialtyModel) TableName() string { return "specialties" }

type prescriberModel struct {
	ID          int `gorm:"primaryKey"`
	FirstName   string
	LastName    string
	Specialties []specialtyModel `gorm:"many2many:prescriber_specialties;joinForeignKey:PrescriberID;joinReferences:SpecialtyID"`
}

func (prescriberModel) TableName() string { return "prescribers" }

// prescriberSpecialtyModel is the join table, written directly so a save
// replaces the whole set.
type prescriberSpecialtyModel struct {
	PrescriberID int `gorm:"primaryKey"`
	SpecialtyID  int `gorm:"primaryKey"`
}

func (prescriberSpecialtyModel) TableName() string { return "prescriber_specialties" }

type userModel struct {
	Username string `gorm:"primaryKey"`
	Password string
	Enabled  bool
	Roles    []roleModel `gorm:"foreignKey:Username;references:Username"`
}

func (userModel) TableName() string { return "users" }

type roleModel struct {
	ID       int `gorm:"primaryKey"`
	Username string
	Role     string
}

func (roleModel) TableName() string { return "roles" }

// Conversions between models and the clinic row types. Aggregates are always
// rebuilt through the clinic assemblers.

func (m ownerModel) row() clinic.OwnerRow {
	return clinic.OwnerRow{ID: m.ID, FirstName: m.FirstName, LastName: m.LastName, Address: m.Address, City: m.City, Telephone: m.Telephone}
}

func ownerModelOf(r clinic.OwnerRow) ownerModel {
	return ownerModel{ID: r.ID, FirstName: r.FirstName, LastName: r.LastName, Address: r.Address, City: r.City, Telephone: r.Telephone}
}

func (m medicationModel) row() clinic.MedicationRow {
	r := clinic.MedicationRow{ID: m.ID, Name: m.Name, TypeID: m.TypeID, OwnerID: m.OwnerID}
	if m.ExpirationDate != nil {
		r.ExpirationDate = clinic.DateOf(*m.ExpirationDate)
	}
	return r
}

func (m medicationModel) prescriptionRows() []clinic.PrescriptionRow {
	out := make([]clinic.PrescriptionRow, len(m.Prescriptions))
	for i, p := range m.Prescriptions {
		out[i] = p.row()
	}
	return out
}

func medicationModelOf(r clinic.MedicationRow) medicationModel {
	m := medicationModel{ID: r.ID, Name: r.Name, TypeID: r.TypeID, OwnerID: r.OwnerID}
	if !r.ExpirationDate.IsZero() {
		d := r.ExpirationDate
		m.ExpirationDate = &d
	}
	return m
}

func (m prescriptionModel) row() clinic.PrescriptionRow {
	return clinic.PrescriptionRow{ID: m.ID, MedicationID: m.MedicationID, Date: m.Date, Description: m.Description}
}

func prescriptionModelOf(r clinic.PrescriptionRow) prescriptionModel {
	return prescriptionModel{ID: r.ID, MedicationID: r.MedicationID, Date: r.Date, Description: r.Description}
}

func (m prescriberModel) row() clinic.PrescriberRow {
	return clinic.PrescriberRow{ID: m.ID, FirstName: m.FirstName, LastName: m.LastName}
}

func (m prescriberModel) specialtyIDs() []int {
	out := make([]int, len(m.Specialties))
	for i, s := range m.Specialties {
		out[i] = s.ID
	}
	return out
}

func (m userModel) user() *clinic.User {
	u := &clinic.User{Username: m.Username, Password: m.Password, Enabled: m.Enabled, Roles: make([]string, len(m.Roles))}
	for i, r := range m.Roles {
		u.Roles[i] = r.Role
	}
	return u
}
