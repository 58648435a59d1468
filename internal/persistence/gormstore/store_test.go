package gormstore

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
	"github.com/eprescribing/eprescribing/internal/persistence/persistencetest"
)

func TestStore_Contract(t *testing.T) {
	persistencetest.Run(t, func(t *testing.T) clinic.Backend {
		s, err := Open(persistencetest.NewPostgresPool(t), zerolog.Nop())
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		return s
	})
}

func TestTranslate(t *testing.T) {
	for _, err := range []error{
		gorm.ErrDuplicatedKey,
		gorm.ErrForeignKeyViolated,
		&pgconn.PgError{Code: "23502", Message: "null value violates not-null constraint"},
		&pgconn.PgError{Code: "22001", Message: "value too long for type character varying(50)"},
	} {
		if got := translate("owner", err); !errors.Is(got, clinic.ErrConstraintViolation) {
			t.Errorf("translate(%v) = %v, want a constraint violation", err, got)
		}
	}

	if got := translate("owner", gorm.ErrRecordNotFound); errors.Is(got, clinic.ErrConstraintViolation) {
		t.Error("expected record-not-found to pass through")
	}
}

func TestModelConversions(t *testing.T) {
	expires := time.Date(2012, time.June, 8, 0, 0, 0, 0, time.UTC)
	m := medicationModel{
		ID: 13, Name: "Sly", ExpirationDate: &expires, TypeID: 1, OwnerID: 10,
		Prescriptions: []prescriptionModel{{ID: 5, MedicationID: 13, Date: expires, Description: "checkup"}},
	}

	row := m.row()
	if row.ID != 13 || row.TypeID != 1 || row.OwnerID != 10 || !row.ExpirationDate.Equal(expires) {
		t.Errorf("unexpected row: %+v", row)
	}
	if back := medicationModelOf(row); back.ExpirationDate == nil || !back.ExpirationDate.Equal(expires) {
		t.Errorf("expected expiration date to survive, got %+v", back)
	}
	if back := medicationModelOf(clinic.MedicationRow{Name: "x"}); back.ExpirationDate != nil {
		t.Error("expected zero expiration date to map to NULL")
	}

	owner := &clinic.Owner{ID: 10, LastName: "Estaban"}
	cat := &clinic.MedicationType{ID: 1, Name: "cat"}
	med, err := clinic.AssembleMedication(row, m.prescriptionRows(), clinic.IndexOwners([]*clinic.Owner{owner}), clinic.IndexTypes([]*clinic.MedicationType{cat}))
	if err != nil {
		t.Fatalf("AssembleMedication: %v", err)
	}
	if len(med.Prescriptions()) != 1 || med.Prescriptions()[0].Description != "checkup" {
		t.Errorf("unexpected prescriptions: %+v", med.Prescriptions())
	}

	p := prescriberModel{ID: 3, LastName: "Douglas", Specialties: []specialtyModel{{ID: 2}, {ID: 3}}}
	if ids := p.specialtyIDs(); len(ids) != 2 || ids[0] != 2 || ids[1] != 3 {
		t.Errorf("unexpected specialty ids: %v", ids)
	}

	u := userModel{Username: "admin", Enabled: true, Roles: []roleModel{{Role: "ROLE_ADMIN"}}}.user()
	if len(u.Roles) != 1 || u.Roles[0] != "ROLE_ADMIN" || !u.Enabled {
		t.Errorf("unexpected user: %+v", u)
	}
}

func TestLogger_Trace(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(zerolog.New(&buf))
	sql := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(context.Background(), time.Now(), sql, gorm.ErrRecordNotFound)
	if buf.Len() != 0 {
		t.Errorf("expected record-not-found to be silent, got %q", buf.String())
	}

	l.Trace(context.Background(), time.Now(), sql, errors.New("syntax error"))
	if !strings.Contains(buf.String(), `"level":"error"`) || !strings.Contains(buf.String(), "SELECT 1") {
		t.Errorf("expected an error line with the statement, got %q", buf.String())
	}

	buf.Reset()
	l.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
	if !strings.Contains(buf.String(), "slow query") {
		t.Errorf("expected a slow query warning, got %q", buf.String())
	}

	buf.Reset()
	l.LogMode(gormlogger.Silent).Trace(context.Background(), time.Now(), sql, errors.New("ignored"))
	if buf.Len() != 0 {
		t.Errorf("expected silent mode to log nothing, got %q", buf.String())
	}
}
