package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
	"github.com/eprescribing/eprescribing/internal/persistence/persistencetest"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), MemoryPath, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_Contract(t *testing.T) {
	persistencetest.Run(t, func(t *testing.T) clinic.Backend {
		return openMemory(t)
	})
}

func TestOpen_EmptyPath(t *testing.T) {
	if _, err := Open(context.Background(), "", zerolog.Nop()); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestOpen_FileCreatesDirectoryAndReopens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "clinic.db")

	s, err := Open(ctx, path, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	o := &clinic.Owner{FirstName: "Jean", LastName: "Coleman"}
	if err := s.Owners().Save(ctx, o); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(ctx, path, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.Owners().FindByID(ctx, o.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.LastName != "Coleman" {
		t.Errorf("expected Coleman after reopen, got %q", got.LastName)
	}
	if s.Path() != path {
		t.Errorf("expected path %q, got %q", path, s.Path())
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	var on int
	if err := s.db.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&on); err != nil {
		t.Fatalf("pragma: %v", err)
	}
	if on != 1 {
		t.Fatalf("expected foreign keys on, got %d", on)
	}

	_, err := prescriptions.insert(ctx, s.db, clinic.PrescriptionRow{MedicationID: 999, Date: time.Now()})
	if !errors.Is(err, clinic.ErrConstraintViolation) {
		t.Errorf("expected constraint violation for a dangling medication, got %v", err)
	}
}

func TestInTx_RollsBackOnError(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, clinic.TxReadWrite, func(ctx context.Context) error {
		if err := s.MedicationTypes().Save(ctx, &clinic.MedicationType{Name: "tablet"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	all, err := s.MedicationTypes().FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected rollback to leave no types, got %d", len(all))
	}
}

func TestInTx_JoinsOuterTransaction(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	err := s.InTx(ctx, clinic.TxReadWrite, func(outer context.Context) error {
		return s.InTx(outer, clinic.TxReadOnly, func(inner context.Context) error {
			if inner != outer {
				t.Error("expected the nested call to reuse the outer context")
			}
			return nil
		})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateMissingRowIsNotFound(t *testing.T) {
	s := openMemory(t)
	err := s.Specialties().Save(context.Background(), &clinic.Specialty{ID: 42, Name: "dentistry"})
	if !errors.Is(err, clinic.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestDates(t *testing.T) {
	if got := formatDate(time.Time{}); got.Valid {
		t.Errorf("expected NULL for zero date, got %+v", got)
	}
	d := time.Date(2013, time.January, 4, 15, 30, 0, 0, time.UTC)
	got := formatDate(d)
	if got.String != "2013-01-04" {
		t.Errorf("expected 2013-01-04, got %q", got.String)
	}
	back, err := parseDate(got)
	if err != nil || !back.Equal(time.Date(2013, time.January, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("parseDate(%q) = %v, %v", got.String, back, err)
	}
	if zero, err := parseDate(sql.NullString{}); err != nil || !zero.IsZero() {
		t.Errorf("expected zero time for NULL, got %v, %v", zero, err)
	}
	if _, err := parseDate(sql.NullString{String: "04/01/2013", Valid: true}); err == nil {
		t.Error("expected error for a malformed date")
	}
}

func TestIn(t *testing.T) {
	where, args := in("id", []int{3, 1, 2})
	if where != "id IN (SELECT value FROM json_each(?))" {
		t.Errorf("unexpected clause %q", where)
	}
	if len(args) != 1 || args[0] != "[3,1,2]" {
		t.Errorf("unexpected args %v", args)
	}
}

func TestCascadeDelete_ManyIDs(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	svc := clinic.NewService(s, clinic.WithPasswordCost(bcrypt.MinCost))
	if err := clinic.LoadSampleData(ctx, svc); err != nil {
		t.Fatalf("LoadSampleData: %v", err)
	}
	before, err := s.Medications().FindAll(ctx)
	if err != nil {
		t.Fatal(err)
	}

	ids := make([]int, 40000)
	for i := range ids {
		ids[i] = i + 1
	}
	c := cascadeStore{s}
	if _, err := c.DeletePrescriptionsOf(ctx, ids); err != nil {
		t.Fatalf("DeletePrescriptionsOf: %v", err)
	}
	n, err := c.DeleteMedications(ctx, ids)
	if err != nil {
		t.Fatalf("DeleteMedications: %v", err)
	}
	if n != int64(len(before)) {
		t.Errorf("expected %d medications deleted, got %d", len(before), n)
	}
	left, err := s.Prescriptions().FindAll(ctx)
	if err != nil || len(left) != 0 {
		t.Errorf("expected no prescriptions left, got %d (%v)", len(left), err)
	}
}
