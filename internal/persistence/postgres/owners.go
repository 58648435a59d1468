package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
	"github.com/eprescribing/eprescribing/internal/platform/db"
)

const ownerColumns = `id, first_name, last_name, address, city, telephone`

type ownerRepo struct{ s *Store }

func scanOwnerRow(row pgx.Row) (clinic.OwnerRow, error) {
	var r clinic.OwnerRow
	err := row.Scan(&r.ID, &r.FirstName, &r.LastName, &r.Address, &r.City, &r.Telephone)
	return r, err
}

func (r ownerRepo) FindByID(ctx context.Context, id int) (*clinic.Owner, error) {
	row, err := scanOwnerRow(r.s.conn(ctx).QueryRow(ctx, `SELECT `+ownerColumns+` FROM owners WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, clinic.NotFound("owner", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query owner %d: %w", id, err)
	}
	owners := []*clinic.Owner{row.Owner()}
	if err := r.s.attachMedications(ctx, owners); err != nil {
		return nil, err
	}
	return owners[0], nil
}

func (r ownerRepo) FindAll(ctx context.Context) ([]*clinic.Owner, error) {
	return r.find(ctx, `SELECT `+ownerColumns+` FROM owners ORDER BY id`)
}

func (r ownerRepo) FindByLastName(ctx context.Context, prefix string) ([]*clinic.Owner, error) {
	return r.find(ctx, `SELECT `+ownerColumns+` FROM owners WHERE last_name LIKE $1 || '%' ESCAPE '\' ORDER BY id`,
		db.EscapeLike(prefix))
}

func (r ownerRepo) find(ctx context.Context, sql string, args ...interface{}) ([]*clinic.Owner, error) {
	owners, err := r.s.queryOwners(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	if err := r.s.attachMedications(ctx, owners); err != nil {
		return nil, err
	}
	return owners, nil
}

func (r ownerRepo) Save(ctx context.Context, o *clinic.Owner) error {
	return clinic.Upsert(ctx, o.ID,
		func(ctx context.Context) error {
			id, err := r.s.insertReturningID(ctx, "owner", `
				INSERT INTO owners (first_name, last_name, address, city, telephone)
				VALUES ($1, $2, $3, $4, $5) RETURNING id`,
				o.FirstName, o.LastName, o.Address, o.City, o.Telephone)
			if err != nil {
				return err
			}
			o.ID = id
			return nil
		},
		func(ctx context.Context) error {
			return r.s.update(ctx, "owner", o.ID, `
				UPDATE owners SET first_name = $2, last_name = $3, address = $4, city = $5, telephone = $6
				WHERE id = $1`,
				o.ID, o.FirstName, o.LastName, o.Address, o.City, o.Telephone)
		})
}

func (r ownerRepo) Delete(ctx context.Context, o *clinic.Owner) error {
	if o.IsNew() {
		return nil
	}
	return r.s.cascade.DeleteOwner(ctx, o.ID)
}

// queryOwners returns bare owners without medications.
func (s *Store) queryOwners(ctx context.Context, sql string, args ...interface{}) ([]*clinic.Owner, error) {
	rows, err := s.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query owners: %w", err)
	}
	defer rows.Close()

	owners := []*clinic.Owner{}
	for rows.Next() {
		row, err := scanOwnerRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		owners = append(owners, row.Owner())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate owners: %w", err)
	}
	return owners, nil
}

// attachMedications loads the medications of owners in one joined query and
// adds each to its owner.
func (s *Store) attachMedications(ctx context.Context, owners []*clinic.Owner) error {
	if len(owners) == 0 {
		return nil
	}
	ids := make([]int, len(owners))
	for i, o := range owners {
		ids[i] = o.ID
	}
	rows, err := s.medicationRows(ctx, `WHERE m.owner_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	types, err := s.typeIndex(ctx)
	if err != nil {
		return err
	}
	meds, err := clinic.ExtractMedications(rows, clinic.IndexOwners(owners), types)
	if err != nil {
		return err
	}
	clinic.AttachMedications(meds)
	return nil
}
