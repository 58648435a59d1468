package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
)

type userRepo struct{ s *Store }

func (r userRepo) FindByUsername(ctx context.Context, username string) (*clinic.User, error) {
	u := &clinic.User{}
	err := r.s.conn(ctx).QueryRow(ctx, `SELECT username, password, enabled FROM users WHERE username = $1`, username).
		Scan(&u.Username, &u.Password, &u.Enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, clinic.NotFound("user", username)
	}
	if err != nil {
		return nil, fmt.Errorf("query user %s: %w", username, err)
	}

	rows, err := r.s.conn(ctx).Query(ctx, `SELECT role FROM roles WHERE username = $1 ORDER BY role`, username)
	if err != nil {
		return nil, fmt.Errorf("query roles of %s: %w", username, err)
	}
	roles, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan roles of %s: %w", username, err)
	}
	u.Roles = roles
	return u, nil
}

func (r userRepo) Save(ctx context.Context, u *clinic.User) error {
	return r.s.InTx(ctx, clinic.TxReadWrite, func(ctx context.Context) error {
		q := r.s.conn(ctx)
		if _, err := q.Exec(ctx, `
			INSERT INTO users (username, password, enabled) VALUES ($1, $2, $3)
			ON CONFLICT (username) DO UPDATE SET password = EXCLUDED.password, enabled = EXCLUDED.enabled`,
			u.Username, u.Password, u.Enabled); err != nil {
			return fmt.Errorf("upsert user %s: %w", u.Username, translate("user", err))
		}
		if _, err := q.Exec(ctx, `DELETE FROM roles WHERE username = $1`, u.Username); err != nil {
			return fmt.Errorf("clear roles of %s: %w", u.Username, err)
		}
		for _, role := range u.Roles {
			if _, err := q.Exec(ctx, `INSERT INTO roles (username, role) VALUES ($1, $2)`, u.Username, role); err != nil {
				return fmt.Errorf("add role %s to %s: %w", role, u.Username, translate("user", err))
			}
		}
		return nil
	})
}
