package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
)

type userRepo struct{ s *Store }

func (r userRepo) FindByUsername(ctx context.Context, username string) (*clinic.User, error) {
	q := r.s.conn(ctx)
	u := &clinic.User{}
	err := q.QueryRowContext(ctx, `SELECT username, password, enabled FROM users WHERE username = ?`, username).
		Scan(&u.Username, &u.Password, &u.Enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, clinic.NotFound("user", username)
	}
	if err != nil {
		return nil, fmt.Errorf("query user %s: %w", username, err)
	}

	rows, err := q.QueryContext(ctx, `SELECT role FROM roles WHERE username = ? ORDER BY role`, username)
	if err != nil {
		return nil, fmt.Errorf("query roles of %s: %w", username, err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("scan roles of %s: %w", username, err)
		}
		u.Roles = append(u.Roles, role)
	}
	return u, rows.Err()
}

func (r userRepo) Save(ctx context.Context, u *clinic.User) error {
	return r.s.InTx(ctx, clinic.TxReadWrite, func(ctx context.Context) error {
		q := r.s.conn(ctx)
		if _, err := q.ExecContext(ctx, `
			INSERT INTO users (username, password, enabled) VALUES (?, ?, ?)
			ON CONFLICT (username) DO UPDATE SET password = excluded.password, enabled = excluded.enabled`,
			u.Username, u.Password, u.Enabled); err != nil {
			return fmt.Errorf("upsert user %s: %w", u.Username, translate("user", err))
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM roles WHERE username = ?`, u.Username); err != nil {
			return fmt.Errorf("clear roles of %s: %w", u.Username, err)
		}
		for _, role := range u.Roles {
			if _, err := q.ExecContext(ctx, `INSERT INTO roles (username, role) VALUES (?, ?)`, u.Username, role); err != nil {
				return fmt.Errorf("add role %s to %s: %w", role, u.Username, translate("user", err))
			}
		}
		return nil
	})
}
