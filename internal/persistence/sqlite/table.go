package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// table declares how a row type maps onto an id-keyed table. Repositories are
// written against these declarations instead of hand-built statements.
type table[T any] struct {
	name    string
	entity  string
	columns []string
	id      func(T) int
	scan    func(sc scanner) (T, error)
	values  func(T) []any
}

func (t table[T]) selectSQL() string {
	return "SELECT id, " + strings.Join(t.columns, ", ") + " FROM " + t.name
}

// find returns every row matching where, which may also carry ORDER BY.
func (t table[T]) find(ctx context.Context, q querier, where string, args ...any) ([]T, error) {
	rows, err := q.QueryContext(ctx, t.selectSQL()+" "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.name, err)
	}
	defer func() { _ = rows.Close() }()

	out := []T{}
	for rows.Next() {
		v, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.entity, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", t.name, err)
	}
	return out, nil
}

// one returns the first row matching where or a NotFoundError keyed by key.
func (t table[T]) one(ctx context.Context, q querier, key any, where string, args ...any) (T, error) {
	v, err := t.scan(q.QueryRowContext(ctx, t.selectSQL()+" "+where+" LIMIT 1", args...))
	if errors.Is(err, sql.ErrNoRows) {
		return v, clinic.NotFound(t.entity, key)
	}
	if err != nil {
		return v, fmt.Errorf("query %s %v: %w", t.entity, key, err)
	}
	return v, nil
}

func (t table[T]) byID(ctx context.Context, q querier, id int) (T, error) {
	return t.one(ctx, q, id, "WHERE id = ?", id)
}

func (t table[T]) insert(ctx context.Context, q querier, v T) (int, error) {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(t.columns)), ", ")
	stmt := "INSERT INTO " + t.name + " (" + strings.Join(t.columns, ", ") + ") VALUES (" + marks + ")"
	res, err := q.ExecContext(ctx, stmt, t.values(v)...)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", t.entity, translate(t.entity, err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", t.entity, err)
	}
	return int(id), nil
}

func (t table[T]) update(ctx context.Context, q querier, v T) error {
	sets := make([]string, len(t.columns))
	for i, c := range t.columns {
		sets[i] = c + " = ?"
	}
	stmt := "UPDATE " + t.name + " SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	res, err := q.ExecContext(ctx, stmt, append(t.values(v), t.id(v))...)
	if err != nil {
		return fmt.Errorf("update %s %d: %w", t.entity, t.id(v), translate(t.entity, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s %d: %w", t.entity, t.id(v), err)
	}
	if n == 0 {
		return clinic.NotFound(t.entity, t.id(v))
	}
	return nil
}

// save inserts or updates v through clinic.Upsert; setID receives a generated key.
func (t table[T]) save(ctx context.Context, q querier, v T, setID func(int)) error {
	return clinic.Upsert(ctx, t.id(v),
		func(ctx context.Context) error {
			id, err := t.insert(ctx, q, v)
			if err != nil {
				return err
			}
			setID(id)
			return nil
		},
		func(ctx context.Context) error {
			return t.update(ctx, q, v)
		})
}

func (t table[T]) deleteWhere(ctx context.Context, q querier, where string, args ...any) (int64, error) {
	res, err := q.ExecContext(ctx, "DELETE FROM "+t.name+" "+where, args...)
	if err != nil {
		return 0, translate(t.entity, err)
	}
	return res.RowsAffected()
}

func (t table[T]) ids(ctx context.Context, q querier, where string, args ...any) ([]int, error) {
	rows, err := q.QueryContext(ctx, "SELECT id FROM "+t.name+" "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s ids: %w", t.name, err)
	}
	defer func() { _ = rows.Close() }()

	var out []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// in returns a membership clause for ids that binds them as one JSON array,
// so the id count never meets SQLite's host parameter limit.
func in(column string, ids []int) (string, []any) {
	list, _ := json.Marshal(ids)
	return column + " IN (SELECT value FROM json_each(?))", []any{string(list)}
}
