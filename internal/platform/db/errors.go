package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// RejectedData returns the server error when err is a write the database
// refused for its data: SQLSTATE class 23 (integrity constraint violation) or
// class 22 (data exception, for example a value too long for its column).
func RejectedData(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil, false
	}
	if strings.HasPrefix(pgErr.Code, "23") || strings.HasPrefix(pgErr.Code, "22") {
		return pgErr, true
	}
	return nil, false
}
