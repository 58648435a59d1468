package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestRejectedData(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"foreign key", &pgconn.PgError{Code: "23503"}, true},
		{"unique", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{"value too long", &pgconn.PgError{Code: "22001", Message: "value too long for type character varying(20)"}, true},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, false},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pgErr, ok := RejectedData(tt.err)
			if ok != tt.want {
				t.Fatalf("RejectedData(%v) = %v, want %v", tt.err, ok, tt.want)
			}
			if ok && pgErr == nil {
				t.Error("expected the server error back")
			}
		})
	}
}
