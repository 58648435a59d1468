// Package persistence selects and opens one clinic storage backend.
package persistence

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
	"github.com/eprescribing/eprescribing/internal/persistence/gormstore"
	"github.com/eprescribing/eprescribing/internal/persistence/postgres"
	"github.com/eprescribing/eprescribing/internal/persistence/sqlite"
	"github.com/eprescribing/eprescribing/internal/platform/db"
)

// Options carries the connection settings of every backend; each driver reads
// only the fields it needs.
type Options struct {
	Driver      string
	DatabaseURL string
	Schema      string
	MaxConns    int32
	MinConns    int32
	SQLitePath  string
}

// Drivers lists the accepted Options.Driver values.
var Drivers = []string{postgres.Name, gormstore.Name, sqlite.Name}

// Open connects the backend named by opts.Driver. The Postgres-based drivers
// expect the schema to be migrated already; the SQLite driver applies its own.
func Open(ctx context.Context, opts Options, logger zerolog.Logger) (clinic.Backend, error) {
	switch opts.Driver {
	case postgres.Name, gormstore.Name:
		pool, err := db.NewPool(ctx, opts.DatabaseURL, opts.MaxConns, opts.MinConns, opts.Schema)
		if err != nil {
			return nil, err
		}
		if opts.Driver == postgres.Name {
			return postgres.New(pool, logger), nil
		}
		s, err := gormstore.Open(pool, logger)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return s, nil
	case sqlite.Name:
		s, err := sqlite.Open(ctx, opts.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (want one of %v)", opts.Driver, Drivers)
	}
}
