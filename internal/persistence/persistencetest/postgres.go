package persistencetest

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/eprescribing/eprescribing/internal/platform/db"
	"github.com/eprescribing/eprescribing/migrations"
)

// DatabaseURLEnv names the variable that enables PostgreSQL backend tests.
const DatabaseURLEnv = "TEST_DATABASE_URL"

// NewPostgresPool creates a migrated scratch schema and returns a pool whose
// connections use it. The schema is dropped when t finishes. The test is
// skipped when TEST_DATABASE_URL is unset.
func NewPostgresPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv(DatabaseURLEnv)
	if url == "" {
		t.Skipf("%s not set", DatabaseURLEnv)
	}
	ctx := context.Background()

	admin, err := db.NewPool(ctx, url, 2, 0, "")
	require.NoError(t, err)
	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	require.NoError(t, db.CreateSchema(ctx, admin, schema, migrations.FS))

	pool, err := db.NewPool(ctx, url, 4, 0, schema)
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
		if err := db.DropSchema(context.Background(), admin, schema); err != nil {
			t.Logf("drop schema %s: %v", schema, err)
		}
		admin.Close()
	})
	return pool
}
