package pgtest

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/dogmatiq/sqltest"
)

// Setup creates and returns a new PostgreSQL database connection for use in a
// test. The database is automatically dropped when the test ends.
//
// The test is skipped unless PERMITKV_TEST_POSTGRES is set. The server itself
// is located using the environment variables understood by sqltest.
func Setup(t testing.TB) *sql.DB {
	if os.Getenv("PERMITKV_TEST_POSTGRES") == "" {
		t.Skip("PERMITKV_TEST_POSTGRES is not set")
	}

	ctx := context.Background()

	database, err := sqltest.NewDatabase(ctx, sqltest.PGXDriver, sqltest.PostgreSQL)
	if err != nil {
		t.Fatal(err)
	}

	db, err := database.Open()
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Error(err)
		}

		if err := database.Close(); err != nil {
			t.Error(err)
		}
	})

	return db
}
