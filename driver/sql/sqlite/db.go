// Package sqlite opens SQLite databases for use with the sqlitekv and
// sqliteset drivers.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver for database/sql
)

//go:embed schema.sql
var schema string

// schemaVersion is stored in PRAGMA user_version once the schema is applied.
const schemaVersion = 1

// Open opens (creating if necessary) the SQLite database at path and applies
// the schema required by the SQLite-based stores.
//
// The connection pool is limited to a single connection because SQLite permits
// only one writer at a time.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := setup(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func setup(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("cannot execute %q: %w", p, err)
		}
	}

	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("cannot read schema version: %w", err)
	}

	if version > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, schemaVersion)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("cannot apply schema: %w", err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("cannot record schema version: %w", err)
	}

	return nil
}
