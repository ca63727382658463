package sqlitekv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dogmatiq/permitkv/kv"
)

type keyspace struct {
	db   *sql.DB
	name string
}

func (ks *keyspace) Name() string {
	return ks.name
}

func (ks *keyspace) Get(ctx context.Context, k []byte) ([]byte, kv.Revision, error) {
	row := ks.db.QueryRowContext(
		ctx,
		`SELECT value, revision
		FROM keyspace_pair
		WHERE keyspace = ?
		AND key = ?`,
		ks.name,
		k,
	)

	var (
		v []byte
		r int64
	)

	if err := row.Scan(&v, &r); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("cannot scan keyspace pair: %w", err)
	}

	return v, kv.Revision(r), nil
}

func (ks *keyspace) Has(ctx context.Context, k []byte) (bool, error) {
	row := ks.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) != 0
		FROM keyspace_pair
		WHERE keyspace = ?
		AND key = ?`,
		ks.name,
		k,
	)

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("cannot scan keyspace pair: %w", err)
	}

	return exists, nil
}

func (ks *keyspace) Set(ctx context.Context, k, v []byte, r kv.Revision) error {
	var (
		ok  bool
		err error
	)

	switch {
	case len(v) == 0 && r == 0:
		var exists bool
		exists, err = ks.Has(ctx, k)
		ok = !exists
	case len(v) == 0:
		ok, err = ks.execOne(
			ctx,
			`DELETE FROM keyspace_pair
			WHERE keyspace = ?
			AND key = ?
			AND revision = ?`,
			ks.name,
			k,
			int64(r),
		)
	case r == 0:
		ok, err = ks.execOne(
			ctx,
			`INSERT INTO keyspace_pair (keyspace, key, value)
			VALUES (?, ?, ?)
			ON CONFLICT (keyspace, key) DO NOTHING`,
			ks.name,
			k,
			v,
		)
	default:
		ok, err = ks.execOne(
			ctx,
			`UPDATE keyspace_pair SET
				value = ?,
				revision = revision + 1
			WHERE keyspace = ?
			AND key = ?
			AND revision = ?`,
			v,
			ks.name,
			k,
			int64(r),
		)
	}

	if ok || err != nil {
		return err
	}

	return kv.ConflictError[[]byte]{
		Keyspace: ks.name,
		Key:      k,
		Revision: r,
	}
}

func (ks *keyspace) Close() error {
	return nil
}

// execOne executes a query and returns whether exactly one row was affected.
func (ks *keyspace) execOne(
	ctx context.Context,
	query string,
	args ...any,
) (bool, error) {
	res, err := ks.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("cannot execute query: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cannot determine affected rows: %w", err)
	}

	return n == 1, nil
}
