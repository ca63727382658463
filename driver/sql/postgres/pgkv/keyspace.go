package pgkv

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
		FROM permitkv.keyspace_pair
		WHERE keyspace = $1
		AND key = $2`,
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
		`SELECT COUNT(key) != 0
		FROM permitkv.keyspace_pair
		WHERE keyspace = $1
		AND key = $2`,
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
	ok, err := ks.set(ctx, k, v, r)
	if ok || err != nil {
		return err
	}

	return kv.ConflictError[[]byte]{
		Keyspace: ks.name,
		Key:      k,
		Revision: r,
	}
}

// set inserts, updates, or deletes a key/value pair based on the provided
// value and revision.
//
// It returns true on success, or false on conflict.
func (ks *keyspace) set(ctx context.Context, k, v []byte, r kv.Revision) (bool, error) {
	isDelete := len(v) == 0
	isNew := r == 0

	if isDelete && isNew {
		exists, err := ks.Has(ctx, k)
		return !exists, err
	}

	if isDelete {
		return ks.execOne(
			ctx,
			`DELETE FROM permitkv.keyspace_pair
			WHERE keyspace = $1
			AND key = $2
			AND revision = $3`,
			ks.name,
			k,
			int64(r),
		)
	}

	if isNew {
		return ks.execOne(
			ctx,
			`INSERT INTO permitkv.keyspace_pair (
				keyspace,
				key,
				value
			) VALUES (
				$1, $2, $3
			) ON CONFLICT (keyspace, key) DO NOTHING`,
			ks.name,
			k,
			v,
		)
	}

	return ks.execOne(
		ctx,
		`UPDATE permitkv.keyspace_pair SET
			value = $3,
			revision = revision + 1
		WHERE keyspace = $1
		AND key = $2
		AND revision = $4`,
		ks.name,
		k,
		v,
		int64(r),
	)
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
