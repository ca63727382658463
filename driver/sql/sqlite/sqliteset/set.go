package sqliteset

import (
	"context"
	"database/sql"
	"fmt"
)

type setimpl struct {
	db   *sql.DB
	name string
}

func (s *setimpl) Name() string {
	return s.name
}

func (s *setimpl) Has(ctx context.Context, v []byte) (bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) != 0
		FROM set_member
		WHERE set_name = ?
		AND member = ?`,
		s.name,
		v,
	)

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("cannot scan set membership: %w", err)
	}

	return exists, nil
}

func (s *setimpl) Add(ctx context.Context, v []byte) error {
	_, err := s.TryAdd(ctx, v)
	return err
}

func (s *setimpl) TryAdd(ctx context.Context, v []byte) (bool, error) {
	return s.exec(
		ctx,
		`INSERT INTO set_member (set_name, member)
		VALUES (?, ?)
		ON CONFLICT (set_name, member) DO NOTHING`,
		v,
	)
}

func (s *setimpl) Remove(ctx context.Context, v []byte) error {
	_, err := s.TryRemove(ctx, v)
	return err
}

func (s *setimpl) TryRemove(ctx context.Context, v []byte) (bool, error) {
	return s.exec(
		ctx,
		`DELETE FROM set_member
		WHERE set_name = ?
		AND member = ?`,
		v,
	)
}

func (s *setimpl) Close() error {
	return nil
}

// exec executes a query against v and reports whether a row was affected.
func (s *setimpl) exec(ctx context.Context, query string, v []byte) (bool, error) {
	res, err := s.db.ExecContext(ctx, query, s.name, v)
	if err != nil {
		return false, fmt.Errorf("cannot execute query: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cannot determine affected rows: %w", err)
	}

	return n != 0, nil
}
