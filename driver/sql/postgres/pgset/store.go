package pgset

import (
	"context"
	"database/sql"

	"github.com/dogmatiq/permitkv/driver/sql/postgres/internal/commonschema"
	"github.com/dogmatiq/permitkv/internal/syncx"
	"github.com/dogmatiq/permitkv/set"
)

// BinaryStore is an implementation of [set.BinaryStore] that persists to a
// PostgreSQL database.
type BinaryStore struct {
	// DB is the PostgreSQL database connection.
	DB *sql.DB

	schema syncx.SucceedOnce
}

// Open returns the set with the given name.
func (s *BinaryStore) Open(ctx context.Context, name string) (set.BinarySet, error) {
	if err := s.schema.Do(
		ctx,
		func(ctx context.Context) error {
			return commonschema.Create(ctx, s.DB)
		},
	); err != nil {
		return nil, err
	}

	return &setimpl{
		db:   s.DB,
		name: name,
	}, nil
}
