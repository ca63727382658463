package pgkv

import (
	"context"
	"database/sql"

	"github.com/dogmatiq/permitkv/driver/sql/postgres/internal/commonschema"
	"github.com/dogmatiq/permitkv/internal/syncx"
	"github.com/dogmatiq/permitkv/kv"
)

// BinaryStore is an implementation of [kv.BinaryStore] that persists to a
// PostgreSQL database.
//
// The schema is created the first time a keyspace is opened.
type BinaryStore struct {
	// DB is the PostgreSQL database connection.
	DB *sql.DB

	schema syncx.SucceedOnce
}

// Open returns the keyspace with the given name.
func (s *BinaryStore) Open(ctx context.Context, name string) (kv.BinaryKeyspace, error) {
	if err := s.schema.Do(
		ctx,
		func(ctx context.Context) error {
			return commonschema.Create(ctx, s.DB)
		},
	); err != nil {
		return nil, err
	}

	return &keyspace{
		db:   s.DB,
		name: name,
	}, nil
}
