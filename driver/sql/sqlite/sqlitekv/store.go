package sqlitekv

import (
	"context"
	"database/sql"

	"github.com/dogmatiq/permitkv/kv"
)

// BinaryStore is an implementation of [kv.BinaryStore] that persists to a
// SQLite database.
//
// DB must have been opened by [sqlite.Open].
type BinaryStore struct {
	DB *sql.DB
}

// Open returns the keyspace with the given name.
func (s *BinaryStore) Open(ctx context.Context, name string) (kv.BinaryKeyspace, error) {
	return &keyspace{
		db:   s.DB,
		name: name,
	}, ctx.Err()
}
