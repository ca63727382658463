package sqliteset

import (
	"context"
	"database/sql"

	"github.com/dogmatiq/permitkv/set"
)

// BinaryStore is an implementation of [set.BinaryStore] that persists to a
// SQLite database.
//
// DB must have been opened by [sqlite.Open].
type BinaryStore struct {
	DB *sql.DB
}

// Open returns the set with the given name.
func (s *BinaryStore) Open(ctx context.Context, name string) (set.BinarySet, error) {
	return &setimpl{
		db:   s.DB,
		name: name,
	}, ctx.Err()
}
