package sqlitekv_test

import (
	"path/filepath"
	"testing"

	"github.com/dogmatiq/permitkv/driver/sql/sqlite"
	. "github.com/dogmatiq/permitkv/driver/sql/sqlite/sqlitekv"
	"github.com/dogmatiq/permitkv/kv"
)

func TestStore(t *testing.T) {
	db, err := sqlite.Open(t.Context(), filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Error(err)
		}
	})

	kv.RunTests(
		t,
		&BinaryStore{
			DB: db,
		},
	)
}
