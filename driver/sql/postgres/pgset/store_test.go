package pgset_test

import (
	"testing"

	"github.com/dogmatiq/permitkv/driver/sql/postgres/internal/pgtest"
	. "github.com/dogmatiq/permitkv/driver/sql/postgres/pgset"
	"github.com/dogmatiq/permitkv/set"
)

func TestStore(t *testing.T) {
	db := pgtest.Setup(t)

	set.RunTests(
		t,
		&BinaryStore{
			DB: db,
		},
	)
}
