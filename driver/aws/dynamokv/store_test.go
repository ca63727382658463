package dynamokv_test

import (
	"testing"

	. "github.com/dogmatiq/permitkv/driver/aws/dynamokv"
	"github.com/dogmatiq/permitkv/driver/aws/internal/dynamox"
	"github.com/dogmatiq/permitkv/kv"
)

func TestStore(t *testing.T) {
	client, table := dynamox.NewTestClient(t)

	kv.RunTests(
		t,
		NewBinaryStore(client, table),
	)
}
