package s3kv_test

import (
	"testing"

	"github.com/dogmatiq/permitkv/driver/aws/internal/s3x"
	. "github.com/dogmatiq/permitkv/driver/aws/s3kv"
	"github.com/dogmatiq/permitkv/kv"
)

func TestStore(t *testing.T) {
	client, bucket := s3x.NewTestClient(t)

	kv.RunTests(
		t,
		NewBinaryStore(client, bucket),
	)
}
