package dynamox_test

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	. "github.com/dogmatiq/permitkv/driver/aws/internal/dynamox"
)

func TestAttrAs(t *testing.T) {
	t.Parallel()

	item := map[string]types.AttributeValue{
		"B": &types.AttributeValueMemberB{Value: []byte("<value>")},
	}

	t.Run("it returns the attribute", func(t *testing.T) {
		t.Parallel()

		v, err := AttrAs[*types.AttributeValueMemberB](item, "B")
		if err != nil {
			t.Fatal(err)
		}

		if string(v.Value) != "<value>" {
			t.Fatalf("unexpected value: got %q, want %q", v.Value, "<value>")
		}
	})

	t.Run("it returns an error if the attribute is missing", func(t *testing.T) {
		t.Parallel()

		if _, err := AttrAs[*types.AttributeValueMemberB](item, "X"); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("it returns an error if the attribute has a different type", func(t *testing.T) {
		t.Parallel()

		if _, err := AttrAs[*types.AttributeValueMemberN](item, "B"); err == nil {
			t.Fatal("expected an error")
		}
	})
}
