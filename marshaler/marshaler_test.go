package marshaler_test

import (
	"testing"

	. "github.com/dogmatiq/permitkv/marshaler"
	"github.com/google/go-cmp/cmp"
)

type value struct {
	Name  string   `json:"name" cbor:"name"`
	Items []string `json:"items" cbor:"items"`
}

func TestMarshalers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		Name      string
		Marshaler Marshaler[value]
	}{
		{"json", NewJSON[value]()},
		{"cbor", NewCBOR[value]()},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			t.Parallel()

			want := value{
				Name:  "<name>",
				Items: []string{"<a>", "<b>"},
			}

			data, err := c.Marshaler.Marshal(want)
			if err != nil {
				t.Fatal(err)
			}

			got, err := c.Marshaler.Unmarshal(data)
			if err != nil {
				t.Fatal(err)
			}

			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatal(diff)
			}
		})

		t.Run(c.Name+" rejects malformed data", func(t *testing.T) {
			t.Parallel()

			if _, err := c.Marshaler.Unmarshal([]byte{0xff, 0x00, '{'}); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestString(t *testing.T) {
	t.Parallel()

	data, err := String.Marshal("<value>")
	if err != nil {
		t.Fatal(err)
	}

	got, err := String.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}

	if got != "<value>" {
		t.Fatalf("unexpected value: got %q, want %q", got, "<value>")
	}
}
