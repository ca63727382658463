package kv_test

import (
	"testing"

	"github.com/dogmatiq/permitkv/driver/memory/memorykv"
	. "github.com/dogmatiq/permitkv/kv"
	"github.com/dogmatiq/permitkv/marshaler"
	"github.com/google/go-cmp/cmp"
)

func TestNewMarshalingStore(t *testing.T) {
	type value struct {
		Name  string
		Count int
	}

	store := NewMarshalingStore(
		&memorykv.BinaryStore{},
		marshaler.String,
		marshaler.NewCBOR[value](),
	)

	ks, err := store.Open(t.Context(), "<name>")
	if err != nil {
		t.Fatal(err)
	}
	defer ks.Close()

	pairs := map[string]value{
		"one": {"<one>", 1},
		"two": {"<two>", 2},
	}

	for k, v := range pairs {
		if err := ks.Set(t.Context(), k, v, 0); err != nil {
			t.Fatal(err)
		}
	}

	for k, want := range pairs {
		got, r, err := ks.Get(t.Context(), k)
		if err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatal(diff)
		}

		if r != 1 {
			t.Fatalf("unexpected revision for key %q: got %d, want 1", k, r)
		}

		if err := ks.Set(t.Context(), k, value{}, r); err != nil {
			t.Fatal(err)
		}

		ok, err := ks.Has(t.Context(), k)
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Fatalf("expected key %q to be deleted", k)
		}

		got, r, err = ks.Get(t.Context(), k)
		if err != nil {
			t.Fatal(err)
		}

		if got != (value{}) || r != 0 {
			t.Fatalf("expected zero value and revision for deleted key %q, got (%v, %d)", k, got, r)
		}
	}
}
