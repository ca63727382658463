package kv_test

import (
	"testing"

	"github.com/dogmatiq/permitkv/driver/memory/memorykv"
	. "github.com/dogmatiq/permitkv/kv"
)

func TestWithNamePrefix(t *testing.T) {
	var underlying memorykv.Store[int, string]

	store := WithNamePrefix[int, string](&underlying, "prefix-")

	ks, err := store.Open(t.Context(), "test")
	if err != nil {
		t.Fatal(err)
	}

	t.Run("it adds the prefix to the name", func(t *testing.T) {
		const (
			key  = 42
			want = "<value>"
		)

		if err := ks.Set(t.Context(), key, want, 0); err != nil {
			t.Fatal(err)
		}

		u, err := underlying.Open(t.Context(), "prefix-test")
		if err != nil {
			t.Fatal(err)
		}

		got, _, err := u.Get(t.Context(), key)
		if err != nil {
			t.Fatal(err)
		}

		if got != want {
			t.Errorf("unexpected value: got %q, want %q", got, want)
		}
	})

	t.Run("it reports the unprefixed name", func(t *testing.T) {
		if got, want := ks.Name(), "test"; got != want {
			t.Errorf("unexpected name: got %q, want %q", got, want)
		}
	})

	t.Run("it returns the given store if the prefix is empty", func(t *testing.T) {
		if s := WithNamePrefix[int, string](&underlying, ""); s != Store[int, string](&underlying) {
			t.Fatalf("unexpected store: got %T", s)
		}
	})
}
