package memorykv_test

import (
	"testing"

	. "github.com/dogmatiq/permitkv/driver/memory/memorykv"
	"github.com/dogmatiq/permitkv/kv"
)

func TestBinaryStore(t *testing.T) {
	kv.RunTests(t, &BinaryStore{})
}

func TestStore(t *testing.T) {
	t.Parallel()

	type value struct {
		Items []string
	}

	store := &Store[string, value]{}

	ks, err := store.Open(t.Context(), "<keyspace>")
	if err != nil {
		t.Fatal(err)
	}
	defer ks.Close()

	v := value{Items: []string{"<a>"}}
	if err := ks.Set(t.Context(), "<key>", v, 0); err != nil {
		t.Fatal(err)
	}

	v.Items[0] = "<modified>"

	got, rev, err := ks.Get(t.Context(), "<key>")
	if err != nil {
		t.Fatal(err)
	}

	if got.Items[0] != "<a>" {
		t.Fatalf("store retained a reference to the caller's value: %q", got.Items[0])
	}

	if rev != 1 {
		t.Fatalf("unexpected revision: got %d, want 1", rev)
	}

	got.Items[0] = "<modified>"

	again, _, err := ks.Get(t.Context(), "<key>")
	if err != nil {
		t.Fatal(err)
	}

	if again.Items[0] != "<a>" {
		t.Fatalf("store returned a reference to its internal value: %q", again.Items[0])
	}

	if err := ks.Set(t.Context(), "<key>", value{}, 0); !kv.IsConflict(err) {
		t.Fatalf("expected a conflict error, got %v", err)
	}

	if err := ks.Set(t.Context(), "<key>", value{}, 1); err != nil {
		t.Fatal(err)
	}

	ok, err := ks.Has(t.Context(), "<key>")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected the zero value to delete the key")
	}
}
