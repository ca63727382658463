package deployment_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/dogmatiq/permitkv/driver/memory/memorykv"
	"github.com/dogmatiq/permitkv/kv"
	"github.com/dogmatiq/permitkv/principal"
	"github.com/google/go-cmp/cmp"

	. "github.com/dogmatiq/permitkv/deployment"
)

func newPrincipal(t *testing.T) principal.Principal {
	t.Helper()

	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	return principal.FromPublicKey(pub)
}

func TestRepository(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (*Repository, kv.BinaryStore) {
		backend := &memorykv.BinaryStore{}

		repo, err := Open(t.Context(), backend)
		if err != nil {
			t.Fatal(err)
		}

		t.Cleanup(func() {
			repo.Close()
		})

		return repo, backend
	}

	t.Run("it returns ErrNotConfigured before the first save", func(t *testing.T) {
		t.Parallel()

		repo, _ := setup(t)

		if _, err := repo.Load(t.Context()); !errors.Is(err, ErrNotConfigured) {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("it loads the saved configuration", func(t *testing.T) {
		t.Parallel()

		repo, backend := setup(t)
		owner := newPrincipal(t)

		want := Config{
			Owner:          owner,
			TrustedIssuers: []principal.Principal{newPrincipal(t), newPrincipal(t)},
		}

		if err := repo.Save(t.Context(), owner, want); err != nil {
			t.Fatal(err)
		}

		other, err := Open(t.Context(), backend)
		if err != nil {
			t.Fatal(err)
		}
		defer other.Close()

		got, err := other.Load(t.Context())
		if err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("it allows the owner to replace the configuration", func(t *testing.T) {
		t.Parallel()

		repo, _ := setup(t)
		owner := newPrincipal(t)
		successor := newPrincipal(t)

		if err := repo.Save(t.Context(), owner, Config{Owner: owner}); err != nil {
			t.Fatal(err)
		}

		if err := repo.Save(t.Context(), owner, Config{Owner: successor}); err != nil {
			t.Fatal(err)
		}

		if err := repo.Save(t.Context(), owner, Config{Owner: owner}); !errors.Is(err, ErrNotOwner) {
			t.Fatalf("unexpected error: %v", err)
		}

		got, err := repo.Load(t.Context())
		if err != nil {
			t.Fatal(err)
		}

		if got.Owner != successor {
			t.Fatalf("unexpected owner: %q", got.Owner)
		}
	})

	t.Run("it rejects invalid addresses", func(t *testing.T) {
		t.Parallel()

		repo, _ := setup(t)
		owner := newPrincipal(t)

		cases := []Config{
			{},
			{Owner: "<invalid>"},
			{Owner: owner, TrustedIssuers: []principal.Principal{"<invalid>"}},
		}

		for _, c := range cases {
			if err := repo.Save(t.Context(), owner, c); err == nil {
				t.Fatalf("expected an error for %#v", c)
			}
		}
	})
}
