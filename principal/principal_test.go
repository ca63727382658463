package principal_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	. "github.com/dogmatiq/permitkv/principal"
)

func TestFromPublicKey(t *testing.T) {
	t.Parallel()

	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	p := FromPublicKey(pub)

	if p.IsAnonymous() {
		t.Fatal("expected a non-anonymous principal")
	}

	if FromPublicKey(pub) != p {
		t.Fatal("expected derivation to be deterministic")
	}

	parsed, err := Parse(string(p))
	if err != nil {
		t.Fatal(err)
	}

	if parsed != p {
		t.Fatalf("unexpected principal: got %q, want %q", parsed, p)
	}

	other, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	if FromPublicKey(other) == p {
		t.Fatal("expected distinct keys to produce distinct principals")
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		Name    string
		Address string
	}{
		{"empty", ""},
		{"not base58", "0OIl"},
		{"wrong length", "3mJr7AoUXx2Wqd"},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			t.Parallel()

			if _, err := Parse(c.Address); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestParseAll(t *testing.T) {
	t.Parallel()

	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	p := FromPublicKey(pub)

	got, err := ParseAll(string(p), string(p))
	if err != nil {
		t.Fatal(err)
	}

	if len(got) != 2 || got[0] != p || got[1] != p {
		t.Fatalf("unexpected principals: %v", got)
	}

	if _, err := ParseAll(string(p), "<invalid>"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestPrincipal_String(t *testing.T) {
	t.Parallel()

	if got := Anonymous.String(); got != "<anonymous>" {
		t.Fatalf("unexpected string: %q", got)
	}
}
