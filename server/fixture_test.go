package server_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/dogmatiq/permitkv/auth"
	"github.com/dogmatiq/permitkv/capability"
	"github.com/dogmatiq/permitkv/driver/memory/memorykv"
	"github.com/dogmatiq/permitkv/driver/memory/memoryset"
	"github.com/dogmatiq/permitkv/principal"
	"github.com/dogmatiq/permitkv/record"

	. "github.com/dogmatiq/permitkv/server"
)

// fixture is a service with a single trusted issuer.
type fixture struct {
	Service *Service
	Issuer  principal.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	records, err := record.Open(t.Context(), &memorykv.BinaryStore{})
	if err != nil {
		t.Fatal(err)
	}

	registry := &capability.Registry{
		Store: &memoryset.Store[string]{},
	}

	issuerKey, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	f := &fixture{
		Issuer: principal.FromPublicKey(issuerKey),
	}

	f.Service = &Service{
		Authenticator: &auth.Authenticator{
			Verifier: &capability.SignatureVerifier{
				Registry: registry,
			},
		},
		Records:        records,
		Registry:       registry,
		TrustedIssuers: []principal.Principal{f.Issuer},
	}

	return f
}

// Token returns a new token valid for the fixture's issuer, and the principal
// it attests to.
func (f *fixture) Token(t *testing.T, name string) (*capability.Token, principal.Principal) {
	t.Helper()

	pub, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	tok, err := capability.Sign(key, capability.Permit{
		Name:        name,
		Issuers:     []principal.Principal{f.Issuer},
		Permissions: []string{capability.PermissionAccess},
	})
	if err != nil {
		t.Fatal(err)
	}

	return tok, principal.FromPublicKey(pub)
}

func expectErr(t *testing.T, err, want error) {
	t.Helper()

	if !errors.Is(err, want) {
		t.Fatalf("unexpected error: got %v, want %v", err, want)
	}
}

func expectCode(t *testing.T, got, want Code) {
	t.Helper()

	if got != want {
		t.Fatalf("unexpected code: got %q, want %q", got, want)
	}
}
