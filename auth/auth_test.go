package auth_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/dogmatiq/permitkv/capability"
	"github.com/dogmatiq/permitkv/driver/memory/memoryset"
	"github.com/dogmatiq/permitkv/principal"

	. "github.com/dogmatiq/permitkv/auth"
)

// verifierStub is a test implementation of [capability.Verifier].
type verifierStub struct {
	VerifyFunc func(context.Context, *capability.Token, principal.Principal, string) (principal.Principal, error)
	calls      int
}

func (v *verifierStub) Verify(
	ctx context.Context,
	t *capability.Token,
	issuer principal.Principal,
	revocationKey string,
) (principal.Principal, error) {
	v.calls++
	return v.VerifyFunc(ctx, t, issuer, revocationKey)
}

func tokenFor(issuers ...principal.Principal) *capability.Token {
	return &capability.Token{
		Permit: capability.Permit{
			Name:    "<permit>",
			Issuers: issuers,
		},
	}
}

func TestAuthenticator(t *testing.T) {
	t.Parallel()

	t.Run("it returns the anonymous principal when there is no token", func(t *testing.T) {
		t.Parallel()

		v := &verifierStub{}
		a := &Authenticator{Verifier: v}

		p, err := a.Authenticate(t.Context(), nil, []principal.Principal{"<issuer>"})
		if err != nil {
			t.Fatal(err)
		}

		if !p.IsAnonymous() {
			t.Fatalf("unexpected principal: %q", p)
		}

		if v.calls != 0 {
			t.Fatal("did not expect the verifier to be called")
		}
	})

	t.Run("it fails when the token declares no issuers", func(t *testing.T) {
		t.Parallel()

		a := &Authenticator{Verifier: &verifierStub{}}

		_, err := a.Authenticate(t.Context(), tokenFor(), []principal.Principal{"<issuer>"})
		if !errors.Is(err, ErrNoIssuersDeclared) {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("it fails when no declared issuer is trusted", func(t *testing.T) {
		t.Parallel()

		v := &verifierStub{}
		a := &Authenticator{Verifier: v}

		_, err := a.Authenticate(t.Context(), tokenFor("<x>"), []principal.Principal{"<y>", "<z>"})
		if !errors.Is(err, ErrUntrustedIssuer) {
			t.Fatalf("unexpected error: %v", err)
		}

		if v.calls != 0 {
			t.Fatal("did not expect the verifier to be called")
		}
	})

	t.Run("it verifies against the first trusted issuer that the token declares", func(t *testing.T) {
		t.Parallel()

		v := &verifierStub{
			VerifyFunc: func(
				_ context.Context,
				_ *capability.Token,
				issuer principal.Principal,
				revocationKey string,
			) (principal.Principal, error) {
				if issuer != "<second>" {
					t.Errorf("unexpected issuer: %q", issuer)
				}
				if revocationKey != "<revocations>" {
					t.Errorf("unexpected revocation key: %q", revocationKey)
				}
				return "<attested>", nil
			},
		}

		a := &Authenticator{
			Verifier:      v,
			RevocationKey: "<revocations>",
		}

		p, err := a.Authenticate(
			t.Context(),
			tokenFor("<third>", "<second>"),
			[]principal.Principal{"<first>", "<second>", "<third>"},
		)
		if err != nil {
			t.Fatal(err)
		}

		if p != "<attested>" {
			t.Fatalf("unexpected principal: %q", p)
		}
	})

	t.Run("it uses the default revocation key", func(t *testing.T) {
		t.Parallel()

		var key string
		a := &Authenticator{
			Verifier: &verifierStub{
				VerifyFunc: func(_ context.Context, _ *capability.Token, _ principal.Principal, k string) (principal.Principal, error) {
					key = k
					return "<attested>", nil
				},
			},
		}

		if _, err := a.Authenticate(t.Context(), tokenFor("<issuer>"), []principal.Principal{"<issuer>"}); err != nil {
			t.Fatal(err)
		}

		if key != capability.DefaultRevocationKey {
			t.Fatalf("unexpected revocation key: %q", key)
		}
	})

	t.Run("it wraps verifier failures without retrying", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("<reason>")
		v := &verifierStub{
			VerifyFunc: func(context.Context, *capability.Token, principal.Principal, string) (principal.Principal, error) {
				return principal.Anonymous, cause
			},
		}
		a := &Authenticator{Verifier: v}

		_, err := a.Authenticate(t.Context(), tokenFor("<issuer>"), []principal.Principal{"<issuer>"})

		if !errors.Is(err, ErrVerificationFailed) {
			t.Fatalf("unexpected error: %v", err)
		}

		if !errors.Is(err, cause) {
			t.Fatal("expected the verifier's reason to be retained")
		}

		var verr VerificationError
		if !errors.As(err, &verr) || verr.Issuer != "<issuer>" {
			t.Fatalf("unexpected error: %#v", err)
		}

		if v.calls != 1 {
			t.Fatalf("unexpected number of verifier calls: %d", v.calls)
		}
	})

	t.Run("it returns the principal attested by the signature verifier", func(t *testing.T) {
		t.Parallel()

		pub, key, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			t.Fatal(err)
		}

		tok, err := capability.Sign(key, capability.Permit{
			Name:        "<permit>",
			Issuers:     []principal.Principal{"<issuer>"},
			Permissions: []string{capability.PermissionAccess},
		})
		if err != nil {
			t.Fatal(err)
		}

		a := &Authenticator{
			Verifier: &capability.SignatureVerifier{
				Registry: &capability.Registry{
					Store: &memoryset.Store[string]{},
				},
			},
		}

		p, err := a.Authenticate(t.Context(), tok, []principal.Principal{"<issuer>"})
		if err != nil {
			t.Fatal(err)
		}

		if want := principal.FromPublicKey(pub); p != want {
			t.Fatalf("unexpected principal: got %q, want %q", p, want)
		}
	})
}
