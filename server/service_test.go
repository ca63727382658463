package server_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/dogmatiq/permitkv/acl"
	"github.com/dogmatiq/permitkv/auth"
	"github.com/dogmatiq/permitkv/capability"
	"github.com/dogmatiq/permitkv/format"
	"github.com/dogmatiq/permitkv/principal"
	"github.com/dogmatiq/permitkv/record"

	. "github.com/dogmatiq/permitkv/server"
)

func TestService(t *testing.T) {
	t.Parallel()

	t.Run("it performs operations as the token's principal", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		tok, owner := f.Token(t, "<permit>")

		if err := f.Service.Create(t.Context(), tok, "<key>", format.EncodeUint32(42), record.Seed{}); err != nil {
			t.Fatal(err)
		}

		v, ok, err := f.Service.Read(t.Context(), tok, "<key>")
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatal("expected the record to exist")
		}
		if v.ACL.Owner() != owner {
			t.Fatalf("unexpected owner: got %q, want %q", v.ACL.Owner(), owner)
		}

		n, err := format.DecodeUint32(v.Payload)
		if err != nil {
			t.Fatal(err)
		}
		if n != 42 {
			t.Fatalf("unexpected value: got %d, want 42", n)
		}
	})

	t.Run("it rejects anonymous callers", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		tok, _ := f.Token(t, "<permit>")

		if err := f.Service.Create(t.Context(), tok, "<key>", format.EncodeUint32(42), record.Seed{PublicRead: true}); err != nil {
			t.Fatal(err)
		}

		_, _, err := f.Service.Read(t.Context(), nil, "<key>")
		expectErr(t, err, record.ErrUnauthenticated)
		expectCode(t, CodeOf(err), CodeUnauthenticated)
	})

	t.Run("it rejects tokens for untrusted issuers", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		_, key, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			t.Fatal(err)
		}

		tok, err := capability.Sign(key, capability.Permit{
			Name:        "<permit>",
			Issuers:     []principal.Principal{"<elsewhere>"},
			Permissions: []string{capability.PermissionAccess},
		})
		if err != nil {
			t.Fatal(err)
		}

		_, _, err = f.Service.Read(t.Context(), tok, "<key>")
		expectErr(t, err, auth.ErrUntrustedIssuer)
		expectCode(t, CodeOf(err), CodeUntrustedIssuer)
	})

	t.Run("it enforces ownership", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		ownerToken, _ := f.Token(t, "<permit>")
		otherToken, other := f.Token(t, "<permit>")

		if err := f.Service.Create(t.Context(), ownerToken, "<key>", format.EncodeUint32(1), record.Seed{}); err != nil {
			t.Fatal(err)
		}

		err := f.Service.UpdatePayload(t.Context(), otherToken, "<key>", format.EncodeUint32(2))
		expectErr(t, err, record.ErrForbidden)

		_, _, err = f.Service.Read(t.Context(), otherToken, "<key>")
		expectErr(t, err, record.ErrForbidden)

		if err := f.Service.UpdateACL(t.Context(), ownerToken, "<key>", acl.Access{Readers: []principal.Principal{other}}); err != nil {
			t.Fatal(err)
		}

		_, ok, err := f.Service.Read(t.Context(), otherToken, "<key>")
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatal("expected the record to exist")
		}

		err = f.Service.UpdateACL(t.Context(), otherToken, "<key>", acl.Access{Readers: []principal.Principal{other}})
		expectErr(t, err, record.ErrForbidden)

		err = f.Service.Delete(t.Context(), otherToken, "<key>")
		expectErr(t, err, record.ErrForbidden)

		if err := f.Service.Delete(t.Context(), ownerToken, "<key>"); err != nil {
			t.Fatal(err)
		}

		err = f.Service.Delete(t.Context(), ownerToken, "<key>")
		expectErr(t, err, record.ErrNotFound)
	})

	t.Run("it rejects empty keys", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		tok, _ := f.Token(t, "<permit>")

		err := f.Service.Create(t.Context(), tok, "", format.EncodeUint32(1), record.Seed{})
		expectErr(t, err, record.ErrInvalidKey)
		expectCode(t, CodeOf(err), CodeInvalidKey)
	})

	t.Run("it allows callers to revoke their own permits", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		tok, _ := f.Token(t, "<permit>")

		ok, err := f.Service.RevokePermit(t.Context(), tok, "<permit>")
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatal("expected the permit to be revoked")
		}

		_, _, err = f.Service.Read(t.Context(), tok, "<key>")
		expectErr(t, err, auth.ErrVerificationFailed)
		expectErr(t, err, capability.ErrRevoked)
		expectCode(t, CodeOf(err), CodeVerificationFailed)
	})

	t.Run("it requires authentication to revoke permits", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		_, err := f.Service.RevokePermit(t.Context(), nil, "<permit>")
		expectErr(t, err, record.ErrUnauthenticated)
	})
}
