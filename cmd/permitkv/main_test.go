package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dogmatiq/permitkv/capability"
	"github.com/dogmatiq/permitkv/principal"
	"github.com/dogmatiq/permitkv/proxy"
	"github.com/google/go-cmp/cmp"
)

func run(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer

	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})

	if err := cmd.ExecuteContext(t.Context()); err != nil {
		t.Fatal(err)
	}

	return strings.TrimSpace(out.String())
}

func TestKeygenAndMint(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "issuer.key")
	tokenPath := filepath.Join(dir, "user.token")

	issuer := run(t, "keygen", "--out", keyPath)

	p, err := principal.Parse(issuer)
	if err != nil {
		t.Fatal(err)
	}

	key, err := loadKey(keyPath)
	if err != nil {
		t.Fatal(err)
	}
	if got := addressOf(key); got != p {
		t.Fatalf("unexpected address: got %q, want %q", got, p)
	}

	name := run(
		t,
		"token", "mint",
		"--key", keyPath,
		"--issuer", issuer,
		"--name", "laptop",
		"--out", tokenPath,
	)
	if name != "laptop" {
		t.Fatalf("unexpected permit name: %q", name)
	}

	tok, err := loadToken(tokenPath)
	if err != nil {
		t.Fatal(err)
	}

	if got := tok.Principal(); got != p {
		t.Fatalf("unexpected principal: got %q, want %q", got, p)
	}

	want := capability.Permit{
		Name:        "laptop",
		Issuers:     []principal.Principal{p},
		Permissions: []string{capability.PermissionAccess},
		IssuedAt:    tok.Permit.IssuedAt,
	}
	if diff := cmp.Diff(want, tok.Permit); diff != "" {
		t.Fatal(diff)
	}

	verifier := &capability.SignatureVerifier{}
	caller, err := verifier.Verify(t.Context(), tok, p, capability.DefaultRevocationKey)
	if err != nil {
		t.Fatal(err)
	}
	if caller != p {
		t.Fatalf("unexpected caller: got %q, want %q", caller, p)
	}
}

func TestLoadToken_empty(t *testing.T) {
	tok, err := loadToken("")
	if err != nil {
		t.Fatal(err)
	}
	if tok != nil {
		t.Fatal("expected no token")
	}
}

func TestLoadKey_missing(t *testing.T) {
	if _, err := loadKey(filepath.Join(t.TempDir(), "missing.key")); err == nil {
		t.Fatal("expected an error")
	}
}

func TestVisibilityFlag(t *testing.T) {
	f := visibilityFlag{proxy.Private}

	if f.Type() != "visibility" {
		t.Fatalf("unexpected type: %q", f.Type())
	}

	if err := f.Set("public"); err != nil {
		t.Fatal(err)
	}
	if f.Visibility != proxy.Public {
		t.Fatalf("unexpected visibility: %s", f.Visibility)
	}

	if err := f.Set("<invalid>"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestParseValue(t *testing.T) {
	v, err := parseValue("4294967295")
	if err != nil {
		t.Fatal(err)
	}
	if v != 4294967295 {
		t.Fatalf("unexpected value: %d", v)
	}

	for _, s := range []string{"4294967296", "-1"} {
		if _, err := parseValue(s); err == nil {
			t.Fatalf("expected %q to be rejected", s)
		}
	}
}
