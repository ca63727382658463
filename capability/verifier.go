package capability

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dogmatiq/permitkv/internal/codec"
	"github.com/dogmatiq/permitkv/principal"
)

// Verifier checks the validity of capability tokens.
type Verifier interface {
	// Verify checks that t is valid for the given issuer and has not been
	// revoked within the registry identified by revocationKey.
	//
	// It returns the principal that the token attests to.
	Verify(
		ctx context.Context,
		t *Token,
		issuer principal.Principal,
		revocationKey string,
	) (principal.Principal, error)
}

// Errors returned by [SignatureVerifier].
var (
	ErrIssuerNotDeclared = errors.New("permit is not valid for this issuer")
	ErrMissingPermission = errors.New("permit does not grant access")
	ErrExpired           = errors.New("permit has expired")
	ErrInvalidSignature  = errors.New("permit signature is invalid")
	ErrRevoked           = errors.New("permit has been revoked")
)

// SignatureVerifier is a [Verifier] that checks each token's Ed25519
// signature and consults a revocation [Registry].
type SignatureVerifier struct {
	Registry *Registry

	// Now returns the current time. If it is nil, [time.Now] is used.
	Now func() time.Time
}

// Verify checks that t is valid for the given issuer and has not been revoked.
func (v *SignatureVerifier) Verify(
	ctx context.Context,
	t *Token,
	issuer principal.Principal,
	revocationKey string,
) (principal.Principal, error) {
	if !slices.Contains(t.Permit.Issuers, issuer) {
		return principal.Anonymous, ErrIssuerNotDeclared
	}

	if !t.Permit.HasPermission(PermissionAccess) {
		return principal.Anonymous, ErrMissingPermission
	}

	if t.Permit.ExpiresAt != 0 && !v.now().Before(time.Unix(t.Permit.ExpiresAt, 0)) {
		return principal.Anonymous, ErrExpired
	}

	if len(t.PublicKey) != ed25519.PublicKeySize {
		return principal.Anonymous, ErrInvalidSignature
	}

	payload, err := codec.Marshal(t.Permit)
	if err != nil {
		return principal.Anonymous, fmt.Errorf("unable to encode permit: %w", err)
	}

	if !ed25519.Verify(t.PublicKey, payload, t.Signature) {
		return principal.Anonymous, ErrInvalidSignature
	}

	p := t.Principal()

	if v.Registry != nil {
		revoked, err := v.Registry.IsRevoked(ctx, revocationKey, p, t.Permit.Name)
		if err != nil {
			return principal.Anonymous, err
		}
		if revoked {
			return principal.Anonymous, ErrRevoked
		}
	}

	return p, nil
}

func (v *SignatureVerifier) now() time.Time {
	if v.Now == nil {
		return time.Now()
	}
	return v.Now()
}
