// Package auth resolves the identity of a caller from an optional capability
// token.
package auth

import (
	"context"
	"errors"
	"slices"

	"github.com/dogmatiq/permitkv/capability"
	"github.com/dogmatiq/permitkv/principal"
)

var (
	// ErrNoIssuersDeclared indicates that a token does not name any issuer.
	ErrNoIssuersDeclared = errors.New("token does not declare any issuers")

	// ErrUntrustedIssuer indicates that none of the issuers named by a token
	// is trusted.
	ErrUntrustedIssuer = errors.New("token does not declare a trusted issuer")

	// ErrVerificationFailed indicates that the verifier rejected a token.
	ErrVerificationFailed = errors.New("token verification failed")
)

// VerificationError is returned by [Authenticator.Authenticate] when the
// verifier rejects a token.
type VerificationError struct {
	Issuer principal.Principal
	Reason error
}

func (e VerificationError) Error() string {
	return "token verification failed for issuer " + e.Issuer.String() + ": " + e.Reason.Error()
}

// Is returns true if target is [ErrVerificationFailed].
func (e VerificationError) Is(target error) bool {
	return target == ErrVerificationFailed
}

func (e VerificationError) Unwrap() error {
	return e.Reason
}

// Authenticator resolves the principal that presented a capability token.
type Authenticator struct {
	Verifier capability.Verifier

	// RevocationKey is the name of the revocation registry consulted by the
	// verifier. If it is empty, [capability.DefaultRevocationKey] is used.
	RevocationKey string
}

// Authenticate returns the principal attested by t.
//
// If t is nil the caller is anonymous and [principal.Anonymous] is returned
// without error. Otherwise t must declare at least one issuer that appears in
// trusted. The first such issuer, in the order of trusted, is used to verify
// the token. The verifier is consulted exactly once.
func (a *Authenticator) Authenticate(
	ctx context.Context,
	t *capability.Token,
	trusted []principal.Principal,
) (principal.Principal, error) {
	if t == nil {
		return principal.Anonymous, nil
	}

	declared := t.Permit.Issuers
	if len(declared) == 0 {
		return principal.Anonymous, ErrNoIssuersDeclared
	}

	i := slices.IndexFunc(
		trusted,
		func(p principal.Principal) bool {
			return slices.Contains(declared, p)
		},
	)
	if i == -1 {
		return principal.Anonymous, ErrUntrustedIssuer
	}

	issuer := trusted[i]

	p, err := a.Verifier.Verify(ctx, t, issuer, a.Revocations())
	if err != nil {
		return principal.Anonymous, VerificationError{issuer, err}
	}

	if p.IsAnonymous() {
		return principal.Anonymous, VerificationError{issuer, errors.New("verifier did not attest to a principal")}
	}

	return p, nil
}

// Revocations returns the name of the revocation registry consulted by the
// verifier.
func (a *Authenticator) Revocations() string {
	if a.RevocationKey == "" {
		return capability.DefaultRevocationKey
	}
	return a.RevocationKey
}
