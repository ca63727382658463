// Package capability implements signed capability tokens (permits) that
// callers present to prove their identity.
package capability

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"slices"

	"github.com/dogmatiq/permitkv/internal/codec"
	"github.com/dogmatiq/permitkv/principal"
)

// PermissionAccess is the permission a permit must carry to be used for
// authentication.
const PermissionAccess = "access"

// Permit is the signed portion of a capability [Token].
type Permit struct {
	// Name identifies the permit among those issued by the same key. It is the
	// unit of revocation.
	Name string `cbor:"1,keyasint"`

	// Issuers is the set of issuers that the permit may be presented to.
	Issuers []principal.Principal `cbor:"2,keyasint"`

	// Permissions is the set of permissions the permit grants.
	Permissions []string `cbor:"3,keyasint,omitempty"`

	// IssuedAt is the Unix time (in seconds) at which the permit was signed.
	IssuedAt int64 `cbor:"4,keyasint"`

	// ExpiresAt is the Unix time (in seconds) after which the permit is no
	// longer valid. Zero means the permit does not expire.
	ExpiresAt int64 `cbor:"5,keyasint,omitempty"`
}

// HasPermission returns true if the permit grants the permission p.
func (p Permit) HasPermission(perm string) bool {
	return slices.Contains(p.Permissions, perm)
}

// Token is a [Permit] together with the public key that signed it.
type Token struct {
	Permit    Permit            `cbor:"1,keyasint"`
	PublicKey ed25519.PublicKey `cbor:"2,keyasint"`
	Signature []byte            `cbor:"3,keyasint"`
}

// Principal returns the principal that signed the token.
//
// It does not verify the signature.
func (t *Token) Principal() principal.Principal {
	return principal.FromPublicKey(t.PublicKey)
}

// Sign returns a token containing p, signed with the given private key.
func Sign(key ed25519.PrivateKey, p Permit) (*Token, error) {
	if p.Name == "" {
		return nil, errors.New("permit name must not be empty")
	}

	payload, err := codec.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("unable to encode permit: %w", err)
	}

	return &Token{
		Permit:    p,
		PublicKey: key.Public().(ed25519.PublicKey),
		Signature: ed25519.Sign(key, payload),
	}, nil
}

// Marshal returns the binary representation of a token.
func Marshal(t *Token) ([]byte, error) {
	return codec.Marshal(t)
}

// Unmarshal parses the binary representation of a token.
func Unmarshal(data []byte) (*Token, error) {
	var t Token
	if err := codec.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("unable to decode token: %w", err)
	}
	return &t, nil
}
