// Package principal defines the identity of a caller.
package principal

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/zeebo/blake3"
)

// addressSize is the number of bytes of the key hash that form an address.
const addressSize = 20

// Principal is the address of an authenticated identity.
//
// The zero value represents an anonymous caller, that is, one that did not
// present a capability token.
type Principal string

// Anonymous is the principal of a caller that has not authenticated.
const Anonymous Principal = ""

// FromPublicKey returns the principal that is identified by the given Ed25519
// public key.
func FromPublicKey(pub ed25519.PublicKey) Principal {
	h := blake3.Sum256(pub)
	return Principal(base58.Encode(h[:addressSize]))
}

// Parse parses a principal address.
func Parse(s string) (Principal, error) {
	if s == "" {
		return Anonymous, errors.New("address must not be empty")
	}

	data, err := base58.Decode(s)
	if err != nil {
		return Anonymous, fmt.Errorf("address %q is not valid base58: %w", s, err)
	}

	if len(data) != addressSize {
		return Anonymous, fmt.Errorf("address %q decodes to %d bytes, want %d", s, len(data), addressSize)
	}

	return Principal(s), nil
}

// MustParse parses a principal address, or panics if it is invalid.
func MustParse(s string) Principal {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// ParseAll parses each of the given addresses.
func ParseAll(addresses ...string) ([]Principal, error) {
	var result []Principal

	for _, s := range addresses {
		p, err := Parse(s)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}

	return result, nil
}

// IsAnonymous returns true if p is the anonymous principal.
func (p Principal) IsAnonymous() bool {
	return p == Anonymous
}

func (p Principal) String() string {
	if p == Anonymous {
		return "<anonymous>"
	}
	return string(p)
}
