package capability

import (
	"context"
	"strings"

	"github.com/dogmatiq/permitkv/internal/errorx"
	"github.com/dogmatiq/permitkv/principal"
	"github.com/dogmatiq/permitkv/set"
)

// DefaultRevocationKey is the name of the set that holds revoked permits when
// no other name is configured.
const DefaultRevocationKey = "permit_revoke"

// Registry records which permits have been revoked.
//
// Each revocation key names a separate set within the underlying store.
type Registry struct {
	Store set.Store[string]
}

// Revoke revokes the permit with the given name that was signed by p.
//
// It returns false if the permit was already revoked.
func (r *Registry) Revoke(
	ctx context.Context,
	key string,
	p principal.Principal,
	name string,
) (ok bool, err error) {
	defer errorx.Wrap(&err, "unable to revoke permit %q", name)

	s, err := r.Store.Open(ctx, key)
	if err != nil {
		return false, err
	}
	defer s.Close()

	return s.TryAdd(ctx, member(p, name))
}

// IsRevoked returns true if the permit with the given name that was signed by
// p has been revoked.
func (r *Registry) IsRevoked(
	ctx context.Context,
	key string,
	p principal.Principal,
	name string,
) (ok bool, err error) {
	defer errorx.Wrap(&err, "unable to query revocation of permit %q", name)

	s, err := r.Store.Open(ctx, key)
	if err != nil {
		return false, err
	}
	defer s.Close()

	return s.Has(ctx, member(p, name))
}

// member returns the set member that represents a revoked permit. Addresses
// never contain a slash, so the encoding is unambiguous.
func member(p principal.Principal, name string) string {
	var w strings.Builder
	w.WriteString(string(p))
	w.WriteByte('/')
	w.WriteString(name)
	return w.String()
}
