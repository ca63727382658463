// Package acl defines the access control list that governs who may read and
// modify a record.
package acl

import (
	"slices"

	"github.com/dogmatiq/permitkv/principal"
)

// ACL is an access control list for a single record.
//
// The owner is fixed when the ACL is constructed. The remaining [Access] rules
// may be replaced. ACL values are immutable; every mutator returns a new ACL
// that shares no memory with the receiver.
type ACL struct {
	owner  principal.Principal
	access Access
}

// Access is the replaceable part of an [ACL].
type Access struct {
	// PublicRead, if true, allows any principal to read the record.
	PublicRead bool

	// Readers is the set of principals that may read the record in addition to
	// the owner. Order is not significant.
	Readers []principal.Principal
}

// New returns an ACL owned by the given principal that grants read access to
// nobody else.
func New(owner principal.Principal) ACL {
	return ACL{owner: owner}
}

// Owner returns the principal that owns the record.
func (a ACL) Owner() principal.Principal {
	return a.owner
}

// PublicRead returns true if any principal may read the record.
func (a ACL) PublicRead() bool {
	return a.access.PublicRead
}

// Readers returns the principals explicitly granted read access.
func (a ACL) Readers() []principal.Principal {
	return slices.Clone(a.access.Readers)
}

// Access returns a copy of the replaceable access rules.
func (a ACL) Access() Access {
	return Access{
		PublicRead: a.access.PublicRead,
		Readers:    a.Readers(),
	}
}

// IsOwner returns true if p owns the record.
func (a ACL) IsOwner(p principal.Principal) bool {
	return !p.IsAnonymous() && p == a.owner
}

// IsReadable returns true if p may read the record.
//
// The anonymous principal may read the record only if it is publicly readable.
func (a ACL) IsReadable(p principal.Principal) bool {
	if a.access.PublicRead {
		return true
	}

	if p.IsAnonymous() {
		return false
	}

	return p == a.owner || slices.Contains(a.access.Readers, p)
}

// SetPublicRead returns a copy of the ACL with the public read flag set to b.
//
// It performs no authorization check.
func (a ACL) SetPublicRead(b bool) ACL {
	a.access = a.Access()
	a.access.PublicRead = b
	return a
}

// ToggleReader returns a copy of the ACL with p added to (if allow is true) or
// removed from (if allow is false) the set of readers.
//
// It is a no-op if p is already in the desired state.
func (a ACL) ToggleReader(p principal.Principal, allow bool) ACL {
	a.access = a.Access()

	i := slices.Index(a.access.Readers, p)

	if allow && i == -1 && !p.IsAnonymous() {
		a.access.Readers = append(a.access.Readers, p)
	} else if !allow && i != -1 {
		a.access.Readers = slices.Delete(a.access.Readers, i, i+1)
	}

	return a
}

// TransferOwner returns a copy of the ACL owned by p.
func (a ACL) TransferOwner(p principal.Principal) ACL {
	a.access = a.Access()
	a.owner = p
	return a
}

// WithAccess returns a copy of the ACL with its access rules replaced by x.
//
// Duplicate and anonymous readers are discarded.
func (a ACL) WithAccess(x Access) ACL {
	a.access = Access{PublicRead: x.PublicRead}

	for _, p := range x.Readers {
		a = a.ToggleReader(p, true)
	}

	return a
}

// Equal returns true if a and b grant identical access.
func (a ACL) Equal(b ACL) bool {
	if a.owner != b.owner || a.access.PublicRead != b.access.PublicRead {
		return false
	}

	if len(a.access.Readers) != len(b.access.Readers) {
		return false
	}

	for _, p := range a.access.Readers {
		if !slices.Contains(b.access.Readers, p) {
			return false
		}
	}

	return true
}
