// Package record implements an access-controlled store of versioned records.
package record

import (
	"bytes"
	"slices"

	"github.com/dogmatiq/permitkv/acl"
	"github.com/dogmatiq/permitkv/principal"
)

// Payload is the opaque content of a record along with a tag that identifies
// its binary layout.
type Payload struct {
	Version string `cbor:"1,keyasint"`
	Data    []byte `cbor:"2,keyasint,omitempty"`
}

// Equal returns true if p and x are identical.
func (p Payload) Equal(x Payload) bool {
	return p.Version == x.Version && bytes.Equal(p.Data, x.Data)
}

func (p Payload) clone() Payload {
	p.Data = slices.Clone(p.Data)
	return p
}

// Record is the persisted form of a single key.
type Record struct {
	Key     string  `cbor:"1,keyasint"`
	Payload Payload `cbor:"2,keyasint"`
	ACL     acl.ACL `cbor:"3,keyasint"`
}

// Seed describes the initial access rules of a new record.
type Seed struct {
	PublicRead bool
	Readers    []principal.Principal
}

// View is a snapshot of a record returned to a caller.
//
// It shares no memory with the store.
type View struct {
	Key     string
	Payload Payload
	ACL     acl.ACL
}

func viewOf(r Record) View {
	return View{
		Key:     r.Key,
		Payload: r.Payload.clone(),
		ACL:     r.ACL.WithAccess(r.ACL.Access()),
	}
}
