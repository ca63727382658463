package acl

import (
	"github.com/dogmatiq/permitkv/internal/codec"
	"github.com/dogmatiq/permitkv/principal"
)

// wire is the CBOR representation of an [ACL].
type wire struct {
	Owner      principal.Principal   `cbor:"1,keyasint"`
	PublicRead bool                  `cbor:"2,keyasint,omitempty"`
	Readers    []principal.Principal `cbor:"3,keyasint,omitempty"`
}

// MarshalCBOR returns the CBOR representation of the ACL.
func (a ACL) MarshalCBOR() ([]byte, error) {
	return codec.Marshal(wire{
		Owner:      a.owner,
		PublicRead: a.access.PublicRead,
		Readers:    a.access.Readers,
	})
}

// UnmarshalCBOR populates the ACL from its CBOR representation.
func (a *ACL) UnmarshalCBOR(data []byte) error {
	var w wire
	if err := codec.Unmarshal(data, &w); err != nil {
		return err
	}

	*a = New(w.Owner).WithAccess(Access{
		PublicRead: w.PublicRead,
		Readers:    w.Readers,
	})

	return nil
}
