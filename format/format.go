// Package format encodes typed application values as versioned record
// payloads.
package format

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dogmatiq/permitkv/record"
)

// VersionUint32 is the version tag of a payload that contains a big-endian
// unsigned 32-bit integer.
const VersionUint32 = "1"

var (
	// ErrUnknownFormat indicates that a payload's version tag is not
	// recognized.
	ErrUnknownFormat = errors.New("unknown payload format")

	// ErrMalformed indicates that a payload does not match the layout
	// described by its version tag.
	ErrMalformed = errors.New("malformed payload")
)

// EncodeUint32 returns the payload representation of v.
func EncodeUint32(v uint32) record.Payload {
	return record.Payload{
		Version: VersionUint32,
		Data:    binary.BigEndian.AppendUint32(nil, v),
	}
}

// DecodeUint32 returns the value represented by p.
func DecodeUint32(p record.Payload) (uint32, error) {
	if p.Version != VersionUint32 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, p.Version)
	}

	if len(p.Data) != 4 {
		return 0, fmt.Errorf("%w: version %q requires 4 bytes, got %d", ErrMalformed, p.Version, len(p.Data))
	}

	return binary.BigEndian.Uint32(p.Data), nil
}
