package server

import (
	"errors"

	"github.com/dogmatiq/permitkv/auth"
	"github.com/dogmatiq/permitkv/format"
	"github.com/dogmatiq/permitkv/internal/codec"
	"github.com/dogmatiq/permitkv/principal"
	"github.com/dogmatiq/permitkv/record"
)

// Actions supported by the socket protocol.
const (
	ActionCreate        = "create"
	ActionRead          = "read"
	ActionUpdatePayload = "update_payload"
	ActionUpdateACL     = "update_acl"
	ActionDelete        = "delete"
	ActionRevokePermit  = "revoke_permit"
)

// Request is the wire-format envelope of every socket protocol request.
//
// Fields that are not used by the requested action are ignored.
type Request struct {
	Action     string                `cbor:"action"`
	Token      []byte                `cbor:"token,omitempty"`
	Key        string                `cbor:"key,omitempty"`
	Version    string                `cbor:"version,omitempty"`
	Data       []byte                `cbor:"data,omitempty"`
	PublicRead bool                  `cbor:"public_read,omitempty"`
	Readers    []principal.Principal `cbor:"readers,omitempty"`
	Permit     string                `cbor:"permit,omitempty"`
}

// Response is the wire-format envelope of every socket protocol response.
type Response struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Code  Code             `cbor:"code,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

// ReadResult is the data returned by the "read" action.
type ReadResult struct {
	Found      bool                  `cbor:"found"`
	Key        string                `cbor:"key,omitempty"`
	Version    string                `cbor:"version,omitempty"`
	Data       []byte                `cbor:"data,omitempty"`
	Owner      principal.Principal   `cbor:"owner,omitempty"`
	PublicRead bool                  `cbor:"public_read,omitempty"`
	Readers    []principal.Principal `cbor:"readers,omitempty"`
}

// RevokeResult is the data returned by the "revoke_permit" action.
type RevokeResult struct {
	Revoked bool `cbor:"revoked"`
}

// Code identifies the class of error carried by a failed [Response].
type Code string

// Error codes carried by the socket protocol.
const (
	CodeUnauthenticated    Code = "unauthenticated"
	CodeNoIssuersDeclared  Code = "no_issuers_declared"
	CodeUntrustedIssuer    Code = "untrusted_issuer"
	CodeVerificationFailed Code = "verification_failed"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeAlreadyExists      Code = "already_exists"
	CodeUnknownFormat      Code = "unknown_format"
	CodeInvalidKey         Code = "invalid_key"
	CodeInvalidRequest     Code = "invalid_request"
	CodeInternal           Code = "internal"
)

// ErrInvalidRequest indicates that a request could not be decoded or was
// missing a required field.
var ErrInvalidRequest = errors.New("invalid request")

// sentinels maps each code to the error it represents. Each code appears
// exactly once. Order matters when an error matches more than one sentinel.
var sentinels = []struct {
	Code Code
	Err  error
}{
	{CodeUnauthenticated, record.ErrUnauthenticated},
	{CodeNoIssuersDeclared, auth.ErrNoIssuersDeclared},
	{CodeUntrustedIssuer, auth.ErrUntrustedIssuer},
	{CodeVerificationFailed, auth.ErrVerificationFailed},
	{CodeForbidden, record.ErrForbidden},
	{CodeNotFound, record.ErrNotFound},
	{CodeAlreadyExists, record.ErrAlreadyExists},
	{CodeUnknownFormat, format.ErrUnknownFormat},
	{CodeInvalidKey, record.ErrInvalidKey},
	{CodeInvalidRequest, ErrInvalidRequest},
}

// CodeOf returns the code that describes err.
func CodeOf(err error) Code {
	for _, s := range sentinels {
		if errors.Is(err, s.Err) {
			return s.Code
		}
	}
	return CodeInternal
}

// sentinelOf returns the error represented by c, or nil if c has no
// equivalent error.
func sentinelOf(c Code) error {
	for _, s := range sentinels {
		if s.Code == c {
			return s.Err
		}
	}
	return nil
}
