// Package server exposes a record store to remote callers over a Unix socket.
package server

import (
	"context"
	"sync"

	"github.com/dogmatiq/permitkv/acl"
	"github.com/dogmatiq/permitkv/auth"
	"github.com/dogmatiq/permitkv/capability"
	"github.com/dogmatiq/permitkv/internal/telemetry"
	"github.com/dogmatiq/permitkv/principal"
	"github.com/dogmatiq/permitkv/record"
)

// Service authenticates callers and performs record operations on their
// behalf.
//
// It is safe for concurrent use.
type Service struct {
	Authenticator *auth.Authenticator
	Records       *record.Store
	Registry      *capability.Registry

	// TrustedIssuers is the ordered list of issuers that tokens are verified
	// against. It is read from the deployment configuration at startup.
	TrustedIssuers []principal.Principal

	Telemetry *telemetry.Provider

	once    sync.Once
	telem   *telemetry.Recorder
	denials telemetry.Instrument[int64]
}

// Create adds a new record owned by the token's principal.
func (s *Service) Create(
	ctx context.Context,
	t *capability.Token,
	key string,
	p record.Payload,
	seed record.Seed,
) error {
	return s.do(
		ctx, ActionCreate, key, t,
		func(ctx context.Context, caller principal.Principal) error {
			return s.Records.Create(ctx, caller, key, p, seed)
		},
	)
}

// Read returns the record with the given key.
func (s *Service) Read(
	ctx context.Context,
	t *capability.Token,
	key string,
) (v record.View, ok bool, err error) {
	err = s.do(
		ctx, ActionRead, key, t,
		func(ctx context.Context, caller principal.Principal) error {
			v, ok, err = s.Records.Read(ctx, caller, key)
			return err
		},
	)
	return v, ok, err
}

// UpdatePayload replaces the payload of an existing record.
func (s *Service) UpdatePayload(
	ctx context.Context,
	t *capability.Token,
	key string,
	p record.Payload,
) error {
	return s.do(
		ctx, ActionUpdatePayload, key, t,
		func(ctx context.Context, caller principal.Principal) error {
			return s.Records.UpdatePayload(ctx, caller, key, p)
		},
	)
}

// UpdateACL replaces the access rules of an existing record.
func (s *Service) UpdateACL(
	ctx context.Context,
	t *capability.Token,
	key string,
	x acl.Access,
) error {
	return s.do(
		ctx, ActionUpdateACL, key, t,
		func(ctx context.Context, caller principal.Principal) error {
			return s.Records.UpdateACL(ctx, caller, key, x)
		},
	)
}

// Delete removes an existing record.
func (s *Service) Delete(
	ctx context.Context,
	t *capability.Token,
	key string,
) error {
	return s.do(
		ctx, ActionDelete, key, t,
		func(ctx context.Context, caller principal.Principal) error {
			return s.Records.Delete(ctx, caller, key)
		},
	)
}

// RevokePermit revokes one of the caller's own permits, by name.
//
// It returns false if the permit was already revoked.
func (s *Service) RevokePermit(
	ctx context.Context,
	t *capability.Token,
	name string,
) (ok bool, err error) {
	err = s.do(
		ctx, ActionRevokePermit, "", t,
		func(ctx context.Context, caller principal.Principal) error {
			if caller.IsAnonymous() {
				return record.ErrUnauthenticated
			}
			if name == "" {
				return ErrInvalidRequest
			}

			ok, err = s.Registry.Revoke(ctx, s.Authenticator.Revocations(), caller, name)
			return err
		},
	)
	return ok, err
}

// do authenticates the caller and invokes fn within a telemetry span.
func (s *Service) do(
	ctx context.Context,
	action, key string,
	t *capability.Token,
	fn func(context.Context, principal.Principal) error,
) error {
	s.init()

	ctx, span := s.telem.StartSpan(
		ctx,
		action,
		telemetry.String("record.key", key),
		telemetry.Bool("caller.token_present", t != nil),
	)
	defer span.End()

	caller, err := s.Authenticator.Authenticate(ctx, t, s.TrustedIssuers)
	if err != nil {
		s.denials(ctx, 1, telemetry.String("code", CodeOf(err)))
		s.telem.Error(ctx, action+".auth_error", "unable to authenticate caller", err)
		return err
	}

	span.SetAttributes(telemetry.String("caller.principal", caller))

	if err := fn(ctx, caller); err != nil {
		code := CodeOf(err)
		if code == CodeInternal {
			s.telem.Error(ctx, action+".error", "unable to perform operation", err)
		} else {
			s.denials(ctx, 1, telemetry.String("code", code))
			s.telem.Info(ctx, action+".denied", "operation denied", telemetry.String("code", code))
		}
		return err
	}

	s.telem.Info(ctx, action+".ok", "operation performed")

	return nil
}

func (s *Service) init() {
	s.once.Do(func() {
		p := s.Telemetry
		if p == nil {
			p = &telemetry.Provider{}
		}

		s.telem = p.Recorder("github.com/dogmatiq/permitkv/server")
		s.denials = s.telem.Counter("denials", "{request}", "The number of requests that were rejected.")
	})
}
