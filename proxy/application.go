// Package proxy stores typed application values in a remote record store.
package proxy

import (
	"context"

	"github.com/dogmatiq/permitkv/acl"
	"github.com/dogmatiq/permitkv/capability"
	"github.com/dogmatiq/permitkv/format"
	"github.com/dogmatiq/permitkv/internal/errorx"
	"github.com/dogmatiq/permitkv/principal"
	"github.com/dogmatiq/permitkv/record"
)

// Records is the interface through which the application reaches the record
// store. It is implemented by both server.Client and server.Service.
type Records interface {
	Create(ctx context.Context, t *capability.Token, key string, p record.Payload, seed record.Seed) error
	Read(ctx context.Context, t *capability.Token, key string) (record.View, bool, error)
	UpdatePayload(ctx context.Context, t *capability.Token, key string, p record.Payload) error
	UpdateACL(ctx context.Context, t *capability.Token, key string, x acl.Access) error
	Delete(ctx context.Context, t *capability.Token, key string) error
}

// Application stores unsigned 32-bit integers on behalf of its callers.
type Application struct {
	Records Records
}

// Set stores a new value under key with the given visibility.
func (a *Application) Set(
	ctx context.Context,
	t *capability.Token,
	key string,
	v uint32,
	vis Visibility,
) (err error) {
	defer errorx.Wrap(&err, "unable to set %q", key)
	return a.Records.Create(ctx, t, key, format.EncodeUint32(v), vis.seed())
}

// Get returns the value stored under key.
//
// ok is false if there is no such value.
func (a *Application) Get(
	ctx context.Context,
	t *capability.Token,
	key string,
) (_ uint32, ok bool, err error) {
	defer errorx.Wrap(&err, "unable to get %q", key)

	view, ok, err := a.Records.Read(ctx, t, key)
	if err != nil || !ok {
		return 0, false, err
	}

	v, err := format.DecodeUint32(view.Payload)
	if err != nil {
		return 0, false, err
	}

	return v, true, nil
}

// Update replaces the value stored under key.
func (a *Application) Update(
	ctx context.Context,
	t *capability.Token,
	key string,
	v uint32,
) (err error) {
	defer errorx.Wrap(&err, "unable to update %q", key)
	return a.Records.UpdatePayload(ctx, t, key, format.EncodeUint32(v))
}

// Share grants (if allow is true) or revokes (if allow is false) read access
// to the value stored under key. Only the owner may share a value.
func (a *Application) Share(
	ctx context.Context,
	t *capability.Token,
	key string,
	p principal.Principal,
	allow bool,
) (err error) {
	defer errorx.Wrap(&err, "unable to share %q", key)

	view, ok, err := a.Records.Read(ctx, t, key)
	if err != nil {
		return err
	}
	if !ok {
		return record.ErrNotFound
	}

	// The update is sent even if the toggle is a no-op, so that only the
	// owner can ever succeed.
	next := view.ACL.ToggleReader(p, allow)
	return a.Records.UpdateACL(ctx, t, key, next.Access())
}

// Delete removes the value stored under key.
func (a *Application) Delete(
	ctx context.Context,
	t *capability.Token,
	key string,
) (err error) {
	defer errorx.Wrap(&err, "unable to delete %q", key)
	return a.Records.Delete(ctx, t, key)
}
