// Package deployment persists the configuration that is fixed when the
// service is deployed.
package deployment

import (
	"context"
	"errors"
	"fmt"

	"github.com/dogmatiq/permitkv/internal/errorx"
	"github.com/dogmatiq/permitkv/kv"
	"github.com/dogmatiq/permitkv/marshaler"
	"github.com/dogmatiq/permitkv/principal"
)

const (
	// Keyspace is the name of the keyspace that holds the configuration.
	Keyspace = "config"

	// Key is the key of the configuration within [Keyspace].
	Key = "deployment"
)

var (
	// ErrNotConfigured indicates that the configuration has not been saved.
	ErrNotConfigured = errors.New("deployment has not been configured")

	// ErrNotOwner indicates that the caller may not replace the
	// configuration because they are not its owner.
	ErrNotOwner = errors.New("only the owner may replace the deployment configuration")
)

// Config is the deployment configuration.
type Config struct {
	// Owner is the principal that may replace the configuration.
	Owner principal.Principal `json:"owner"`

	// TrustedIssuers is the ordered list of issuers that capability tokens
	// are verified against.
	TrustedIssuers []principal.Principal `json:"trusted_issuers"`
}

// Validate returns an error if c contains an invalid address.
func (c Config) Validate() error {
	if _, err := principal.Parse(string(c.Owner)); err != nil {
		return fmt.Errorf("invalid owner: %w", err)
	}

	for _, p := range c.TrustedIssuers {
		if _, err := principal.Parse(string(p)); err != nil {
			return fmt.Errorf("invalid trusted issuer: %w", err)
		}
	}

	return nil
}

// Repository loads and saves the deployment configuration.
type Repository struct {
	Keyspace kv.Keyspace[string, Config]
}

// Open opens the configuration keyspace within s.
func Open(ctx context.Context, s kv.BinaryStore) (*Repository, error) {
	ks, err := kv.NewMarshalingStore(
		s,
		marshaler.String,
		marshaler.NewJSON[Config](),
	).Open(ctx, Keyspace)
	if err != nil {
		return nil, err
	}

	return &Repository{ks}, nil
}

// Close closes the underlying keyspace.
func (r *Repository) Close() error {
	return r.Keyspace.Close()
}

// Load returns the current configuration.
//
// It returns [ErrNotConfigured] if no configuration has been saved.
func (r *Repository) Load(ctx context.Context) (_ Config, err error) {
	defer errorx.WrapUnless(&err, []error{ErrNotConfigured}, "unable to load deployment configuration")

	c, rev, err := r.Keyspace.Get(ctx, Key)
	if err != nil {
		return Config{}, err
	}

	if rev == 0 {
		return Config{}, ErrNotConfigured
	}

	return c, nil
}

// Save stores c as the current configuration.
//
// If a configuration already exists, caller must be its owner. The owner of c
// may differ from the caller, transferring ownership.
func (r *Repository) Save(
	ctx context.Context,
	caller principal.Principal,
	c Config,
) (err error) {
	defer errorx.WrapUnless(&err, []error{ErrNotOwner}, "unable to save deployment configuration")

	if err := c.Validate(); err != nil {
		return err
	}

	existing, rev, err := r.Keyspace.Get(ctx, Key)
	if err != nil {
		return err
	}

	if rev != 0 && existing.Owner != caller {
		return ErrNotOwner
	}

	return r.Keyspace.Set(ctx, Key, c, rev)
}
