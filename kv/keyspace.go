package kv

import "context"

// Revision is the version of a key/value pair, used for optimistic concurrency
// control.
//
// A key that is not present in a keyspace has a revision of zero. Each
// successful call to [Keyspace.Set] increments the key's revision by one.
// Deleting a key resets its revision to zero.
type Revision uint64

// A Keyspace is an isolated collection of key/value pairs.
type Keyspace[K, V any] interface {
	// Name returns the name of the keyspace.
	Name() string

	// Get returns the value associated with k and its current revision.
	//
	// If the key does not exist v is the zero-value of V and r is zero.
	Get(ctx context.Context, k K) (v V, r Revision, err error)

	// Has returns true if k is present in the keyspace.
	Has(ctx context.Context, k K) (ok bool, err error)

	// Set associates a value with k.
	//
	// r must be the current revision of k, as returned by [Keyspace.Get],
	// otherwise a [ConflictError] is returned. A revision of zero asserts that
	// k is not present in the keyspace.
	//
	// If v is the zero-value of V (or equivalent), the key is deleted.
	Set(ctx context.Context, k K, v V, r Revision) error

	// Close closes the keyspace.
	Close() error
}
