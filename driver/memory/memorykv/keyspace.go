package memorykv

import (
	"context"
	"errors"
	"reflect"
	"sync"

	"github.com/dogmatiq/permitkv/driver/memory/internal/clone"
	"github.com/dogmatiq/permitkv/kv"
)

// state is the in-memory state of a keyspace.
type state[C comparable, V any] struct {
	sync.RWMutex
	Entries map[C]entry[V]
}

// entry is a value and its revision.
type entry[V any] struct {
	Value    V
	Revision kv.Revision
}

// keyspace is an implementation of [kv.Keyspace] that manipulates a keyspace's
// in-memory [state].
type keyspace[K, V any, C comparable] struct {
	name       string
	state      *state[C, V]
	marshalKey func(K) C
}

func (ks *keyspace[K, V, C]) Name() string {
	return ks.name
}

func (ks *keyspace[K, V, C]) Get(ctx context.Context, k K) (v V, r kv.Revision, err error) {
	if ks.state == nil {
		panic("keyspace is closed")
	}

	ks.state.RLock()
	defer ks.state.RUnlock()

	e := ks.state.Entries[ks.marshalKey(k)]
	return clone.Clone(e.Value), e.Revision, ctx.Err()
}

func (ks *keyspace[K, V, C]) Has(ctx context.Context, k K) (ok bool, err error) {
	if ks.state == nil {
		panic("keyspace is closed")
	}

	ks.state.RLock()
	defer ks.state.RUnlock()

	_, ok = ks.state.Entries[ks.marshalKey(k)]
	return ok, ctx.Err()
}

func (ks *keyspace[K, V, C]) Set(ctx context.Context, k K, v V, r kv.Revision) error {
	if ks.state == nil {
		panic("keyspace is closed")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	v = clone.Clone(v)
	c := ks.marshalKey(k)

	ks.state.Lock()
	defer ks.state.Unlock()

	current := ks.state.Entries[c]
	if current.Revision != r {
		return kv.ConflictError[K]{
			Keyspace: ks.name,
			Key:      k,
			Revision: r,
		}
	}

	if isZero(v) {
		delete(ks.state.Entries, c)
		return nil
	}

	if ks.state.Entries == nil {
		ks.state.Entries = map[C]entry[V]{}
	}

	ks.state.Entries[c] = entry[V]{v, r + 1}

	return nil
}

func (ks *keyspace[K, V, C]) Close() error {
	if ks.state == nil {
		return errors.New("keyspace is already closed")
	}

	ks.state = nil

	return nil
}

// isZero returns true if v is the zero-value of V, or an empty byte slice.
func isZero[V any](v V) bool {
	if b, ok := any(v).([]byte); ok {
		return len(b) == 0
	}
	return reflect.ValueOf(&v).Elem().IsZero()
}
