package memorykv

import (
	"context"
	"sync"

	"github.com/dogmatiq/permitkv/kv"
)

// BinaryStore is an in-memory implementation of [kv.BinaryStore].
type BinaryStore struct {
	keyspaces sync.Map // map[string]*state[string, []byte]
}

// Open returns the keyspace with the given name.
func (s *BinaryStore) Open(ctx context.Context, name string) (kv.BinaryKeyspace, error) {
	return &keyspace[[]byte, []byte, string]{
		name:  name,
		state: load[string, []byte](&s.keyspaces, name),
		marshalKey: func(k []byte) string {
			return string(k)
		},
	}, ctx.Err()
}

// Store is an in-memory implementation of [kv.Store] that stores values of
// type V without marshaling them.
//
// Values are deep-cloned on the way in and out of the store.
type Store[K comparable, V any] struct {
	keyspaces sync.Map // map[string]*state[K, V]
}

// Open returns the keyspace with the given name.
func (s *Store[K, V]) Open(ctx context.Context, name string) (kv.Keyspace[K, V], error) {
	return &keyspace[K, V, K]{
		name:  name,
		state: load[K, V](&s.keyspaces, name),
		marshalKey: func(k K) K {
			return k
		},
	}, ctx.Err()
}

func load[C comparable, V any](m *sync.Map, name string) *state[C, V] {
	st, ok := m.Load(name)

	if !ok {
		st, _ = m.LoadOrStore(name, &state[C, V]{})
	}

	return st.(*state[C, V])
}
