package memoryset

import (
	"context"
	"sync"

	"github.com/dogmatiq/permitkv/set"
)

// Store is an in-memory implementation of [set.Store].
type Store[T comparable] struct {
	sets sync.Map // map[string]*state[T]
}

// Open returns the set with the given name.
func (s *Store[T]) Open(ctx context.Context, name string) (set.Set[T], error) {
	return &setimpl[T, T]{
		name:  name,
		state: load[T](&s.sets, name),
		marshalValue: func(v T) T {
			return v
		},
	}, ctx.Err()
}

// BinaryStore is an implementation of [set.BinaryStore] that stores sets in
// memory.
type BinaryStore struct {
	sets sync.Map // map[string]*state[string]
}

// Open returns the set with the given name.
func (s *BinaryStore) Open(ctx context.Context, name string) (set.BinarySet, error) {
	return &setimpl[[]byte, string]{
		name:  name,
		state: load[string](&s.sets, name),
		marshalValue: func(v []byte) string {
			return string(v)
		},
	}, ctx.Err()
}

func load[C comparable](m *sync.Map, name string) *state[C] {
	st, ok := m.Load(name)

	if !ok {
		st, _ = m.LoadOrStore(name, &state[C]{})
	}

	return st.(*state[C])
}
