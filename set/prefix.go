package set

import "context"

// WithNamePrefix returns a [Store] that adds the given prefix to all set
// names.
func WithNamePrefix[T any](store Store[T], prefix string) Store[T] {
	if prefix == "" {
		return store
	}
	return prefixedStore[T]{store, prefix}
}

// prefixedStore is a [Store] that adds a prefix to all set names.
type prefixedStore[T any] struct {
	Store[T]
	prefix string
}

func (s prefixedStore[T]) Open(ctx context.Context, name string) (Set[T], error) {
	next, err := s.Store.Open(ctx, s.prefix+name)
	if err != nil {
		return nil, err
	}

	return prefixedSet[T]{next, name}, nil
}

// prefixedSet is a [Set] opened by a [prefixedStore].
type prefixedSet[T any] struct {
	Set[T]
	name string
}

func (s prefixedSet[T]) Name() string {
	return s.name
}
