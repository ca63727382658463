package memoryset

import (
	"context"
	"errors"
	"sync"
)

// state is the in-memory state of a set.
type state[C comparable] struct {
	sync.RWMutex
	Members map[C]struct{}
}

// setimpl is an implementation of [set.Set] that manipulates a set's in-memory
// [state].
type setimpl[T any, C comparable] struct {
	name         string
	state        *state[C]
	marshalValue func(T) C
}

func (s *setimpl[T, C]) Name() string {
	return s.name
}

func (s *setimpl[T, C]) Has(ctx context.Context, v T) (ok bool, err error) {
	if s.state == nil {
		panic("set is closed")
	}

	c := s.marshalValue(v)

	s.state.RLock()
	defer s.state.RUnlock()

	_, ok = s.state.Members[c]
	return ok, ctx.Err()
}

func (s *setimpl[T, C]) Add(ctx context.Context, v T) error {
	_, err := s.TryAdd(ctx, v)
	return err
}

func (s *setimpl[T, C]) TryAdd(ctx context.Context, v T) (bool, error) {
	if s.state == nil {
		panic("set is closed")
	}

	if err := ctx.Err(); err != nil {
		return false, err
	}

	c := s.marshalValue(v)

	s.state.Lock()
	defer s.state.Unlock()

	if _, ok := s.state.Members[c]; ok {
		return false, nil
	}

	if s.state.Members == nil {
		s.state.Members = map[C]struct{}{}
	}

	s.state.Members[c] = struct{}{}

	return true, nil
}

func (s *setimpl[T, C]) Remove(ctx context.Context, v T) error {
	_, err := s.TryRemove(ctx, v)
	return err
}

func (s *setimpl[T, C]) TryRemove(ctx context.Context, v T) (bool, error) {
	if s.state == nil {
		panic("set is closed")
	}

	if err := ctx.Err(); err != nil {
		return false, err
	}

	c := s.marshalValue(v)

	s.state.Lock()
	defer s.state.Unlock()

	if _, ok := s.state.Members[c]; !ok {
		return false, nil
	}

	delete(s.state.Members, c)

	return true, nil
}

func (s *setimpl[T, C]) Close() error {
	if s.state == nil {
		return errors.New("set is already closed")
	}

	s.state = nil

	return nil
}
