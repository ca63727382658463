package syncx

import (
	"context"
	"sync"
	"sync/atomic"
)

// SucceedOnce is a [sync.Once] variant that allows for the operation to fail.
//
// It is used to lazily create tables and buckets the first time a store is
// opened. A failed attempt is retried by the next call to Do.
type SucceedOnce struct {
	done atomic.Bool
	m    sync.Mutex
}

// Do executes fn if and only if it has not been called successfully before.
func (o *SucceedOnce) Do(ctx context.Context, fn func(context.Context) error) error {
	if o.done.Load() {
		return nil
	}

	o.m.Lock()
	defer o.m.Unlock()

	if o.done.Load() {
		return nil
	}

	if err := fn(ctx); err != nil {
		return err
	}

	o.done.Store(true)

	return nil
}
