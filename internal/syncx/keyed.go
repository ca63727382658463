package syncx

import "sync"

// KeyedMutex provides a separate exclusive lock for each key.
//
// Locks are created on demand and discarded once no goroutine holds or waits
// for them, so the number of live locks is bounded by the number of keys
// currently in use.
type KeyedMutex[K comparable] struct {
	m     sync.Mutex
	locks map[K]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

// Lock acquires the lock for k. It returns a function that releases it.
func (m *KeyedMutex[K]) Lock(k K) (unlock func()) {
	m.m.Lock()
	if m.locks == nil {
		m.locks = map[K]*keyedLock{}
	}

	l, ok := m.locks[k]
	if !ok {
		l = &keyedLock{}
		m.locks[k] = l
	}
	l.refs++
	m.m.Unlock()

	l.Lock()

	return func() {
		l.Unlock()

		m.m.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, k)
		}
		m.m.Unlock()
	}
}

// Len returns the number of keys that currently have a lock allocated.
func (m *KeyedMutex[K]) Len() int {
	m.m.Lock()
	defer m.m.Unlock()
	return len(m.locks)
}
