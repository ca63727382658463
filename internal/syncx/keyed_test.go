package syncx_test

import (
	"sync"
	"testing"

	. "github.com/dogmatiq/permitkv/internal/syncx"
)

func TestKeyedMutex(t *testing.T) {
	t.Parallel()

	t.Run("it serializes access to the same key", func(t *testing.T) {
		t.Parallel()

		var (
			m       KeyedMutex[string]
			wg      sync.WaitGroup
			counter int
		)

		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := m.Lock("<key>")
				defer unlock()
				counter++
			}()
		}

		wg.Wait()

		if counter != 50 {
			t.Fatalf("unexpected counter: got %d, want 50", counter)
		}
	})

	t.Run("it does not block other keys", func(t *testing.T) {
		t.Parallel()

		var m KeyedMutex[string]

		unlockA := m.Lock("<a>")
		unlockB := m.Lock("<b>")

		if n := m.Len(); n != 2 {
			t.Fatalf("unexpected lock count: got %d, want 2", n)
		}

		unlockA()
		unlockB()
	})

	t.Run("it discards locks that are no longer in use", func(t *testing.T) {
		t.Parallel()

		var m KeyedMutex[string]

		m.Lock("<key>")()

		if n := m.Len(); n != 0 {
			t.Fatalf("unexpected lock count: got %d, want 0", n)
		}
	})
}
