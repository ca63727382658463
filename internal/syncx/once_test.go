package syncx_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/dogmatiq/permitkv/internal/syncx"
)

func TestSucceedOnce(t *testing.T) {
	t.Parallel()

	t.Run("it retries after a failure", func(t *testing.T) {
		t.Parallel()

		var (
			once  SucceedOnce
			calls int
		)

		fail := errors.New("<error>")
		fn := func(context.Context) error {
			calls++
			if calls == 1 {
				return fail
			}
			return nil
		}

		if err := once.Do(t.Context(), fn); err != fail {
			t.Fatalf("unexpected error: got %v, want %v", err, fail)
		}

		if err := once.Do(t.Context(), fn); err != nil {
			t.Fatal(err)
		}

		if err := once.Do(t.Context(), fn); err != nil {
			t.Fatal(err)
		}

		if calls != 2 {
			t.Fatalf("unexpected number of calls: got %d, want 2", calls)
		}
	})
}
