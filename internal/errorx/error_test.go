package errorx_test

import (
	"errors"
	"testing"

	. "github.com/dogmatiq/permitkv/internal/errorx"
)

func TestWrap(t *testing.T) {
	t.Parallel()

	t.Run("it does nothing if the error is nil", func(t *testing.T) {
		t.Parallel()

		var err error
		Wrap(&err, "<context>")

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("it adds context to the error", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("<cause>")
		err := cause
		Wrap(&err, "unable to %s", "<op>")

		if got, want := err.Error(), "unable to <op>: <cause>"; got != want {
			t.Fatalf("unexpected message: got %q, want %q", got, want)
		}

		if !errors.Is(err, cause) {
			t.Fatal("expected wrapped error to match its cause")
		}
	})
}

func TestWrapUnless(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("<sentinel>")

	err := sentinel
	WrapUnless(&err, []error{sentinel}, "<context>")

	if err != sentinel {
		t.Fatalf("expected sentinel to pass through unchanged, got %v", err)
	}

	other := errors.New("<other>")
	err = other
	WrapUnless(&err, []error{sentinel}, "<context>")

	if err == other {
		t.Fatal("expected other error to be wrapped")
	}
}
