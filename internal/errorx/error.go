package errorx

import (
	"errors"
	"fmt"
)

// Wrap adds additional context to an error.
//
// It is intended to be deferred with a named error return.
func Wrap(err *error, format string, args ...any) {
	if err == nil {
		panic("err must not be nil")
	}

	if *err == nil {
		return
	}

	*err = fmt.Errorf(format+": %w", append(args, *err)...)
}

// WrapUnless is like [Wrap], but leaves err unchanged if it matches any of
// the given targets (as per [errors.Is]).
func WrapUnless(err *error, targets []error, format string, args ...any) {
	if err == nil {
		panic("err must not be nil")
	}

	for _, t := range targets {
		if errors.Is(*err, t) {
			return
		}
	}

	Wrap(err, format, args...)
}
