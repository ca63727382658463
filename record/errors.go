package record

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated indicates that the operation requires an
	// authenticated caller.
	ErrUnauthenticated = errors.New("caller is not authenticated")

	// ErrForbidden indicates that the caller is authenticated but is not
	// permitted to perform the operation.
	ErrForbidden = errors.New("caller is not permitted to perform this operation")

	// ErrNotFound indicates that the target of a mutation does not exist.
	ErrNotFound = errors.New("record does not exist")

	// ErrAlreadyExists indicates that a record could not be created because
	// the key is already in use.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrInvalidKey indicates that a record key is not acceptable.
	ErrInvalidKey = errors.New("record key must not be empty")
)

// Error is returned by each [Store] operation that fails.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("unable to %s record %q: %s", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
