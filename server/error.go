package server

import "fmt"

// RemoteError is returned by [Client] when the server responds with a
// failure.
//
// It matches the sentinel error that corresponds to its code, so callers can
// use [errors.Is] with the same errors they would see in-process.
type RemoteError struct {
	Action  string
	Code    Code
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s failed (%s): %s", e.Action, e.Code, e.Message)
}

// Is returns true if target is the sentinel error that corresponds to the
// error's code.
func (e *RemoteError) Is(target error) bool {
	s := sentinelOf(e.Code)
	return s != nil && s == target
}
