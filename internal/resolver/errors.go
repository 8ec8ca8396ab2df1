package resolver

import "errors"

// ErrBadRequest marks malformed or missing caller input. Requests failing
// this way are rejected before any browser session is started.
var ErrBadRequest = errors.New("bad request")

// ConnectError wraps a failure to establish the remote browser connection
// through an exit endpoint. It is fatal for the session and never retried
// internally.
type ConnectError struct {
	Err error
}

func (e *ConnectError) Error() string {
	return "connect failed: " + e.Err.Error()
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}
