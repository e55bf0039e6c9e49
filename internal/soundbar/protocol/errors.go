package protocol

import (
	"errors"
	"fmt"
)

// ErrClosed is returned when sending on a closed client.
var ErrClosed = errors.New("protocol client closed")

// UnreachableError indicates the soundbar could not be dialed.
type UnreachableError struct {
	Addr string
	Err  error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("soundbar unreachable at %s: %v", e.Addr, e.Err)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}
