package subprocess

import (
	"errors"
	"fmt"
)

var (
	// ErrNoArgs reports a spawn attempt with an empty argument vector. It is
	// detected before any OS primitive is invoked.
	ErrNoArgs = errors.New("subprocess: empty argument list")

	// ErrDetached reports an operation that needs reap ownership on a handle
	// that has been detached or closed.
	ErrDetached = errors.New("subprocess: process is detached")

	// ErrEmptySelect reports a Select call over an empty handle set.
	ErrEmptySelect = errors.New("subprocess: select over empty process set")
)

// SpawnError carries the failing step of a spawn attempt together with the
// underlying OS error. Resources allocated for the attempt are released
// before it is returned; no partial process is left running.
type SpawnError struct {
	Op  string
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("subprocess: %s: %v", e.Op, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

func spawnErr(op string, err error) *SpawnError {
	return &SpawnError{Op: op, Err: err}
}
