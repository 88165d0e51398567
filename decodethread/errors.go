package decodethread

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyStarted = errors.New("the decode thread was already started")
)

// ErrThreadFailed is an error (or a panic) that escaped an iteration of
// the decode thread and stopped it.
type ErrThreadFailed struct {
	Err error
}

func (e *ErrThreadFailed) Error() string {
	return fmt.Sprintf("the decode thread failed: %v", e.Err)
}

func (e *ErrThreadFailed) Unwrap() error {
	return e.Err
}

// ErrPanic is a recovered panic.
type ErrPanic struct {
	Value any
	Stack []byte
}

func (e ErrPanic) Error() string {
	return fmt.Sprintf("got panic: %v", e.Value)
}
