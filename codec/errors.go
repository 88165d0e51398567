package codec

import (
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"
)

// DecodeError is a failure of libav (or of a conversion session built on
// top of it). Code is the numeric libav error code if it is known.
type DecodeError struct {
	Op   string
	Code int
	Err  error
}

func NewDecodeError(op string, err error) *DecodeError {
	var decErr *DecodeError
	if errors.As(err, &decErr) {
		return decErr
	}
	e := &DecodeError{Op: op, Err: err}
	var avErr astiav.Error
	if errors.As(err, &avErr) {
		e.Code = int(avErr)
	}
	return e
}

func (e *DecodeError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("unable to %s (libav error %d): %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("unable to %s: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsAgain reports if libav asked to retry the operation after the opposite
// one (e.g. to receive a frame before sending more packets).
func IsAgain(err error) bool {
	return errors.Is(err, astiav.ErrEagain)
}

func IsEOF(err error) bool {
	return errors.Is(err, astiav.ErrEof)
}
