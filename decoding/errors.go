package decoding

import (
	"errors"
)

// ErrClosed is returned by any operation on a Context that is closed,
// either explicitly or due to a previous fatal error.
var ErrClosed = errors.New("the decoding context is closed")
