package processor

import "errors"

var ErrLengthMismatch = errors.New("length mismatch")
