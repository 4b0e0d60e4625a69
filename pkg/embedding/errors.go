package embedding

import "errors"

var (
	ErrNoLabels          = errors.New("training mode requires labels")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrLengthMismatch    = errors.New("length mismatch")
	ErrIndexOutOfRange   = errors.New("batch index out of range")
)
