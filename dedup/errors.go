package dedup

import "errors"

var (
	// ErrInvalidThreshold indicates the similarity threshold is outside [0, 1].
	ErrInvalidThreshold = errors.New("similarity threshold must be in [0, 1]")

	// ErrVectorLengthMismatch indicates two vectors of different dimensions
	// were compared.
	ErrVectorLengthMismatch = errors.New("vector length mismatch")
)
