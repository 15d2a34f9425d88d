package embed

import "errors"

var (
	// ErrUnavailable indicates the pretrained embedding service could not be
	// reached or returned an unusable response. The Fallback wrapper recovers
	// from it; callers holding a bare embedder see it directly.
	ErrUnavailable = errors.New("embedding service unavailable")

	// ErrDimensionMismatch indicates the service returned vectors of a
	// different dimension than configured.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
