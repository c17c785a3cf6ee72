package domain

import "errors"

// Errors surfaced to the calling layer.
var (
	ErrNotFound     = errors.New("airport not found")
	ErrUnavailable  = errors.New("all providers unavailable")
	ErrInvalidInput = errors.New("invalid airport code")
)
