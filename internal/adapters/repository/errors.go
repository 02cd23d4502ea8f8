package repository

import (
	"errors"
	"fmt"
)

// Sentinel kinds for day log store errors.
var (
	ErrStoreRead  = errors.New("day log store read failed")
	ErrStoreWrite = errors.New("day log store write failed")
	ErrNotFound   = errors.New("day log not found")
)

// wrap tags a backend failure with the operation and its kind so callers can
// match on the kind with errors.Is while keeping the cause.
func wrap(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}
