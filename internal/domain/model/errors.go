package model

import "errors"

// Sentinel kinds for model validation errors.
var (
	ErrInvalidDateFormat = errors.New("invalid date format")
	ErrUnknownField      = errors.New("unknown day log field")
	ErrInvalidUser       = errors.New("invalid user id")
)
