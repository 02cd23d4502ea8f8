package edit

import "errors"

// Edit errors.
var (
	ErrUnknownAction  = errors.New("unknown bulk action")
	ErrFutureDate     = errors.New("date is in the future")
	ErrEmptySelection = errors.New("no dates selected")
	ErrTooManyDates   = errors.New("too many dates selected")
	ErrInvalidBulk    = errors.New("bulk selection rejected")
)
