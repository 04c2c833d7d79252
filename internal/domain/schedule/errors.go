package schedule

import "errors"

var (
	ErrHolidayExists   = errors.New("a holiday is already registered for this date")
	ErrHolidayNotFound = errors.New("holiday not found")
	ErrInvalidYear     = errors.New("year must be between 1900 and 9999")
)
