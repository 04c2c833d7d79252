package summary

import "errors"

var (
	ErrSummaryNotFound = errors.New("daily summary not found")
	ErrAlreadyClosed   = errors.New("the timesheet for this day is already closed")
)
