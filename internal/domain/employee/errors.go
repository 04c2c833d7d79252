package employee

import "errors"

var (
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrExternalIDNotFound = errors.New("no employee registered for clock identifier")
)
