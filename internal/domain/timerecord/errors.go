package timerecord

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidSequence  = errors.New("invalid punch sequence")
	ErrInvalidOperation = errors.New("invalid operation for current record status")
	ErrDuplicateRecord  = errors.New("a punch of this type already exists at this time")
	ErrDuplicateNSR     = errors.New("clock record already imported")
	ErrRecordNotFound   = errors.New("time record not found")
	ErrDayClosed        = errors.New("the timesheet for this day is closed")
	ErrFutureRecord     = errors.New("punch cannot be in the future")
)

// SequenceError explains which punch was rejected and what was allowed instead.
type SequenceError struct {
	Last      *PunchType
	Attempted PunchType
	Expected  []PunchType
}

func (e *SequenceError) Error() string {
	expected := make([]string, 0, len(e.Expected))
	for _, p := range e.Expected {
		expected = append(expected, string(p))
	}

	if len(expected) == 0 {
		return fmt.Sprintf("invalid punch sequence: no punch can be inserted at this time without breaking the punches that follow it (attempted %s)",
			e.Attempted)
	}
	if e.Last == nil {
		return fmt.Sprintf("invalid punch sequence: %s is not allowed as the first punch of the day, expected %s",
			e.Attempted, strings.Join(expected, " or "))
	}
	return fmt.Sprintf("invalid punch sequence: %s cannot follow %s, expected %s",
		e.Attempted, *e.Last, strings.Join(expected, " or "))
}

func (e *SequenceError) Is(target error) bool {
	return target == ErrInvalidSequence
}

// StatusError reports an illegal status transition.
type StatusError struct {
	Action string
	Status Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cannot %s a time record with status %s: only %s records can be approved or rejected",
		e.Action, e.Status, StatusPendingApproval)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrInvalidOperation
}
