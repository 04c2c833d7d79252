package adjustment

import (
	"errors"
	"fmt"
)

var (
	ErrAdjustmentNotFound  = errors.New("time adjustment not found")
	ErrDuplicatePending    = errors.New("a pending adjustment already exists for this time record")
	ErrInvalidOperation    = errors.New("invalid operation for current adjustment status")
	ErrSelfApproval        = errors.New("an adjustment cannot be approved or rejected by its requester or by the affected employee")
	ErrNotRequester        = errors.New("only the requester can cancel an adjustment")
	ErrRecordNotAdjustable = errors.New("the time record can no longer be adjusted")
)

// StatusError reports a transition out of a non-pending state.
type StatusError struct {
	Action string
	Status Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cannot %s a time adjustment with status %s: only %s adjustments can change",
		e.Action, e.Status, StatusPending)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrInvalidOperation
}
