package overtime

import (
	"errors"
	"fmt"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
)

var (
	ErrInsufficientBalance = errors.New("insufficient overtime balance")
	ErrEntryNotFound       = errors.New("overtime entry not found")
	ErrApproverRequired    = errors.New("an approver is required for manual overtime operations")
	ErrBrokenChain         = errors.New("overtime ledger balance chain is inconsistent")
)

// InsufficientBalanceError reports a payout larger than the current balance.
type InsufficientBalanceError struct {
	Requested int
	Available int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient overtime balance: requested %d minutes (%s), available %d minutes (%s)",
		e.Requested, clock.FormatMinutes(e.Requested), e.Available, clock.FormatMinutes(e.Available))
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}
