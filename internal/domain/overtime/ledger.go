package overtime

import (
	"fmt"
	"math"
)

// VerifyLink checks that next continues the chain ending at previous: the
// next sequence number and a balance that is the previous one plus its
// minutes. A nil previous means next opens the chain.
func VerifyLink(previous *Entry, next Entry) error {
	balance, seq := 0, int64(1)
	if previous != nil {
		balance, seq = previous.BalanceAfter, previous.Seq+1
	}
	if next.Seq != seq {
		return fmt.Errorf("%w: entry %s has seq %d, expected %d", ErrBrokenChain, next.ID, next.Seq, seq)
	}
	if next.BalanceAfter != balance+next.Minutes {
		return fmt.Errorf("%w: entry %s has balance %d, expected %d",
			ErrBrokenChain, next.ID, next.BalanceAfter, balance+next.Minutes)
	}
	return nil
}

// ApplyMultiplier returns the minutes credited for raw minutes worked at multiplier.
func ApplyMultiplier(minutes int, multiplier float64) int {
	return int(math.Round(float64(minutes) * multiplier))
}

// ExpirableMinutes is how much of a credit an expiration may consume without
// taking the balance below zero.
func ExpirableMinutes(credit int, balance int) int {
	return max(0, min(credit, balance))
}
