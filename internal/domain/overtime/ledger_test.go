package overtime

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chain(minutes ...int) []Entry {
	entries := make([]Entry, 0, len(minutes))
	balance := 0
	for i, m := range minutes {
		e := Entry{Seq: int64(i + 1), Minutes: m}.Next(balance)
		balance = e.BalanceAfter
		entries = append(entries, e)
	}
	return entries
}

func TestVerifyLink(t *testing.T) {
	entries := chain(30, -15, 120, -600)
	var previous *Entry
	for i := range entries {
		require.NoError(t, VerifyLink(previous, entries[i]))
		previous = &entries[i]
	}
	assert.Equal(t, -465, entries[len(entries)-1].BalanceAfter)

	entries[2].BalanceAfter++
	err := VerifyLink(&entries[1], entries[2])
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBrokenChain))
}

func TestVerifyLinkRejectsSequenceGaps(t *testing.T) {
	entries := chain(10, 20)

	first := entries[0]
	first.Seq = 2
	assert.ErrorIs(t, VerifyLink(nil, first), ErrBrokenChain)

	entries[1].Seq = entries[0].Seq
	assert.ErrorIs(t, VerifyLink(&entries[0], entries[1]), ErrBrokenChain)
}

func TestApplyMultiplier(t *testing.T) {
	assert.Equal(t, 90, ApplyMultiplier(60, 1.5))
	assert.Equal(t, 120, ApplyMultiplier(60, 2))
	assert.Equal(t, 47, ApplyMultiplier(31, 1.5))
}

func TestExpirableMinutes(t *testing.T) {
	assert.Equal(t, 60, ExpirableMinutes(60, 500))
	assert.Equal(t, 40, ExpirableMinutes(60, 40))
	assert.Equal(t, 0, ExpirableMinutes(60, -20))
}

func TestInsufficientBalanceErrorMessage(t *testing.T) {
	err := error(&InsufficientBalanceError{Requested: 600, Available: 500})

	assert.True(t, errors.Is(err, ErrInsufficientBalance))
	assert.Contains(t, err.Error(), "requested 600 minutes (10:00)")
	assert.Contains(t, err.Error(), "available 500 minutes (08:20)")
}
