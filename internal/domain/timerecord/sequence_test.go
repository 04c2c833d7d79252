package timerecord

import (
	"errors"
	"testing"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func punchPtr(p PunchType) *PunchType { return &p }

func TestAllowedNext(t *testing.T) {
	tests := []struct {
		name string
		last *PunchType
		want []PunchType
	}{
		{"empty day", nil, []PunchType{PunchEntry}},
		{"after entry", punchPtr(PunchEntry), []PunchType{PunchBreakStart, PunchExit}},
		{"after break start", punchPtr(PunchBreakStart), []PunchType{PunchBreakEnd}},
		{"after break end", punchPtr(PunchBreakEnd), []PunchType{PunchBreakStart, PunchExit}},
		{"after exit", punchPtr(PunchExit), []PunchType{PunchEntry}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AllowedNext(tt.last))
		})
	}
}

func TestValidSequence(t *testing.T) {
	tests := []struct {
		name    string
		punches []PunchType
		want    bool
	}{
		{"empty", nil, true},
		{"full day", []PunchType{PunchEntry, PunchBreakStart, PunchBreakEnd, PunchExit}, true},
		{"split shift", []PunchType{PunchEntry, PunchExit, PunchEntry, PunchExit}, true},
		{"open entry", []PunchType{PunchEntry}, true},
		{"starts with exit", []PunchType{PunchExit}, false},
		{"double entry", []PunchType{PunchEntry, PunchEntry}, false},
		{"break end without start", []PunchType{PunchEntry, PunchBreakEnd}, false},
		{"exit during break", []PunchType{PunchEntry, PunchBreakStart, PunchExit}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidSequence(tt.punches))
		})
	}
}

func TestCheckInsertionAppend(t *testing.T) {
	day := []PunchType{PunchEntry}

	require.NoError(t, CheckInsertion(day, 1, PunchExit))
	require.NoError(t, CheckInsertion(day, 1, PunchBreakStart))

	err := CheckInsertion(day, 1, PunchEntry)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSequence))

	var seqErr *SequenceError
	require.ErrorAs(t, err, &seqErr)
	assert.Equal(t, []PunchType{PunchBreakStart, PunchExit}, seqErr.Expected)
	assert.Contains(t, err.Error(), "expected BREAK_START or EXIT")
}

func TestCheckInsertionFirstPunchMustBeEntry(t *testing.T) {
	err := CheckInsertion(nil, 0, PunchExit)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first punch of the day, expected ENTRY")
}

func TestCheckInsertionKeepsLaterPunchesLegal(t *testing.T) {
	// ENTRY 08:00, EXIT 17:00; a BREAK_START back-dated to 12:00 would leave
	// the EXIT following an open break.
	day := []PunchType{PunchEntry, PunchExit}

	err := CheckInsertion(day, 1, PunchBreakStart)
	require.Error(t, err)

	var seqErr *SequenceError
	require.ErrorAs(t, err, &seqErr)
	assert.Equal(t, PunchEntry, *seqErr.Last)
	assert.Empty(t, seqErr.Expected)
	assert.Contains(t, err.Error(), "no punch can be inserted")

	day = []PunchType{PunchEntry, PunchBreakStart, PunchBreakEnd}
	assert.Error(t, CheckInsertion(day, 2, PunchExit))
	assert.NoError(t, CheckInsertion(day, 3, PunchExit))
}

func TestInsertPosition(t *testing.T) {
	day := []TimeRecord{
		{Type: PunchEntry, RecordTime: clock.NewTimeOfDay(8, 0)},
		{Type: PunchBreakStart, RecordTime: clock.NewTimeOfDay(12, 0)},
	}

	assert.Equal(t, 0, InsertPosition(day, clock.NewTimeOfDay(7, 0).Minutes()))
	assert.Equal(t, 1, InsertPosition(day, clock.NewTimeOfDay(8, 0).Minutes()))
	assert.Equal(t, 2, InsertPosition(day, clock.NewTimeOfDay(13, 0).Minutes()))
}

func TestPunchTypesSkipsVoided(t *testing.T) {
	records := []TimeRecord{
		{Type: PunchEntry, Status: StatusValid},
		{Type: PunchEntry, Status: StatusRejected},
		{Type: PunchExit, Status: StatusVoidedByAdjustment},
		{Type: PunchExit, Status: StatusPendingApproval},
	}

	assert.Equal(t, []PunchType{PunchEntry, PunchExit}, PunchTypes(records))
	assert.Len(t, Counting(records), 2)
}
