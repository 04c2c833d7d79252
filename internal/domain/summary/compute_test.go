package summary

import (
	"testing"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timerecord"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultNight = NightWindow{Start: clock.NewTimeOfDay(22, 0), End: clock.NewTimeOfDay(5, 0)}

func punch(p timerecord.PunchType, h, m int) timerecord.TimeRecord {
	return timerecord.TimeRecord{Type: p, RecordTime: clock.NewTimeOfDay(h, m), Status: timerecord.StatusValid}
}

func input(records ...timerecord.TimeRecord) Input {
	return Input{
		Records:                 records,
		DefaultExpectedMinutes:  480,
		DefaultToleranceMinutes: 5,
		Night:                   defaultNight,
	}
}

func TestComputeRegularDayWithOvertime(t *testing.T) {
	s := Compute(input(
		punch(timerecord.PunchEntry, 8, 0),
		punch(timerecord.PunchBreakStart, 12, 0),
		punch(timerecord.PunchBreakEnd, 13, 0),
		punch(timerecord.PunchExit, 17, 30),
	))

	assert.Equal(t, 510, s.WorkedMinutes)
	assert.Equal(t, 60, s.BreakMinutes)
	assert.Equal(t, 480, s.ExpectedMinutes)
	assert.Equal(t, 30, s.OvertimeMinutes)
	assert.Equal(t, 0, s.DeficitMinutes)
	assert.Equal(t, 0, s.NightShiftMinutes)
	assert.False(t, s.HasMissingRecords)
	assert.Equal(t, 30, s.Balance())
}

func TestComputeDeficit(t *testing.T) {
	s := Compute(input(
		punch(timerecord.PunchEntry, 9, 0),
		punch(timerecord.PunchExit, 16, 0),
	))

	assert.Equal(t, 420, s.WorkedMinutes)
	assert.Equal(t, 0, s.OvertimeMinutes)
	assert.Equal(t, 60, s.DeficitMinutes)
	assert.Equal(t, -60, s.Balance())
}

func TestComputeExactDay(t *testing.T) {
	s := Compute(input(
		punch(timerecord.PunchEntry, 9, 0),
		punch(timerecord.PunchExit, 17, 0),
	))

	assert.Zero(t, s.OvertimeMinutes)
	assert.Zero(t, s.DeficitMinutes)
}

func TestComputeEmptyDay(t *testing.T) {
	s := Compute(input())

	assert.True(t, s.HasMissingRecords)
	assert.Zero(t, s.WorkedMinutes)
	assert.Zero(t, s.ExpectedMinutes)
	assert.Zero(t, s.DeficitMinutes)
	require.NotNil(t, s.AbsenceType)
	assert.True(t, s.IsAbsent)
	assert.Equal(t, AbsenceUnjustified, *s.AbsenceType)
}

func TestComputeMissingExitStopsEarly(t *testing.T) {
	s := Compute(input(punch(timerecord.PunchEntry, 8, 0)))

	assert.True(t, s.HasMissingRecords)
	require.NotNil(t, s.FirstEntry)
	assert.Nil(t, s.LastExit)
	assert.Zero(t, s.WorkedMinutes)
	assert.Zero(t, s.DeficitMinutes)
	assert.False(t, s.IsAbsent)
}

func TestComputeIgnoresRejectedAndVoided(t *testing.T) {
	rejected := punch(timerecord.PunchExit, 20, 0)
	rejected.Status = timerecord.StatusRejected
	voided := punch(timerecord.PunchEntry, 7, 0)
	voided.Status = timerecord.StatusVoidedByAdjustment
	pending := punch(timerecord.PunchExit, 17, 0)
	pending.Status = timerecord.StatusPendingApproval

	s := Compute(input(voided, punch(timerecord.PunchEntry, 9, 0), pending, rejected))

	assert.Equal(t, "09:00", s.FirstEntry.String())
	assert.Equal(t, "17:00", s.LastExit.String())
	assert.Equal(t, 480, s.WorkedMinutes)
	assert.True(t, s.HasPendingRecords)
}

func TestComputeSplitShiftUsesFirstEntryAndLastExit(t *testing.T) {
	s := Compute(input(
		punch(timerecord.PunchEntry, 8, 0),
		punch(timerecord.PunchExit, 12, 0),
		punch(timerecord.PunchEntry, 14, 0),
		punch(timerecord.PunchExit, 18, 0),
	))

	assert.Equal(t, 600, s.WorkedMinutes)
}

func TestComputeScheduleLateAndEarly(t *testing.T) {
	entry, exit := clock.NewTimeOfDay(8, 0), clock.NewTimeOfDay(17, 0)
	in := input(
		punch(timerecord.PunchEntry, 8, 20),
		punch(timerecord.PunchExit, 16, 50),
	)
	in.Schedule = &schedule.DaySchedule{
		ExpectedMinutes:  540,
		EntryTime:        &entry,
		ExitTime:         &exit,
		ToleranceMinutes: 10,
	}

	s := Compute(in)

	assert.Equal(t, 540, s.ExpectedMinutes)
	assert.Equal(t, 20, s.LateArrivalMinutes)
	assert.Zero(t, s.EarlyDepartureMinutes, "10 minutes early is within tolerance")
	assert.Equal(t, 30, s.DeficitMinutes)
}

func TestComputeDayOffIsNotAbsence(t *testing.T) {
	in := input()
	in.Schedule = &schedule.DaySchedule{ExpectedMinutes: 0}

	s := Compute(in)

	assert.False(t, s.IsAbsent)
	assert.True(t, s.HasMissingRecords)
}

func TestComputeHoliday(t *testing.T) {
	in := input(
		punch(timerecord.PunchEntry, 9, 0),
		punch(timerecord.PunchExit, 13, 0),
	)
	in.Holiday = &schedule.Holiday{Name: "Independence Day"}

	s := Compute(in)

	assert.True(t, s.IsHoliday)
	assert.Equal(t, "Independence Day", *s.HolidayName)
	assert.Zero(t, s.ExpectedMinutes)
	assert.Equal(t, 240, s.OvertimeMinutes)

	empty := input()
	empty.Holiday = &schedule.Holiday{Name: "Christmas"}
	assert.False(t, Compute(empty).IsAbsent)
}

func TestComputeIsDeterministic(t *testing.T) {
	in := input(
		punch(timerecord.PunchEntry, 21, 0),
		punch(timerecord.PunchExit, 23, 45),
	)
	assert.Equal(t, Compute(in), Compute(in))
}

func TestNightMinutes(t *testing.T) {
	tests := []struct {
		name        string
		entry, exit clock.TimeOfDay
		window      NightWindow
		want        int
	}{
		{"day shift", clock.NewTimeOfDay(8, 0), clock.NewTimeOfDay(17, 0), defaultNight, 0},
		{"evening into window", clock.NewTimeOfDay(18, 0), clock.NewTimeOfDay(23, 30), defaultNight, 90},
		{"early morning", clock.NewTimeOfDay(3, 0), clock.NewTimeOfDay(9, 0), defaultNight, 120},
		{"whole window edges", clock.NewTimeOfDay(0, 0), clock.NewTimeOfDay(23, 59), defaultNight, 300 + 119},
		{"starts at boundary", clock.NewTimeOfDay(22, 0), clock.NewTimeOfDay(22, 1), defaultNight, 1},
		{"ends at boundary", clock.NewTimeOfDay(4, 59), clock.NewTimeOfDay(5, 0), defaultNight, 1},
		{"after window end", clock.NewTimeOfDay(5, 0), clock.NewTimeOfDay(6, 0), defaultNight, 0},
		{"inverted interval", clock.NewTimeOfDay(23, 0), clock.NewTimeOfDay(1, 0), defaultNight, 0},
		{"non wrapping window", clock.NewTimeOfDay(13, 0), clock.NewTimeOfDay(15, 0),
			NightWindow{Start: clock.NewTimeOfDay(14, 0), End: clock.NewTimeOfDay(20, 0)}, 60},
		{"empty window", clock.NewTimeOfDay(0, 0), clock.NewTimeOfDay(23, 0),
			NightWindow{Start: clock.NewTimeOfDay(22, 0), End: clock.NewTimeOfDay(22, 0)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NightMinutes(tt.entry.Minutes(), tt.exit.Minutes(), tt.window))
		})
	}
}
