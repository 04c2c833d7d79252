package summary

import (
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timerecord"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
)

// NightWindow is the night-shift band. Start after End means it wraps midnight.
type NightWindow struct {
	Start clock.TimeOfDay
	End   clock.TimeOfDay
}

// Input is everything Compute needs for one employee-day.
type Input struct {
	// Records are the day's punches ordered by time, any status.
	Records []timerecord.TimeRecord

	// Schedule is nil when no work schedule is assigned.
	Schedule *schedule.DaySchedule
	Holiday  *schedule.Holiday

	DefaultExpectedMinutes  int
	DefaultToleranceMinutes int
	Night                   NightWindow
}

// Compute derives the totals of a day. Identity, closing and notes fields
// are left for the caller.
func Compute(in Input) DailySummary {
	var s DailySummary

	if in.Holiday != nil {
		name := in.Holiday.Name
		s.IsHoliday = true
		s.HolidayName = &name
	}

	expected, tolerance := in.DefaultExpectedMinutes, in.DefaultToleranceMinutes
	if in.Schedule != nil {
		s.WorkScheduleID = in.Schedule.WorkScheduleID
		expected = in.Schedule.ExpectedMinutes
		if in.Schedule.ToleranceMinutes > 0 {
			tolerance = in.Schedule.ToleranceMinutes
		}
	}
	if s.IsHoliday {
		expected = 0
	}

	records := timerecord.Counting(in.Records)
	if len(records) == 0 {
		s.HasMissingRecords = true
		if expected > 0 && !s.IsHoliday {
			absence := AbsenceUnjustified
			s.IsAbsent = true
			s.AbsenceType = &absence
		}
		return s
	}

	for i := range records {
		r := records[i]
		at := r.RecordTime
		if r.Status == timerecord.StatusPendingApproval {
			s.HasPendingRecords = true
		}
		switch r.Type {
		case timerecord.PunchEntry:
			if s.FirstEntry == nil {
				s.FirstEntry = &at
			}
		case timerecord.PunchExit:
			s.LastExit = &at
		case timerecord.PunchBreakStart:
			if s.BreakStart == nil {
				s.BreakStart = &at
			}
		case timerecord.PunchBreakEnd:
			s.BreakEnd = &at
		}
	}

	s.ExpectedMinutes = expected
	s.HasMissingRecords = s.FirstEntry == nil || s.LastExit == nil
	if s.HasMissingRecords {
		return s
	}

	entry, exit := s.FirstEntry.Minutes(), s.LastExit.Minutes()

	if s.BreakStart != nil && s.BreakEnd != nil {
		s.BreakMinutes = s.BreakEnd.Minutes() - s.BreakStart.Minutes()
	}
	s.WorkedMinutes = max(0, exit-entry-s.BreakMinutes)
	s.NightShiftMinutes = NightMinutes(entry, exit, in.Night)

	switch {
	case s.WorkedMinutes > expected:
		s.OvertimeMinutes = s.WorkedMinutes - expected
	case s.WorkedMinutes < expected:
		s.DeficitMinutes = expected - s.WorkedMinutes
	}

	if in.Schedule != nil && in.Schedule.EntryTime != nil {
		if late := entry - in.Schedule.EntryTime.Minutes(); late > tolerance {
			s.LateArrivalMinutes = late
		}
	}
	if in.Schedule != nil && in.Schedule.ExitTime != nil {
		if early := in.Schedule.ExitTime.Minutes() - exit; early > tolerance {
			s.EarlyDepartureMinutes = early
		}
	}

	return s
}

// NightMinutes intersects [entry, exit) with the night window once. A window
// that wraps midnight is split into [0, End) and [Start, 24:00).
func NightMinutes(entry, exit int, w NightWindow) int {
	if exit <= entry {
		return 0
	}

	start, end := w.Start.Minutes(), w.End.Minutes()
	switch {
	case start == end:
		return 0
	case start < end:
		return overlap(entry, exit, start, end)
	default:
		return overlap(entry, exit, 0, end) + overlap(entry, exit, start, clock.MinutesPerDay)
	}
}

func overlap(aStart, aEnd, bStart, bEnd int) int {
	return max(0, min(aEnd, bEnd)-max(aStart, bStart))
}
