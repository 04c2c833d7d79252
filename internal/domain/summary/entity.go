package summary

import (
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
)

// DailySummary is the derived timesheet line of one employee-day. It is
// rebuilt from the day's punches on every change.
type DailySummary struct {
	ID             string
	TenantID       string
	EmployeeID     string
	SummaryDate    time.Time
	WorkScheduleID *string

	FirstEntry *clock.TimeOfDay
	LastExit   *clock.TimeOfDay
	BreakStart *clock.TimeOfDay
	BreakEnd   *clock.TimeOfDay

	BreakMinutes          int
	WorkedMinutes         int
	ExpectedMinutes       int
	OvertimeMinutes       int
	DeficitMinutes        int
	NightShiftMinutes     int
	LateArrivalMinutes    int
	EarlyDepartureMinutes int

	IsAbsent          bool
	AbsenceType       *AbsenceType
	HasPendingRecords bool
	HasMissingRecords bool
	IsHoliday         bool
	HolidayName       *string

	IsClosed bool
	ClosedBy *string
	ClosedAt *time.Time
	Notes    *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Balance is the signed surplus of the day: overtime positive, deficit negative.
func (s DailySummary) Balance() int {
	return s.OvertimeMinutes - s.DeficitMinutes
}

type AbsenceType string

const (
	AbsenceUnjustified AbsenceType = "UNJUSTIFIED"
	AbsenceJustified   AbsenceType = "JUSTIFIED"
)

// PeriodTotals sums the summaries of a date range.
type PeriodTotals struct {
	WorkedMinutes      int
	OvertimeMinutes    int
	DeficitMinutes     int
	NightShiftMinutes  int
	LateArrivalMinutes int
	Absences           int
	Days               int
}

// SameTotals reports whether a and b carry the same derived values, ignoring
// identity, closing and timestamps.
func SameTotals(a, b DailySummary) bool {
	return sameTime(a.FirstEntry, b.FirstEntry) &&
		sameTime(a.LastExit, b.LastExit) &&
		sameTime(a.BreakStart, b.BreakStart) &&
		sameTime(a.BreakEnd, b.BreakEnd) &&
		a.BreakMinutes == b.BreakMinutes &&
		a.WorkedMinutes == b.WorkedMinutes &&
		a.ExpectedMinutes == b.ExpectedMinutes &&
		a.OvertimeMinutes == b.OvertimeMinutes &&
		a.DeficitMinutes == b.DeficitMinutes &&
		a.NightShiftMinutes == b.NightShiftMinutes &&
		a.LateArrivalMinutes == b.LateArrivalMinutes &&
		a.EarlyDepartureMinutes == b.EarlyDepartureMinutes &&
		a.IsAbsent == b.IsAbsent &&
		a.HasPendingRecords == b.HasPendingRecords &&
		a.HasMissingRecords == b.HasMissingRecords &&
		a.IsHoliday == b.IsHoliday
}

func sameTime(a, b *clock.TimeOfDay) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
