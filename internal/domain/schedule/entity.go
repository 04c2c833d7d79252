package schedule

import (
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
)

type WorkSchedule struct {
	ID               string
	TenantID         string
	Name             string
	ToleranceMinutes int
	Days             []ScheduleDay
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ScheduleDay is the expected shift for one weekday.
type ScheduleDay struct {
	Weekday             time.Weekday
	ExpectedWorkMinutes int
	EntryTime           *clock.TimeOfDay
	ExitTime            *clock.TimeOfDay
}

// DaySchedule is what the aggregator needs for one employee-day.
type DaySchedule struct {
	WorkScheduleID   *string
	ExpectedMinutes  int
	EntryTime        *clock.TimeOfDay
	ExitTime         *clock.TimeOfDay
	ToleranceMinutes int
}

// ForDate picks the entry for date's weekday. A weekday absent from the
// schedule is a day off (zero expected minutes).
func (ws WorkSchedule) ForDate(date time.Time) DaySchedule {
	id := ws.ID
	day := DaySchedule{
		WorkScheduleID:   &id,
		ToleranceMinutes: ws.ToleranceMinutes,
	}
	for _, d := range ws.Days {
		if d.Weekday == date.Weekday() {
			day.ExpectedMinutes = d.ExpectedWorkMinutes
			day.EntryTime = d.EntryTime
			day.ExitTime = d.ExitTime
			break
		}
	}
	return day
}

type Holiday struct {
	ID        string
	TenantID  string
	Date      time.Time
	Name      string
	Type      HolidayType
	CreatedAt time.Time
}

type HolidayType string

const (
	HolidayNational HolidayType = "NATIONAL"
	HolidayRegional HolidayType = "REGIONAL"
	HolidayCompany  HolidayType = "COMPANY"
)

var HolidayTypeValues = []string{
	string(HolidayNational),
	string(HolidayRegional),
	string(HolidayCompany),
}
