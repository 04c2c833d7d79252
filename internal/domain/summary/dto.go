package summary

import (
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
)

type DailySummaryResponse struct {
	ID             string  `json:"id,omitempty"`
	EmployeeID     string  `json:"employee_id"`
	Date           string  `json:"date"`
	DayOfWeek      string  `json:"day_of_week"`
	WorkScheduleID *string `json:"work_schedule_id,omitempty"`

	FirstEntry *string `json:"first_entry,omitempty"`
	LastExit   *string `json:"last_exit,omitempty"`
	BreakStart *string `json:"break_start,omitempty"`
	BreakEnd   *string `json:"break_end,omitempty"`

	ExpectedMinutes       int    `json:"expected_minutes"`
	ExpectedFormatted     string `json:"expected_formatted"`
	WorkedMinutes         int    `json:"worked_minutes"`
	WorkedFormatted       string `json:"worked_formatted"`
	BreakMinutes          int    `json:"break_minutes"`
	BreakFormatted        string `json:"break_formatted"`
	OvertimeMinutes       int    `json:"overtime_minutes"`
	OvertimeFormatted     string `json:"overtime_formatted"`
	DeficitMinutes        int    `json:"deficit_minutes"`
	DeficitFormatted      string `json:"deficit_formatted"`
	NightShiftMinutes     int    `json:"night_shift_minutes"`
	NightShiftFormatted   string `json:"night_shift_formatted"`
	LateArrivalMinutes    int    `json:"late_arrival_minutes"`
	EarlyDepartureMinutes int    `json:"early_departure_minutes"`
	BalanceMinutes        int    `json:"balance_minutes"`
	BalanceFormatted      string `json:"balance_formatted"`
	IsPositive            bool   `json:"is_positive"`

	IsAbsent          bool    `json:"is_absent"`
	AbsenceType       *string `json:"absence_type,omitempty"`
	HasPendingRecords bool    `json:"has_pending_records"`
	HasMissingRecords bool    `json:"has_missing_records"`
	IsHoliday         bool    `json:"is_holiday"`
	HolidayName       *string `json:"holiday_name,omitempty"`
	IsClosed          bool    `json:"is_closed"`
	Notes             *string `json:"notes,omitempty"`
}

func NewDailySummaryResponse(s DailySummary) DailySummaryResponse {
	balance := s.Balance()
	resp := DailySummaryResponse{
		ID:                    s.ID,
		EmployeeID:            s.EmployeeID,
		Date:                  s.SummaryDate.Format(time.DateOnly),
		DayOfWeek:             s.SummaryDate.Weekday().String(),
		WorkScheduleID:        s.WorkScheduleID,
		FirstEntry:            formatTime(s.FirstEntry),
		LastExit:              formatTime(s.LastExit),
		BreakStart:            formatTime(s.BreakStart),
		BreakEnd:              formatTime(s.BreakEnd),
		ExpectedMinutes:       s.ExpectedMinutes,
		ExpectedFormatted:     clock.FormatMinutes(s.ExpectedMinutes),
		WorkedMinutes:         s.WorkedMinutes,
		WorkedFormatted:       clock.FormatMinutes(s.WorkedMinutes),
		BreakMinutes:          s.BreakMinutes,
		BreakFormatted:        clock.FormatMinutes(s.BreakMinutes),
		OvertimeMinutes:       s.OvertimeMinutes,
		OvertimeFormatted:     clock.FormatMinutes(s.OvertimeMinutes),
		DeficitMinutes:        s.DeficitMinutes,
		DeficitFormatted:      clock.FormatMinutes(s.DeficitMinutes),
		NightShiftMinutes:     s.NightShiftMinutes,
		NightShiftFormatted:   clock.FormatMinutes(s.NightShiftMinutes),
		LateArrivalMinutes:    s.LateArrivalMinutes,
		EarlyDepartureMinutes: s.EarlyDepartureMinutes,
		BalanceMinutes:        balance,
		BalanceFormatted:      clock.FormatMinutes(balance),
		IsPositive:            balance >= 0,
		IsAbsent:              s.IsAbsent,
		HasPendingRecords:     s.HasPendingRecords,
		HasMissingRecords:     s.HasMissingRecords,
		IsHoliday:             s.IsHoliday,
		HolidayName:           s.HolidayName,
		IsClosed:              s.IsClosed,
		Notes:                 s.Notes,
	}
	if s.AbsenceType != nil {
		t := string(*s.AbsenceType)
		resp.AbsenceType = &t
	}
	return resp
}

func formatTime(t *clock.TimeOfDay) *string {
	if t == nil {
		return nil
	}
	s := t.String()
	return &s
}

type TimesheetResponse struct {
	EmployeeID string                 `json:"employee_id"`
	StartDate  string                 `json:"start_date"`
	EndDate    string                 `json:"end_date"`
	Days       []DailySummaryResponse `json:"days"`
	Totals     PeriodTotalsResponse   `json:"totals"`
}

type PeriodTotalsResponse struct {
	WorkedMinutes       int    `json:"worked_minutes"`
	WorkedFormatted     string `json:"worked_formatted"`
	OvertimeMinutes     int    `json:"overtime_minutes"`
	OvertimeFormatted   string `json:"overtime_formatted"`
	DeficitMinutes      int    `json:"deficit_minutes"`
	DeficitFormatted    string `json:"deficit_formatted"`
	NightShiftMinutes   int    `json:"night_shift_minutes"`
	NightShiftFormatted string `json:"night_shift_formatted"`
	LateArrivalMinutes  int    `json:"late_arrival_minutes"`
	Absences            int    `json:"absences"`
	Days                int    `json:"days"`
	BalanceMinutes      int    `json:"balance_minutes"`
	BalanceFormatted    string `json:"balance_formatted"`
}

func NewPeriodTotalsResponse(t PeriodTotals) PeriodTotalsResponse {
	balance := t.OvertimeMinutes - t.DeficitMinutes
	return PeriodTotalsResponse{
		WorkedMinutes:       t.WorkedMinutes,
		WorkedFormatted:     clock.FormatMinutes(t.WorkedMinutes),
		OvertimeMinutes:     t.OvertimeMinutes,
		OvertimeFormatted:   clock.FormatMinutes(t.OvertimeMinutes),
		DeficitMinutes:      t.DeficitMinutes,
		DeficitFormatted:    clock.FormatMinutes(t.DeficitMinutes),
		NightShiftMinutes:   t.NightShiftMinutes,
		NightShiftFormatted: clock.FormatMinutes(t.NightShiftMinutes),
		LateArrivalMinutes:  t.LateArrivalMinutes,
		Absences:            t.Absences,
		Days:                t.Days,
		BalanceMinutes:      balance,
		BalanceFormatted:    clock.FormatMinutes(balance),
	}
}

type CloseDayRequest struct {
	EmployeeID string    `json:"-"`
	Date       time.Time `json:"-"`
	ClosedBy   string    `json:"-"`
	Notes      *string   `json:"notes,omitempty"`
}
