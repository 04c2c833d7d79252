package summary

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/overtime"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/summary"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timerecord"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/eventbus"
)

// Settings are the tenant-independent defaults of the aggregation.
type Settings struct {
	DefaultExpectedMinutes  int
	DefaultToleranceMinutes int
	Night                   summary.NightWindow
}

type SummaryServiceImpl struct {
	tx     database.Transactor
	locker database.Locker
	summary.DailySummaryRepository
	timeRecords timerecord.TimeRecordRepository
	schedules   schedule.WorkScheduleRepository
	holidays    schedule.HolidayRepository
	ledger      overtime.Ledger
	publisher   eventbus.Publisher
	clock       clock.Clock
	settings    Settings
}

// Recompute implements summary.Aggregator. It joins the caller's transaction
// when there is one, so a punch and its summary commit together.
func (s *SummaryServiceImpl) Recompute(ctx context.Context, tenantID string, employeeID string, date time.Time) (summary.DailySummary, error) {
	var saved summary.DailySummary
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.locker.Lock(ctx, database.EmployeeDayLockKey(tenantID, employeeID, date)); err != nil {
			return err
		}

		records, err := s.timeRecords.ListByDate(ctx, tenantID, employeeID, date)
		if err != nil {
			return fmt.Errorf("failed to load punches of the day: %w", err)
		}

		var day *schedule.DaySchedule
		ws, err := s.schedules.GetForEmployee(ctx, tenantID, employeeID, date)
		if err != nil {
			return fmt.Errorf("failed to get work schedule: %w", err)
		}
		if ws != nil {
			d := ws.ForDate(date)
			day = &d
		}

		holiday, err := s.holidays.GetByDate(ctx, tenantID, date)
		if err != nil {
			return fmt.Errorf("failed to get holiday: %w", err)
		}

		existing, err := s.DailySummaryRepository.Get(ctx, tenantID, employeeID, date)
		if err != nil {
			return fmt.Errorf("failed to get daily summary: %w", err)
		}

		computed := summary.Compute(summary.Input{
			Records:                 records,
			Schedule:                day,
			Holiday:                 holiday,
			DefaultExpectedMinutes:  s.settings.DefaultExpectedMinutes,
			DefaultToleranceMinutes: s.settings.DefaultToleranceMinutes,
			Night:                   s.settings.Night,
		})
		computed.TenantID = tenantID
		computed.EmployeeID = employeeID
		computed.SummaryDate = date
		if existing != nil {
			computed.ID = existing.ID
			computed.IsClosed = existing.IsClosed
			computed.ClosedBy = existing.ClosedBy
			computed.ClosedAt = existing.ClosedAt
			computed.Notes = existing.Notes
			computed.CreatedAt = existing.CreatedAt
		}

		saved, err = s.DailySummaryRepository.Upsert(ctx, computed)
		if err != nil {
			return fmt.Errorf("failed to save daily summary: %w", err)
		}

		if _, err := s.ledger.SyncDailyBalance(ctx, tenantID, employeeID, date, saved.Balance()); err != nil {
			return fmt.Errorf("failed to sync overtime balance: %w", err)
		}

		if existing == nil || !summary.SameTotals(*existing, saved) {
			s.publishAfterCommit(ctx, saved)
		}
		return nil
	})
	if err != nil {
		return summary.DailySummary{}, err
	}
	return saved, nil
}

func (s *SummaryServiceImpl) publishAfterCommit(ctx context.Context, saved summary.DailySummary) {
	event := eventbus.NewEvent(eventbus.DailySummaryUpdated, saved.TenantID, saved.EmployeeID, saved.ID, map[string]interface{}{
		"date":             saved.SummaryDate.Format(time.DateOnly),
		"worked_minutes":   saved.WorkedMinutes,
		"overtime_minutes": saved.OvertimeMinutes,
		"deficit_minutes":  saved.DeficitMinutes,
		"balance_minutes":  saved.Balance(),
		"is_closed":        saved.IsClosed,
	})
	database.AfterCommit(ctx, func() {
		eventbus.PublishBestEffort(ctx, s.publisher, event)
	})
}

// CloseDay implements summary.SummaryService.
func (s *SummaryServiceImpl) CloseDay(ctx context.Context, tenantID string, req summary.CloseDayRequest) (summary.DailySummaryResponse, error) {
	var closed summary.DailySummary
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.locker.Lock(ctx, database.EmployeeDayLockKey(tenantID, req.EmployeeID, req.Date)); err != nil {
			return err
		}

		current, err := s.Recompute(ctx, tenantID, req.EmployeeID, req.Date)
		if err != nil {
			return err
		}
		if current.IsClosed {
			return summary.ErrAlreadyClosed
		}

		now := s.clock.Now()
		current.IsClosed = true
		current.ClosedBy = &req.ClosedBy
		current.ClosedAt = &now
		if req.Notes != nil {
			current.Notes = req.Notes
		}

		closed, err = s.DailySummaryRepository.Upsert(ctx, current)
		if err != nil {
			return fmt.Errorf("failed to close day: %w", err)
		}
		s.publishAfterCommit(ctx, closed)
		return nil
	})
	if err != nil {
		return summary.DailySummaryResponse{}, err
	}

	slog.Info("timesheet day closed",
		"tenant_id", tenantID,
		"employee_id", req.EmployeeID,
		"date", req.Date.Format(time.DateOnly),
		"closed_by", req.ClosedBy,
	)
	return summary.NewDailySummaryResponse(closed), nil
}

// IsClosed implements summary.SummaryService.
func (s *SummaryServiceImpl) IsClosed(ctx context.Context, tenantID string, employeeID string, date time.Time) (bool, error) {
	return s.DailySummaryRepository.IsClosed(ctx, tenantID, employeeID, date)
}

// DailySummary implements summary.SummaryService.
func (s *SummaryServiceImpl) DailySummary(ctx context.Context, tenantID string, employeeID string, date time.Time) (summary.DailySummaryResponse, error) {
	found, err := s.DailySummaryRepository.Get(ctx, tenantID, employeeID, date)
	if err != nil {
		return summary.DailySummaryResponse{}, fmt.Errorf("failed to get daily summary: %w", err)
	}
	if found == nil {
		return summary.DailySummaryResponse{}, summary.ErrSummaryNotFound
	}
	return summary.NewDailySummaryResponse(*found), nil
}

// Timesheet implements summary.SummaryService.
func (s *SummaryServiceImpl) Timesheet(ctx context.Context, tenantID string, employeeID string, filter timerecord.PeriodFilter) (summary.TimesheetResponse, error) {
	if err := filter.Validate(); err != nil {
		return summary.TimesheetResponse{}, err
	}
	start, end := filter.Range()

	days, err := s.DailySummaryRepository.ListByPeriod(ctx, tenantID, employeeID, start, end)
	if err != nil {
		return summary.TimesheetResponse{}, fmt.Errorf("failed to list daily summaries: %w", err)
	}

	totals, err := s.DailySummaryRepository.PeriodTotals(ctx, tenantID, employeeID, start, end)
	if err != nil {
		return summary.TimesheetResponse{}, fmt.Errorf("failed to compute period totals: %w", err)
	}

	resp := summary.TimesheetResponse{
		EmployeeID: employeeID,
		StartDate:  filter.StartDate,
		EndDate:    filter.EndDate,
		Days:       make([]summary.DailySummaryResponse, 0, len(days)),
		Totals:     summary.NewPeriodTotalsResponse(totals),
	}
	for _, d := range days {
		resp.Days = append(resp.Days, summary.NewDailySummaryResponse(d))
	}
	return resp, nil
}

// PeriodTotals implements summary.SummaryService.
func (s *SummaryServiceImpl) PeriodTotals(ctx context.Context, tenantID string, employeeID string, filter timerecord.PeriodFilter) (summary.PeriodTotalsResponse, error) {
	if err := filter.Validate(); err != nil {
		return summary.PeriodTotalsResponse{}, err
	}
	start, end := filter.Range()

	totals, err := s.DailySummaryRepository.PeriodTotals(ctx, tenantID, employeeID, start, end)
	if err != nil {
		return summary.PeriodTotalsResponse{}, fmt.Errorf("failed to compute period totals: %w", err)
	}
	return summary.NewPeriodTotalsResponse(totals), nil
}

// RecomputeDate implements summary.SummaryService.
func (s *SummaryServiceImpl) RecomputeDate(ctx context.Context, date time.Time) (int, error) {
	days, err := s.timeRecords.ListEmployeeDays(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("failed to list employee days: %w", err)
	}

	rebuilt := 0
	for _, d := range days {
		if _, err := s.Recompute(ctx, d.TenantID, d.EmployeeID, d.Date); err != nil {
			slog.Error("failed to recompute daily summary",
				"tenant_id", d.TenantID,
				"employee_id", d.EmployeeID,
				"date", d.Date.Format(time.DateOnly),
				"error", err,
			)
			continue
		}
		rebuilt++
	}
	return rebuilt, nil
}

func NewSummaryService(
	tx database.Transactor,
	locker database.Locker,
	summaryRepo summary.DailySummaryRepository,
	timeRecordRepo timerecord.TimeRecordRepository,
	scheduleRepo schedule.WorkScheduleRepository,
	holidayRepo schedule.HolidayRepository,
	ledger overtime.Ledger,
	publisher eventbus.Publisher,
	clk clock.Clock,
	settings Settings,
) summary.SummaryService {
	return &SummaryServiceImpl{
		tx:                     tx,
		locker:                 locker,
		DailySummaryRepository: summaryRepo,
		timeRecords:            timeRecordRepo,
		schedules:              scheduleRepo,
		holidays:               holidayRepo,
		ledger:                 ledger,
		publisher:              publisher,
		clock:                  clk,
		settings:               settings,
	}
}
