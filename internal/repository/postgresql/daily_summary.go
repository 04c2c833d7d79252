package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/summary"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const dailySummaryColumns = `
	id, tenant_id, employee_id, summary_date, work_schedule_id,
	first_entry, last_exit, break_start, break_end,
	break_minutes, worked_minutes, expected_minutes, overtime_minutes, deficit_minutes,
	night_shift_minutes, late_arrival_minutes, early_departure_minutes,
	is_absent, absence_type, has_pending_records, has_missing_records, is_holiday, holiday_name,
	is_closed, closed_by, closed_at, notes, created_at, updated_at`

type dailySummaryRepositoryImpl struct {
	db *database.DB
}

func NewDailySummaryRepository(db *database.DB) summary.DailySummaryRepository {
	return &dailySummaryRepositoryImpl{db: db}
}

func scanDailySummary(row rowScanner) (summary.DailySummary, error) {
	var (
		s                                          summary.DailySummary
		firstEntry, lastExit, breakStart, breakEnd *int
	)
	err := row.Scan(
		&s.ID, &s.TenantID, &s.EmployeeID, &s.SummaryDate, &s.WorkScheduleID,
		&firstEntry, &lastExit, &breakStart, &breakEnd,
		&s.BreakMinutes, &s.WorkedMinutes, &s.ExpectedMinutes, &s.OvertimeMinutes, &s.DeficitMinutes,
		&s.NightShiftMinutes, &s.LateArrivalMinutes, &s.EarlyDepartureMinutes,
		&s.IsAbsent, &s.AbsenceType, &s.HasPendingRecords, &s.HasMissingRecords, &s.IsHoliday, &s.HolidayName,
		&s.IsClosed, &s.ClosedBy, &s.ClosedAt, &s.Notes, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return summary.DailySummary{}, err
	}
	s.FirstEntry = timeOfDay(firstEntry)
	s.LastExit = timeOfDay(lastExit)
	s.BreakStart = timeOfDay(breakStart)
	s.BreakEnd = timeOfDay(breakEnd)
	return s, nil
}

// Upsert implements summary.DailySummaryRepository.
func (d *dailySummaryRepositoryImpl) Upsert(ctx context.Context, s summary.DailySummary) (summary.DailySummary, error) {
	q := GetQuerier(ctx, d.db)

	query := `
		INSERT INTO daily_summaries (
			tenant_id, employee_id, summary_date, work_schedule_id,
			first_entry, last_exit, break_start, break_end,
			break_minutes, worked_minutes, expected_minutes, overtime_minutes, deficit_minutes,
			night_shift_minutes, late_arrival_minutes, early_departure_minutes,
			is_absent, absence_type, has_pending_records, has_missing_records, is_holiday, holiday_name,
			is_closed, closed_by, closed_at, notes
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26
		)
		ON CONFLICT (tenant_id, employee_id, summary_date) DO UPDATE SET
			work_schedule_id = EXCLUDED.work_schedule_id,
			first_entry = EXCLUDED.first_entry,
			last_exit = EXCLUDED.last_exit,
			break_start = EXCLUDED.break_start,
			break_end = EXCLUDED.break_end,
			break_minutes = EXCLUDED.break_minutes,
			worked_minutes = EXCLUDED.worked_minutes,
			expected_minutes = EXCLUDED.expected_minutes,
			overtime_minutes = EXCLUDED.overtime_minutes,
			deficit_minutes = EXCLUDED.deficit_minutes,
			night_shift_minutes = EXCLUDED.night_shift_minutes,
			late_arrival_minutes = EXCLUDED.late_arrival_minutes,
			early_departure_minutes = EXCLUDED.early_departure_minutes,
			is_absent = EXCLUDED.is_absent,
			absence_type = EXCLUDED.absence_type,
			has_pending_records = EXCLUDED.has_pending_records,
			has_missing_records = EXCLUDED.has_missing_records,
			is_holiday = EXCLUDED.is_holiday,
			holiday_name = EXCLUDED.holiday_name,
			is_closed = EXCLUDED.is_closed,
			closed_by = EXCLUDED.closed_by,
			closed_at = EXCLUDED.closed_at,
			notes = EXCLUDED.notes,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		s.TenantID,
		s.EmployeeID,
		s.SummaryDate,
		s.WorkScheduleID,
		minutesOf(s.FirstEntry),
		minutesOf(s.LastExit),
		minutesOf(s.BreakStart),
		minutesOf(s.BreakEnd),
		s.BreakMinutes,
		s.WorkedMinutes,
		s.ExpectedMinutes,
		s.OvertimeMinutes,
		s.DeficitMinutes,
		s.NightShiftMinutes,
		s.LateArrivalMinutes,
		s.EarlyDepartureMinutes,
		s.IsAbsent,
		s.AbsenceType,
		s.HasPendingRecords,
		s.HasMissingRecords,
		s.IsHoliday,
		s.HolidayName,
		s.IsClosed,
		s.ClosedBy,
		s.ClosedAt,
		s.Notes,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return summary.DailySummary{}, fmt.Errorf("failed to upsert daily summary: %w", err)
	}
	return s, nil
}

// Get implements summary.DailySummaryRepository.
func (d *dailySummaryRepositoryImpl) Get(ctx context.Context, tenantID string, employeeID string, date time.Time) (*summary.DailySummary, error) {
	q := GetQuerier(ctx, d.db)

	query := `
		SELECT ` + dailySummaryColumns + `
		FROM daily_summaries
		WHERE tenant_id = $1 AND employee_id = $2 AND summary_date = $3
	`

	s, err := scanDailySummary(q.QueryRow(ctx, query, tenantID, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get daily summary: %w", err)
	}
	return &s, nil
}

// ListByPeriod implements summary.DailySummaryRepository.
func (d *dailySummaryRepositoryImpl) ListByPeriod(ctx context.Context, tenantID string, employeeID string, start, end time.Time) ([]summary.DailySummary, error) {
	q := GetQuerier(ctx, d.db)

	query := `
		SELECT ` + dailySummaryColumns + `
		FROM daily_summaries
		WHERE tenant_id = $1 AND employee_id = $2 AND summary_date BETWEEN $3 AND $4
		ORDER BY summary_date ASC
	`

	rows, err := q.Query(ctx, query, tenantID, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily summaries: %w", err)
	}
	defer rows.Close()

	var summaries []summary.DailySummary
	for rows.Next() {
		s, err := scanDailySummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily summaries: %w", err)
	}
	return summaries, nil
}

// PeriodTotals implements summary.DailySummaryRepository.
func (d *dailySummaryRepositoryImpl) PeriodTotals(ctx context.Context, tenantID string, employeeID string, start, end time.Time) (summary.PeriodTotals, error) {
	q := GetQuerier(ctx, d.db)

	query := `
		SELECT
			COALESCE(SUM(worked_minutes), 0),
			COALESCE(SUM(overtime_minutes), 0),
			COALESCE(SUM(deficit_minutes), 0),
			COALESCE(SUM(night_shift_minutes), 0),
			COALESCE(SUM(late_arrival_minutes), 0),
			COUNT(*) FILTER (WHERE is_absent),
			COUNT(*)
		FROM daily_summaries
		WHERE tenant_id = $1 AND employee_id = $2 AND summary_date BETWEEN $3 AND $4
	`

	var totals summary.PeriodTotals
	err := q.QueryRow(ctx, query, tenantID, employeeID, start, end).Scan(
		&totals.WorkedMinutes,
		&totals.OvertimeMinutes,
		&totals.DeficitMinutes,
		&totals.NightShiftMinutes,
		&totals.LateArrivalMinutes,
		&totals.Absences,
		&totals.Days,
	)
	if err != nil {
		return summary.PeriodTotals{}, fmt.Errorf("failed to sum daily summaries: %w", err)
	}
	return totals, nil
}

// IsClosed implements summary.DailySummaryRepository.
func (d *dailySummaryRepositoryImpl) IsClosed(ctx context.Context, tenantID string, employeeID string, date time.Time) (bool, error) {
	q := GetQuerier(ctx, d.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM daily_summaries
			WHERE tenant_id = $1 AND employee_id = $2 AND summary_date = $3 AND is_closed
		)
	`

	var closed bool
	if err := q.QueryRow(ctx, query, tenantID, employeeID, date).Scan(&closed); err != nil {
		return false, fmt.Errorf("failed to check closed day: %w", err)
	}
	return closed, nil
}
