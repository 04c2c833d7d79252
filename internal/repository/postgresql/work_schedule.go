package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
)

type workScheduleRepositoryImpl struct {
	db *database.DB
}

func NewWorkScheduleRepository(db *database.DB) schedule.WorkScheduleRepository {
	return &workScheduleRepositoryImpl{db: db}
}

// GetForEmployee implements schedule.WorkScheduleRepository.
func (w *workScheduleRepositoryImpl) GetForEmployee(ctx context.Context, tenantID string, employeeID string, date time.Time) (*schedule.WorkSchedule, error) {
	q := GetQuerier(ctx, w.db)

	// A dated assignment wins over the employee's default schedule.
	query := `
		WITH target_schedule AS (
			SELECT COALESCE(
				(
					SELECT work_schedule_id
					FROM employee_schedule_assignments
					WHERE tenant_id = $1 AND employee_id = $2
					  AND start_date <= $3::date AND (end_date IS NULL OR end_date >= $3::date)
					ORDER BY start_date DESC
					LIMIT 1
				),
				(
					SELECT work_schedule_id
					FROM employees
					WHERE id = $2 AND tenant_id = $1
				)
			) AS id
		)
		SELECT
			ws.id, ws.tenant_id, ws.name, ws.tolerance_minutes, ws.created_at, ws.updated_at,
			wsd.weekday, wsd.expected_work_minutes, wsd.entry_time, wsd.exit_time
		FROM target_schedule ts
		JOIN work_schedules ws ON ws.id = ts.id AND ws.tenant_id = $1 AND ws.deleted_at IS NULL
		LEFT JOIN work_schedule_days wsd ON wsd.work_schedule_id = ws.id
		ORDER BY wsd.weekday ASC
	`

	rows, err := q.Query(ctx, query, tenantID, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get work schedule: %w", err)
	}
	defer rows.Close()

	var ws *schedule.WorkSchedule
	for rows.Next() {
		var (
			current             schedule.WorkSchedule
			weekday             *int
			expectedMinutes     *int
			entryTime, exitTime *int
		)
		if err := rows.Scan(
			&current.ID, &current.TenantID, &current.Name, &current.ToleranceMinutes, &current.CreatedAt, &current.UpdatedAt,
			&weekday, &expectedMinutes, &entryTime, &exitTime,
		); err != nil {
			return nil, fmt.Errorf("failed to scan work schedule: %w", err)
		}
		if ws == nil {
			ws = &current
		}
		if weekday == nil {
			continue
		}
		day := schedule.ScheduleDay{
			Weekday:   time.Weekday(*weekday),
			EntryTime: timeOfDay(entryTime),
			ExitTime:  timeOfDay(exitTime),
		}
		if expectedMinutes != nil {
			day.ExpectedWorkMinutes = *expectedMinutes
		}
		ws.Days = append(ws.Days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate work schedule days: %w", err)
	}
	return ws, nil
}
