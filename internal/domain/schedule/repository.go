package schedule

import (
	"context"
	"time"
)

type WorkScheduleRepository interface {
	// GetForEmployee returns the schedule assigned to the employee on date,
	// or nil when none is assigned.
	GetForEmployee(ctx context.Context, tenantID string, employeeID string, date time.Time) (*WorkSchedule, error)
}

type HolidayRepository interface {
	GetByDate(ctx context.Context, tenantID string, date time.Time) (*Holiday, error)
	ListByYear(ctx context.Context, tenantID string, year int) ([]Holiday, error)
	Create(ctx context.Context, holiday Holiday) (Holiday, error)
}
