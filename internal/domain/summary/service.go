package summary

import (
	"context"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timerecord"
)

// Aggregator rebuilds a daily summary from its punches. Implementations
// serialize per employee-day and post the delta to the overtime ledger.
type Aggregator interface {
	Recompute(ctx context.Context, tenantID string, employeeID string, date time.Time) (DailySummary, error)
}

type SummaryService interface {
	Aggregator

	CloseDay(ctx context.Context, tenantID string, req CloseDayRequest) (DailySummaryResponse, error)
	IsClosed(ctx context.Context, tenantID string, employeeID string, date time.Time) (bool, error)

	DailySummary(ctx context.Context, tenantID string, employeeID string, date time.Time) (DailySummaryResponse, error)
	Timesheet(ctx context.Context, tenantID string, employeeID string, filter timerecord.PeriodFilter) (TimesheetResponse, error)
	PeriodTotals(ctx context.Context, tenantID string, employeeID string, filter timerecord.PeriodFilter) (PeriodTotalsResponse, error)

	// RecomputeDate rebuilds every employee-day of date that has punches,
	// across tenants. It returns how many days were rebuilt.
	RecomputeDate(ctx context.Context, date time.Time) (int, error)
}
