package summary

import (
	"context"
	"time"
)

type DailySummaryRepository interface {
	// Upsert replaces the row of (tenant, employee, date) wholesale.
	Upsert(ctx context.Context, summary DailySummary) (DailySummary, error)

	// Get returns nil when the day was never computed.
	Get(ctx context.Context, tenantID string, employeeID string, date time.Time) (*DailySummary, error)

	ListByPeriod(ctx context.Context, tenantID string, employeeID string, start, end time.Time) ([]DailySummary, error)
	PeriodTotals(ctx context.Context, tenantID string, employeeID string, start, end time.Time) (PeriodTotals, error)

	IsClosed(ctx context.Context, tenantID string, employeeID string, date time.Time) (bool, error)
}
