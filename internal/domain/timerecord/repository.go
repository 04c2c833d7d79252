package timerecord

import (
	"context"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
)

// TimeRecordRepository stores punches. Every method is tenant scoped except
// ListEmployeeDays, which serves the cross-tenant recovery sweep.
type TimeRecordRepository interface {
	Create(ctx context.Context, record TimeRecord) (TimeRecord, error)

	GetByID(ctx context.Context, tenantID string, id string) (TimeRecord, error)

	// Update rewrites the mutable columns: time, status, approval, adjustment link.
	Update(ctx context.Context, record TimeRecord) (TimeRecord, error)

	// ListByDate returns every punch of the day ordered by time, whatever its status.
	ListByDate(ctx context.Context, tenantID string, employeeID string, date time.Time) ([]TimeRecord, error)

	// ListByPeriod returns punches in [start, end] ordered by date then time.
	ListByPeriod(ctx context.Context, tenantID string, employeeID string, start, end time.Time) ([]TimeRecord, error)

	// ExistsAt ignores rejected and voided punches.
	ExistsAt(ctx context.Context, tenantID string, employeeID string, date time.Time, at clock.TimeOfDay, punch PunchType) (bool, error)

	ExistsByNSR(ctx context.Context, tenantID string, importSourceID string, nsr int64) (bool, error)

	// GetLast returns the latest counting punch of the employee, or nil.
	GetLast(ctx context.Context, tenantID string, employeeID string) (*TimeRecord, error)

	ListPending(ctx context.Context, tenantID string, filter PendingFilter) ([]TimeRecord, int64, error)
	CountPending(ctx context.Context, tenantID string) (int64, error)
	CountByDate(ctx context.Context, tenantID string, date time.Time) (int64, error)

	ListEmployeeDays(ctx context.Context, date time.Time) ([]EmployeeDay, error)
}
