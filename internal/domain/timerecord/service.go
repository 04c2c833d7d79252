package timerecord

import (
	"context"
	"time"
)

// TimeRecordService owns the punch state machine.
type TimeRecordService interface {
	// SubmitPunch validates the sequence of the whole day including the new
	// punch, applies the geofence result and recomputes the daily summary.
	SubmitPunch(ctx context.Context, tenantID string, req SubmitPunchRequest) (TimeRecordResponse, error)

	Approve(ctx context.Context, tenantID string, req ApproveRecordRequest) (TimeRecordResponse, error)
	Reject(ctx context.Context, tenantID string, req RejectRecordRequest) (TimeRecordResponse, error)

	ExpectedNext(ctx context.Context, tenantID string, employeeID string, date time.Time) (NextTypeResponse, error)
	LastRecord(ctx context.Context, tenantID string, employeeID string) (*TimeRecordResponse, error)
	RecordsByDate(ctx context.Context, tenantID string, employeeID string, date time.Time) (DayRecordsResponse, error)
	RecordsByPeriod(ctx context.Context, tenantID string, employeeID string, filter PeriodFilter) ([]DayRecordsResponse, error)

	PendingRecords(ctx context.Context, tenantID string, filter PendingFilter) (ListTimeRecordResponse, error)
	CountPending(ctx context.Context, tenantID string) (int64, error)
	Statistics(ctx context.Context, tenantID string) (StatisticsResponse, error)
}
