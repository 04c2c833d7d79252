package adjustment

import "context"

// TimeAdjustmentService runs the PENDING to APPROVED, REJECTED or CANCELLED
// workflow. Approval executes the correction and recomputes the day.
type TimeAdjustmentService interface {
	Create(ctx context.Context, tenantID string, req CreateAdjustmentRequest) (AdjustmentResponse, error)
	Approve(ctx context.Context, tenantID string, req DecisionRequest) (AdjustmentResponse, error)
	Reject(ctx context.Context, tenantID string, req RejectAdjustmentRequest) (AdjustmentResponse, error)
	Cancel(ctx context.Context, tenantID string, id string, requesterID string) (AdjustmentResponse, error)

	Get(ctx context.Context, tenantID string, id string) (AdjustmentResponse, error)
	ListPending(ctx context.Context, tenantID string, filter AdjustmentFilter) (ListAdjustmentResponse, error)
	ListByEmployee(ctx context.Context, tenantID string, employeeID string, filter AdjustmentFilter) (ListAdjustmentResponse, error)
	CountPending(ctx context.Context, tenantID string) (int64, error)

	// RemindPending publishes one reminder per tenant with pending adjustments.
	RemindPending(ctx context.Context) (int, error)
}
